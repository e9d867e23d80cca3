package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
)

// MemoryResidentsRepo keeps residents in process memory, in load order.
// Reads return copies; Update is the only way to change a stored record.
type MemoryResidentsRepo struct {
	mu        sync.RWMutex
	residents []*domain.Resident
	byID      map[int]*domain.Resident
}

func NewMemoryResidentsRepo() *MemoryResidentsRepo {
	return &MemoryResidentsRepo{byID: map[int]*domain.Resident{}}
}

func (r *MemoryResidentsRepo) Replace(_ context.Context, residents []*domain.Resident) error {
	byID := make(map[int]*domain.Resident, len(residents))
	list := make([]*domain.Resident, 0, len(residents))
	for _, res := range residents {
		if res == nil {
			continue
		}
		if _, dup := byID[res.ID]; dup {
			return fmt.Errorf("duplicate resident id %d", res.ID)
		}
		byID[res.ID] = res
		list = append(list, res)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.residents = list
	r.byID = byID
	return nil
}

func (r *MemoryResidentsRepo) List(_ context.Context) ([]*domain.Resident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Resident, 0, len(r.residents))
	for _, res := range r.residents {
		out = append(out, res.Clone())
	}
	return out, nil
}

func (r *MemoryResidentsRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.residents), nil
}

func (r *MemoryResidentsRepo) Get(_ context.Context, id int) (*domain.Resident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res.Clone(), nil
}

// FindByEmail matches case-insensitively and returns the first hit.
func (r *MemoryResidentsRepo) FindByEmail(_ context.Context, email string) (*domain.Resident, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.residents {
		if strings.EqualFold(res.Email, email) {
			return res.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// Search matches query against name, property and unit, case-insensitively.
// An empty query returns everything.
func (r *MemoryResidentsRepo) Search(ctx context.Context, query string) ([]*domain.Resident, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.List(ctx)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Resident{}
	for _, res := range r.residents {
		if strings.Contains(strings.ToLower(res.Name), q) ||
			strings.Contains(strings.ToLower(res.Property), q) ||
			strings.Contains(strings.ToLower(res.Unit), q) {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

// Update runs fn on the stored record under the write lock. An error from fn
// is returned as is; changes fn made before failing are kept.
func (r *MemoryResidentsRepo) Update(_ context.Context, id int, fn func(res *domain.Resident) error) (*domain.Resident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(res); err != nil {
		return nil, err
	}
	return res.Clone(), nil
}

type snapshot struct {
	Residents []*domain.Resident `json:"residents"`
}

// SaveSnapshot writes the residents to path as {"residents": [...]}, the same
// shape the JSON source reads. The file is replaced atomically.
func (r *MemoryResidentsRepo) SaveSnapshot(ctx context.Context, path string) error {
	list, err := r.List(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snapshot{Residents: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".residents-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot replaces the collection with the records in path. A missing
// file is reported with os.ErrNotExist.
func (r *MemoryResidentsRepo) LoadSnapshot(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return 0, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if err := r.Replace(ctx, snap.Residents); err != nil {
		return 0, err
	}
	return len(snap.Residents), nil
}

// IsNotFound reports whether err means the resident does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
