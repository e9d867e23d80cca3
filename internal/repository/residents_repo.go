package repository

import (
	"context"
	"errors"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
)

var ErrNotFound = errors.New("resident not found")

// ResidentsRepository owns the loaded resident collection. Update mutates the
// stored record in place; every later reader sees the change.
type ResidentsRepository interface {
	Replace(ctx context.Context, residents []*domain.Resident) error
	List(ctx context.Context) ([]*domain.Resident, error)
	Get(ctx context.Context, id int) (*domain.Resident, error)
	FindByEmail(ctx context.Context, email string) (*domain.Resident, error)
	Search(ctx context.Context, query string) ([]*domain.Resident, error)
	Update(ctx context.Context, id int, fn func(r *domain.Resident) error) (*domain.Resident, error)
	Count(ctx context.Context) (int, error)
}
