package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PeakMade/Credit-Boost-Portal/internal/config"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
	"github.com/PeakMade/Credit-Boost-Portal/internal/store"
)

// Roles a session can hold.
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
)

// ResidentPassword is the shared demo password for resident logins.
const ResidentPassword = "resident"

const sessionTTL = 12 * time.Hour

// AuthService handles the demo login: one configured admin and any resident
// whose email is on file.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Session(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
}

// Session is stored in the KV under its token.
type Session struct {
	Token      string    `json:"token"`
	Role       string    `json:"role"`
	Email      string    `json:"email"`
	ResidentID int       `json:"resident_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type authService struct {
	adminEmail string
	adminHash  []byte
	residents  repository.ResidentsRepository
	sessions   store.KV
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService hashes the admin password with bcrypt when no hash is
// configured.
func NewAuthService(admin config.AdminConfig, residents repository.ResidentsRepository, sessions store.KV, logger *zap.Logger) (AuthService, error) {
	hash := []byte(admin.PasswordHash)
	if len(hash) == 0 {
		h, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = h
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &authService{
		adminEmail: strings.TrimSpace(admin.Email),
		adminHash:  hash,
		residents:  residents,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)

	if email != "" && email == s.adminEmail {
		if bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) == nil {
			s.logger.Info("Admin login", zap.String("email", email), zap.String("ip_address", req.IPAddress))
			return s.newSession(ctx, Session{Role: RoleAdmin, Email: email})
		}
	}

	if password != ResidentPassword {
		s.logger.Warn("Login failed", zap.String("email", email), zap.String("ip_address", req.IPAddress), zap.String("reason", "invalid_credentials"))
		return nil, ErrInvalidCredentials
	}

	r, err := s.residents.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Login failed", zap.String("email", email), zap.String("ip_address", req.IPAddress), zap.String("reason", "email_not_found"))
			return nil, ErrResidentNotFound
		}
		return nil, fmt.Errorf("find resident: %w", err)
	}
	s.logger.Info("Resident login", zap.Int("resident_id", r.ID), zap.String("ip_address", req.IPAddress))
	return s.newSession(ctx, Session{Role: RoleResident, Email: email, ResidentID: r.ID})
}

func (s *authService) newSession(ctx context.Context, sess Session) (*Session, error) {
	sess.Token = uuid.NewString()
	sess.CreatedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, sessionKey(sess.Token), string(b), sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &sess, nil
}

func (s *authService) Session(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := s.sessions.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, sessionKey(token))
}

func sessionKey(token string) string {
	return "creditboost:session:" + token
}
