package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
)

type sessionCtxKey struct{}

// Authenticator resolves the bearer token into a session and enforces the
// role a route needs.
type Authenticator struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthenticator(auth service.AuthService, logger *zap.Logger) *Authenticator {
	return &Authenticator{auth: auth, logger: logger}
}

func (a *Authenticator) Admin(next http.HandlerFunc) http.HandlerFunc {
	return a.require(service.RoleAdmin, next)
}

func (a *Authenticator) Resident(next http.HandlerFunc) http.HandlerFunc {
	return a.require(service.RoleResident, next)
}

func (a *Authenticator) require(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, Result[any]{Code: ResultTokenExpired, Type: "error", Message: "login required"})
			return
		}
		sess, err := a.auth.Session(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Result[any]{Code: ResultTokenExpired, Type: "error", Message: err.Error()})
			return
		}
		if sess.Role != role {
			a.logger.Warn("Role check failed",
				zap.String("email", sess.Email),
				zap.String("role", sess.Role),
				zap.String("required", role),
				zap.String("path", r.URL.Path),
			)
			writeJSON(w, http.StatusForbidden, Result[any]{Code: ResultForbidden, Type: "error", Message: "access denied"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, sess)))
	}
}

// SessionFrom returns the session stored by the Authenticator.
func SessionFrom(ctx context.Context) (*service.Session, bool) {
	sess, ok := ctx.Value(sessionCtxKey{}).(*service.Session)
	return sess, ok
}
