package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Router wraps http.ServeMux. Patterns use the method-and-wildcard syntax.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	return r
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)
	r.logger.Debug("http request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("POST /api/v1/login", h.Login)
	r.Handle("POST /api/v1/logout", h.Logout)
}

func (r *Router) RegisterResidentRoutes(a *Authenticator, h *ResidentHandler) {
	r.Handle("GET /api/v1/resident/dashboard", a.Resident(h.Dashboard))
	r.Handle("POST /api/v1/resident/enroll", a.Resident(h.Enroll))
	r.Handle("POST /api/v1/resident/opt-out", a.Resident(h.OptOut))
	r.Handle("GET /api/v1/resident/profile", a.Resident(h.Profile))
	r.Handle("PUT /api/v1/resident/profile", a.Resident(h.UpdateProfile))
	r.Handle("GET /api/v1/resident/payments", a.Resident(h.Payments))
}

func (r *Router) RegisterAdminRoutes(a *Authenticator, h *AdminHandler) {
	r.Handle("GET /api/v1/admin/dashboard", a.Admin(h.Dashboard))
	r.Handle("GET /api/v1/admin/residents", a.Admin(h.ListResidents))
	r.Handle("POST /api/v1/admin/residents/reload", a.Admin(h.Reload))
	r.Handle("GET /api/v1/admin/residents/{id}", a.Admin(h.GetResident))
	r.Handle("GET /api/v1/admin/residents/{id}/data-mismatch", a.Admin(h.DataMismatch))
	r.Handle("POST /api/v1/admin/residents/{id}/payment-status", a.Admin(h.UpdatePaymentStatus))
	r.Handle("GET /api/v1/admin/reporting-runs", a.Admin(h.ReportingRuns))
	r.Handle("GET /api/v1/admin/disputes", a.Admin(h.Disputes))
	r.Handle("GET /api/v1/admin/audit-logs", a.Admin(h.AuditLogs))
	r.Handle("GET /api/v1/admin/export/residents", a.Admin(h.ExportResidents))
	r.Handle("POST /api/v1/admin/export/residents", a.Admin(h.ExportResidents))
	r.Handle("GET /api/v1/admin/export/reporting-runs", a.Admin(h.ExportReportingRuns))
	r.Handle("POST /api/v1/admin/export/reporting-runs", a.Admin(h.ExportReportingRuns))
	r.Handle("GET /api/v1/admin/export/disputes", a.Admin(h.ExportDisputes))
	r.Handle("POST /api/v1/admin/export/disputes", a.Admin(h.ExportDisputes))
	r.Handle("GET /api/v1/admin/export/audit-logs", a.Admin(h.ExportAuditLogs))
	r.Handle("POST /api/v1/admin/export/audit-logs", a.Admin(h.ExportAuditLogs))
}
