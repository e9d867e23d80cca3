package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/export"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
)

const dataSourceSharePoint = "sharepoint"

// AdminHandler serves the property-manager views. remote is the live list
// shown when data_source=sharepoint; it may be nil.
type AdminHandler struct {
	residents service.ResidentService
	dashboard service.DashboardService
	reporting service.ReportingService
	loader    *service.ResidentLoader
	remote    source.Source
	logger    *zap.Logger
	now       func() time.Time
}

func NewAdminHandler(
	residents service.ResidentService,
	dashboard service.DashboardService,
	reporting service.ReportingService,
	loader *service.ResidentLoader,
	remote source.Source,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		residents: residents,
		dashboard: dashboard,
		reporting: reporting,
		loader:    loader,
		remote:    remote,
		logger:    logger,
		now:       time.Now,
	}
}

func actor(r *http.Request) string {
	if sess, ok := SessionFrom(r.Context()); ok {
		return sess.Email
	}
	return "admin"
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// ListResidents: GET /api/v1/admin/residents?search=&data_source=
// data_source=sharepoint reads the live list without storing it and falls
// back to the stored residents with a warning when the list is unavailable.
func (h *AdminHandler) ListResidents(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	if strings.EqualFold(r.URL.Query().Get("data_source"), dataSourceSharePoint) {
		list, err := h.previewRemote(r, search)
		if err == nil {
			writeJSON(w, http.StatusOK, Ok(map[string]any{"items": list, "total": len(list), "data_source": dataSourceSharePoint}))
			return
		}
		h.logger.Warn("SharePoint preview failed, showing stored residents", zap.Error(err))
		list, lerr := h.residents.List(r.Context(), search)
		if lerr != nil {
			writeJSON(w, http.StatusOK, Fail(lerr.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Warn(
			fmt.Sprintf("SharePoint unavailable (%v); showing stored residents", err),
			map[string]any{"items": list, "total": len(list), "data_source": "local"},
		))
		return
	}

	list, err := h.residents.List(r.Context(), search)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": list, "total": len(list), "data_source": "local"}))
}

func (h *AdminHandler) previewRemote(r *http.Request, search string) ([]*domain.Resident, error) {
	if h.remote == nil || h.loader == nil {
		return nil, fmt.Errorf("%w: no remote source configured", source.ErrSourceUnavailable)
	}
	list, err := h.loader.Preview(r.Context(), h.remote)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(search) == "" {
		return list, nil
	}
	scratch := repository.NewMemoryResidentsRepo()
	if err := scratch.Replace(r.Context(), list); err != nil {
		return nil, err
	}
	return scratch.Search(r.Context(), search)
}

// Reload re-runs the resident load from the configured sources.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeJSON(w, http.StatusOK, Fail("loader not configured"))
		return
	}
	report, err := h.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	h.reporting.Record(r.Context(), actor(r), "Reloaded residents", fmt.Sprintf("%s: %d residents", report.Source, report.Count))
	writeJSON(w, http.StatusOK, Ok(report))
}

// GetResident shows one record including masked PII, so the view is audited.
func (h *AdminHandler) GetResident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusOK, Fail("invalid resident id"))
		return
	}
	res, err := h.residents.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	h.reporting.Record(r.Context(), actor(r), "Viewed resident PII", res.Name)
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *AdminHandler) DataMismatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusOK, Fail("invalid resident id"))
		return
	}
	m, err := h.residents.DataMismatch(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

// UpdatePaymentStatus: POST {"month": "January 2026", "status": "Paid"}
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusOK, Fail("invalid resident id"))
		return
	}
	var req struct {
		Month  string `json:"month"`
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.residents.UpdatePaymentStatus(r.Context(), id, req.Month, req.Status)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidArgument) && !errors.Is(err, service.ErrPaymentNotFound) && !repository.IsNotFound(err) {
			h.logger.Error("Payment status update failed", zap.Int("resident_id", id), zap.Error(err))
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	h.reporting.Record(r.Context(), actor(r), "Updated payment status", fmt.Sprintf("%s: %s -> %s", res.Name, req.Month, req.Status))
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *AdminHandler) ReportingRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.reporting.Runs(r.Context())))
}

func (h *AdminHandler) Disputes(w http.ResponseWriter, r *http.Request) {
	d, err := h.reporting.Disputes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.reporting.AuditLogs(r.Context())
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": logs, "total": len(logs)}))
}

// ExportResidents: GET exports every enrolled resident; POST
// {"resident_ids": [...]} exports the listed residents.
func (h *AdminHandler) ExportResidents(w http.ResponseWriter, r *http.Request) {
	all, err := h.residents.List(r.Context(), "")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	var selected []*domain.Resident
	if r.Method == http.MethodPost {
		var req struct {
			ResidentIDs []int `json:"resident_ids"`
		}
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		want := make(map[int]bool, len(req.ResidentIDs))
		for _, id := range req.ResidentIDs {
			want[id] = true
		}
		for _, res := range all {
			if want[res.ID] {
				selected = append(selected, res)
			}
		}
	} else {
		for _, res := range all {
			if res.Enrolled {
				selected = append(selected, res)
			}
		}
	}

	now := h.now()
	b, err := export.Residents(selected, now)
	h.writeExport(w, r, "residents", "Resident list", len(selected), b, now, err)
}

func (h *AdminHandler) ExportReportingRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.reporting.Runs(r.Context()).Runs
	now := h.now()
	b, err := export.ReportingRuns(runs, now)
	h.writeExport(w, r, "reporting_runs", "Reporting runs", len(runs), b, now, err)
}

func (h *AdminHandler) ExportDisputes(w http.ResponseWriter, r *http.Request) {
	d, err := h.reporting.Disputes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	now := h.now()
	b, err := export.Disputes(d.Disputes, now)
	h.writeExport(w, r, "disputes", "Disputes", len(d.Disputes), b, now, err)
}

func (h *AdminHandler) ExportAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.reporting.AuditLogs(r.Context())
	now := h.now()
	b, err := export.AuditLogs(logs, now)
	h.writeExport(w, r, "audit_logs", "Audit logs", len(logs), b, now, err)
}

func (h *AdminHandler) writeExport(w http.ResponseWriter, r *http.Request, prefix, what string, rows int, b []byte, now time.Time, err error) {
	if err != nil {
		h.logger.Error("Export failed", zap.String("export", prefix), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	h.reporting.Record(r.Context(), actor(r), "Exported report", fmt.Sprintf("%s (%d rows)", what, rows))
	writeXLSX(w, export.Filename(prefix, now), b)
}
