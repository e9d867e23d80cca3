package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
)

// ResidentHandler serves the logged-in resident's own record.
type ResidentHandler struct {
	residents service.ResidentService
	logger    *zap.Logger
}

func NewResidentHandler(residents service.ResidentService, logger *zap.Logger) *ResidentHandler {
	return &ResidentHandler{residents: residents, logger: logger}
}

func residentID(r *http.Request) int {
	if sess, ok := SessionFrom(r.Context()); ok {
		return sess.ResidentID
	}
	return 0
}

func (h *ResidentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.residents.Dashboard(r.Context(), residentID(r))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *ResidentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req service.EnrollRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.residents.Enroll(r.Context(), residentID(r), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ResidentHandler) OptOut(w http.ResponseWriter, r *http.Request) {
	res, err := h.residents.OptOut(r.Context(), residentID(r))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ResidentHandler) Profile(w http.ResponseWriter, r *http.Request) {
	res, err := h.residents.Get(r.Context(), residentID(r))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ResidentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.residents.UpdateProfile(r.Context(), residentID(r), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// Payments returns only the payments made since enrollment.
func (h *ResidentHandler) Payments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.residents.EnrolledPayments(r.Context(), residentID(r))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": payments, "total": len(payments)}))
}
