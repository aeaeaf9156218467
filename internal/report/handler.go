package report

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mocktest/internal/app/apiresp"
)

type Handler struct {
	svc resultService
}

type resultService interface {
	List(ctx context.Context, search string) ([]StudentResult, error)
	ByCandidate(ctx context.Context, email string) ([]StudentResult, error)
	Summary(ctx context.Context) (*Summary, error)
	ExportExcel(ctx context.Context, search string) ([]byte, error)
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List serves GET /admin/results?search=&email=. email narrows to one candidate.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []StudentResult
		err   error
	)
	if email := strings.TrimSpace(q.Get("email")); email != "" {
		items, err = h.svc.ByCandidate(r.Context(), email)
	} else {
		items, err = h.svc.List(r.Context(), q.Get("search"))
	}
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Summary(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, out)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	payload, err := h.svc.ExportExcel(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=student-results.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
