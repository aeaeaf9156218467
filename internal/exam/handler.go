package exam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mocktest/internal/app/apiresp"
	"mocktest/internal/question"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc examService
}

type examService interface {
	StartSession(ctx context.Context) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	GetQuestion(ctx context.Context, id string, number int) (*QuestionView, error)
	SelectOption(ctx context.Context, id string, number, option int) (*SessionView, error)
	GoTo(ctx context.Context, id string, number int) (*SessionView, error)
	Next(ctx context.Context, id string) (*MoveResult, error)
	Prev(ctx context.Context, id string) (*MoveResult, error)
	Palette(ctx context.Context, id, filter string) (*Palette, error)
	RequestSubmit(ctx context.Context, id string) (*SubmitSummary, error)
	CancelSubmit(ctx context.Context, id string) (*SessionView, error)
	ConfirmSubmit(ctx context.Context, id string) (*ConfirmResult, error)
	Identify(ctx context.Context, id string, in UserInfo) (*IdentifyResult, error)
	Result(ctx context.Context, id string) (*ResultView, error)
	Restart(ctx context.Context, id string) error
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type selectOptionRequest struct {
	Option *int `json:"option"`
}

type identifyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.StartSession(r.Context())
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: view})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	no, ok := questionNumber(w, r)
	if !ok {
		return
	}
	item, err := h.svc.GetQuestion(r.Context(), chi.URLParam(r, "id"), no)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: item})
}

func (h *Handler) SelectOption(w http.ResponseWriter, r *http.Request) {
	no, ok := questionNumber(w, r)
	if !ok {
		return
	}
	var req selectOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if req.Option == nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "option is required"})
		return
	}

	view, err := h.svc.SelectOption(r.Context(), chi.URLParam(r, "id"), no, *req.Option)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) GoTo(w http.ResponseWriter, r *http.Request) {
	no, ok := questionNumber(w, r)
	if !ok {
		return
	}
	view, err := h.svc.GoTo(r.Context(), chi.URLParam(r, "id"), no)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Prev(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) Palette(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Palette(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("section"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) RequestSubmit(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RequestSubmit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) CancelSubmit(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.CancelSubmit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ConfirmSubmit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	out, err := h.svc.Identify(r.Context(), chi.URLParam(r, "id"), UserInfo{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Restart(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeExamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]any{"next": RedirectTest}})
}

func questionNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	no, err := strconv.Atoi(chi.URLParam(r, "no"))
	if err != nil || no <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question number"})
		return 0, false
	}
	return no, true
}

func writeExamError(w http.ResponseWriter, r *http.Request, err error) {
	if redirect, ok := RedirectFor(err); ok {
		apiresp.WriteErrorData(w, r, http.StatusConflict, err.Error(), map[string]any{"redirect": redirect})
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		apiresp.WriteErrorData(w, r, http.StatusBadRequest, err.Error(), map[string]any{"fields": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrQuestionOutOfRange), errors.Is(err, ErrInvalidOption), errors.Is(err, ErrUnknownSection):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrSubmitNotRequested):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	case errors.Is(err, question.ErrEmptyBank):
		writeJSON(w, r, http.StatusServiceUnavailable, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
