package question

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mocktest/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc catalogService
}

type catalogService interface {
	ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error)
	UpsertQuestion(ctx context.Context, in UpsertQuestionInput) (*Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ListSections(ctx context.Context) ([]SectionStat, error)
	AddSection(ctx context.Context, name string) (*Section, error)
	RenameSection(ctx context.Context, id, name string) (*Section, error)
	ExportQuestionsExcel(ctx context.Context, f QuestionFilter) ([]byte, error)
	ImportQuestionsExcel(ctx context.Context, r io.Reader) (*ImportReport, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type questionRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	SectionID     string   `json:"section_id"`
}

type sectionRequest struct {
	Name string `json:"name"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListQuestions(r.Context(), filterFromQuery(r))
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	h.saveQuestion(w, r, 0, http.StatusCreated)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	h.saveQuestion(w, r, id, http.StatusOK)
}

func (h *Handler) saveQuestion(w http.ResponseWriter, r *http.Request, id int64, okStatus int) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}
	if req.CorrectAnswer == nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "correct_answer is required"})
		return
	}

	item, err := h.svc.UpsertQuestion(r.Context(), UpsertQuestionInput{
		ID:            id,
		Text:          req.Question,
		Options:       req.Options,
		CorrectAnswer: *req.CorrectAnswer,
		SectionID:     req.SectionID,
	})
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, r, okStatus, apiResponse{OK: true, Data: item})
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]any{"id": id, "deleted": true}})
}

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListSections(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}
	item, err := h.svc.AddSection(r.Context(), req.Name)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) RenameSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}
	item, err := h.svc.RenameSection(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) ExportQuestions(w http.ResponseWriter, r *http.Request) {
	payload, err := h.svc.ExportQuestionsExcel(r.Context(), filterFromQuery(r))
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=questions.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid multipart form"})
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "file field is required"})
		return
	}
	defer file.Close()

	report, err := h.svc.ImportQuestionsExcel(r.Context(), file)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]any{
		"filename": hdr.Filename,
		"report":   report,
	}})
}

func filterFromQuery(r *http.Request) QuestionFilter {
	q := r.URL.Query()
	return QuestionFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		SectionID: strings.TrimSpace(q.Get("section")),
	}
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrSectionNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSectionExists):
		writeJSON(w, r, http.StatusConflict, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	apiresp.WriteLegacy(w, r, code, payload.OK, payload.Data, payload.Error)
}
