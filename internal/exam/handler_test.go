package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mocktest/internal/question"

	"github.com/go-chi/chi/v5"
)

type mockExamService struct {
	startFn         func(ctx context.Context) (*SessionView, error)
	getFn           func(ctx context.Context, id string) (*SessionView, error)
	getQuestionFn   func(ctx context.Context, id string, number int) (*QuestionView, error)
	selectOptionFn  func(ctx context.Context, id string, number, option int) (*SessionView, error)
	goToFn          func(ctx context.Context, id string, number int) (*SessionView, error)
	nextFn          func(ctx context.Context, id string) (*MoveResult, error)
	prevFn          func(ctx context.Context, id string) (*MoveResult, error)
	paletteFn       func(ctx context.Context, id, filter string) (*Palette, error)
	requestSubmitFn func(ctx context.Context, id string) (*SubmitSummary, error)
	cancelSubmitFn  func(ctx context.Context, id string) (*SessionView, error)
	confirmSubmitFn func(ctx context.Context, id string) (*ConfirmResult, error)
	identifyFn      func(ctx context.Context, id string, in UserInfo) (*IdentifyResult, error)
	resultFn        func(ctx context.Context, id string) (*ResultView, error)
	restartFn       func(ctx context.Context, id string) error
}

func (m *mockExamService) StartSession(ctx context.Context) (*SessionView, error) {
	if m.startFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.startFn(ctx)
}

func (m *mockExamService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	if m.getFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getFn(ctx, id)
}

func (m *mockExamService) GetQuestion(ctx context.Context, id string, number int) (*QuestionView, error) {
	if m.getQuestionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getQuestionFn(ctx, id, number)
}

func (m *mockExamService) SelectOption(ctx context.Context, id string, number, option int) (*SessionView, error) {
	if m.selectOptionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.selectOptionFn(ctx, id, number, option)
}

func (m *mockExamService) GoTo(ctx context.Context, id string, number int) (*SessionView, error) {
	if m.goToFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.goToFn(ctx, id, number)
}

func (m *mockExamService) Next(ctx context.Context, id string) (*MoveResult, error) {
	if m.nextFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.nextFn(ctx, id)
}

func (m *mockExamService) Prev(ctx context.Context, id string) (*MoveResult, error) {
	if m.prevFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.prevFn(ctx, id)
}

func (m *mockExamService) Palette(ctx context.Context, id, filter string) (*Palette, error) {
	if m.paletteFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.paletteFn(ctx, id, filter)
}

func (m *mockExamService) RequestSubmit(ctx context.Context, id string) (*SubmitSummary, error) {
	if m.requestSubmitFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.requestSubmitFn(ctx, id)
}

func (m *mockExamService) CancelSubmit(ctx context.Context, id string) (*SessionView, error) {
	if m.cancelSubmitFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.cancelSubmitFn(ctx, id)
}

func (m *mockExamService) ConfirmSubmit(ctx context.Context, id string) (*ConfirmResult, error) {
	if m.confirmSubmitFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.confirmSubmitFn(ctx, id)
}

func (m *mockExamService) Identify(ctx context.Context, id string, in UserInfo) (*IdentifyResult, error) {
	if m.identifyFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.identifyFn(ctx, id, in)
}

func (m *mockExamService) Result(ctx context.Context, id string) (*ResultView, error) {
	if m.resultFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.resultFn(ctx, id)
}

func (m *mockExamService) Restart(ctx context.Context, id string) error {
	if m.restartFn == nil {
		return errors.New("not implemented")
	}
	return m.restartFn(ctx, id)
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestStartSessionCreated(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		startFn: func(ctx context.Context) (*SessionView, error) {
			return &SessionView{ID: "abc", Current: 1, Total: 100}, nil
		},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	rr := httptest.NewRecorder()

	h.Start(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	data, _ := body["data"].(map[string]interface{})
	if data["id"] != "abc" {
		t.Fatalf("unexpected data: %v", body["data"])
	}
}

func TestStartSessionEmptyBankUnavailable(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		startFn: func(ctx context.Context) (*SessionView, error) {
			return nil, question.ErrEmptyBank
		},
	}}
	rr := httptest.NewRecorder()
	h.Start(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestSelectOptionValidation(t *testing.T) {
	tests := []struct {
		name   string
		no     string
		body   string
		svcErr error
		want   int
	}{
		{name: "bad number", no: "x", body: `{"option":1}`, want: http.StatusBadRequest},
		{name: "missing option", no: "1", body: `{}`, want: http.StatusBadRequest},
		{name: "bad json", no: "1", body: `{`, want: http.StatusBadRequest},
		{name: "option out of range", no: "1", body: `{"option":9}`, svcErr: ErrInvalidOption, want: http.StatusBadRequest},
		{name: "unknown session", no: "1", body: `{"option":0}`, svcErr: ErrSessionNotFound, want: http.StatusNotFound},
		{name: "closed", no: "1", body: `{"option":0}`, svcErr: ErrSessionClosed, want: http.StatusConflict},
		{name: "ok", no: "2", body: `{"option":0}`, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &Handler{svc: &mockExamService{
				selectOptionFn: func(ctx context.Context, id string, number, option int) (*SessionView, error) {
					if tc.svcErr != nil {
						return nil, tc.svcErr
					}
					if id != "s1" || number != 2 || option != 0 {
						t.Fatalf("unexpected args: %s %d %d", id, number, option)
					}
					return &SessionView{ID: id}, nil
				},
			}}
			req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/answers/"+tc.no, bytes.NewBufferString(tc.body))
			req = withChiParam(req, "id", "s1")
			req = withChiParam(req, "no", tc.no)
			rr := httptest.NewRecorder()

			h.SelectOption(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestConfirmSubmitNotRequestedConflict(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		confirmSubmitFn: func(ctx context.Context, id string) (*ConfirmResult, error) {
			return nil, ErrSubmitNotRequested
		},
	}}
	req := withChiParam(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/submit/confirm", nil), "id", "s1")
	rr := httptest.NewRecorder()

	h.ConfirmSubmit(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestResultPreconditionRedirects(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		resultFn: func(ctx context.Context, id string) (*ResultView, error) {
			return nil, ErrResultUnavailable
		},
	}}
	req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/result", nil), "id", "s1")
	rr := httptest.NewRecorder()

	h.Result(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	data, _ := body["data"].(map[string]interface{})
	if data["redirect"] != RedirectTest {
		t.Fatalf("expected redirect %s, got %v", RedirectTest, body["data"])
	}
}

func TestIdentifyFieldErrors(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		identifyFn: func(ctx context.Context, id string, in UserInfo) (*IdentifyResult, error) {
			_, err := ValidateUserInfo(in)
			return nil, err
		},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/identify", bytes.NewBufferString(`{"name":"A","email":"a@b","phone":"123"}`))
	req = withChiParam(req, "id", "s1")
	rr := httptest.NewRecorder()

	h.Identify(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	data, _ := body["data"].(map[string]interface{})
	fields, _ := data["fields"].(map[string]interface{})
	if fields["email"] != "Email is invalid" || fields["phone"] != "Phone number must be 10 digits" {
		t.Fatalf("unexpected fields: %v", data)
	}
	if _, ok := fields["name"]; ok {
		t.Fatalf("name should be valid")
	}
}

func TestPalettePassesSectionFilter(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		paletteFn: func(ctx context.Context, id, filter string) (*Palette, error) {
			if filter != "2" {
				t.Fatalf("expected filter 2, got %q", filter)
			}
			return &Palette{Filter: filter}, nil
		},
	}}
	req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/palette?section=2", nil), "id", "s1")
	rr := httptest.NewRecorder()

	h.Palette(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestGoToOutOfRange(t *testing.T) {
	h := &Handler{svc: &mockExamService{
		goToFn: func(ctx context.Context, id string, number int) (*SessionView, error) {
			return nil, ErrQuestionOutOfRange
		},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/goto/101", nil)
	req = withChiParam(req, "id", "s1")
	req = withChiParam(req, "no", "101")
	rr := httptest.NewRecorder()

	h.GoTo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRestartReturnsNextStep(t *testing.T) {
	called := false
	h := &Handler{svc: &mockExamService{
		restartFn: func(ctx context.Context, id string) error {
			called = true
			return nil
		},
	}}
	req := withChiParam(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/restart", nil), "id", "s1")
	rr := httptest.NewRecorder()

	h.Restart(rr, req)

	if rr.Code != http.StatusOK || !called {
		t.Fatalf("expected 200 and call, got %d called=%v", rr.Code, called)
	}
}
