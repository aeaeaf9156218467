package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mocktest/internal/app/apiresp"
)

type contextKey string

const adminContextKey contextKey = "auth_admin"

const sessionCookieName = "mocktest_admin"

type Handler struct {
	svc *Service
	// Secure flag on the session cookie
	secureCookie bool
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Admin     *Admin    `json:"admin"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	admin, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimited):
			writeJSON(w, r, http.StatusTooManyRequests, apiResponse{OK: false, Error: "too many attempts"})
		case errors.Is(err, ErrInvalidCredentials):
			writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "Invalid credentials"})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}

	token, expiresAt, err := h.svc.IssueToken(admin)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "cannot create session"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: loginResponse{Admin: admin, Token: token, ExpiresAt: expiresAt}})
}

// Logout only drops the cookie; issued tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "logged_out"}})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := CurrentAdmin(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: admin})
}

// RequireAdmin accepts the session cookie or an Authorization bearer token.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := h.svc.ParseToken(readToken(r))
		if err != nil {
			writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), admin)))
	})
}

func CurrentAdmin(ctx context.Context) (*Admin, bool) {
	v := ctx.Value(adminContextKey)
	if v == nil {
		return nil, false
	}
	a, ok := v.(*Admin)
	return a, ok
}

// ContextWithAdmin injects an authenticated admin into context.
// Useful for tests and internal handlers.
func ContextWithAdmin(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

func readToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
