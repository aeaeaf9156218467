package app

import (
	"net/http"
	"time"

	"mocktest/internal/app/observability"
	"mocktest/internal/auth"
	"mocktest/internal/exam"
	"mocktest/internal/question"
	"mocktest/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", csrfHeaderName},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	collector := observability.NewCollector(deps.DB, deps.Sessions.Len)
	r.Use(collector.Middleware)
	r.Use(EnsureCSRFCookie(cfg.SecureCookies))
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	authHandler := auth.NewHandler(deps.Auth, cfg.SecureCookies)
	examHandler := exam.NewHandler(deps.Exam)
	questionHandler := question.NewHandler(deps.Questions)
	reportHandler := report.NewHandler(deps.Results)
	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/sessions", examHandler.Start)
		api.Route("/sessions/{id}", func(s chi.Router) {
			s.Get("/", examHandler.Get)
			s.Get("/questions/{no}", examHandler.GetQuestion)
			s.Put("/answers/{no}", examHandler.SelectOption)
			s.Post("/goto/{no}", examHandler.GoTo)
			s.Post("/next", examHandler.Next)
			s.Post("/prev", examHandler.Prev)
			s.Get("/palette", examHandler.Palette)
			s.Post("/submit", examHandler.RequestSubmit)
			s.Post("/submit/cancel", examHandler.CancelSubmit)
			s.Post("/submit/confirm", examHandler.ConfirmSubmit)
			s.Post("/identify", examHandler.Identify)
			s.Get("/result", examHandler.Result)
			s.Post("/restart", examHandler.Restart)
		})

		api.With(RateLimitMiddleware(loginLimiter)).Post("/admin/login", authHandler.Login)
		api.Post("/admin/logout", authHandler.Logout)

		api.Group(func(admin chi.Router) {
			admin.Use(authHandler.RequireAdmin)
			admin.Get("/admin/me", authHandler.Me)

			admin.Get("/admin/questions", questionHandler.ListQuestions)
			admin.Post("/admin/questions", questionHandler.CreateQuestion)
			admin.Get("/admin/questions/export", questionHandler.ExportQuestions)
			admin.Post("/admin/questions/import", questionHandler.ImportQuestions)
			admin.Put("/admin/questions/{id}", questionHandler.UpdateQuestion)
			admin.Delete("/admin/questions/{id}", questionHandler.DeleteQuestion)

			admin.Get("/admin/sections", questionHandler.ListSections)
			admin.Post("/admin/sections", questionHandler.CreateSection)
			admin.Put("/admin/sections/{id}", questionHandler.RenameSection)

			admin.Get("/admin/results", reportHandler.List)
			admin.Get("/admin/results/summary", reportHandler.Summary)
			admin.Get("/admin/results/export", reportHandler.Export)
		})
	})

	return r
}
