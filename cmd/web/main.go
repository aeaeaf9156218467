package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mocktest/internal/app"
)

func main() {
	cfg := app.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.NewDeps(ctx, cfg)
	if err != nil {
		log.Printf("startup error: %v", err)
		os.Exit(1)
	}
	defer deps.Close()

	go pruneSessions(ctx, deps, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("mocktest web listening on %s (storage=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}

// pruneSessions drops abandoned in-process sessions and stale login rate-limit
// windows; stored submissions are kept.
func pruneSessions(ctx context.Context, deps *app.Deps, cfg app.Config) {
	ticker := time.NewTicker(cfg.SessionPruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions, buckets := deps.Prune(cfg.SessionTTL)
			if sessions > 0 || buckets > 0 {
				log.Printf("pruned %d idle sessions, %d login rate-limit windows", sessions, buckets)
			}
		}
	}
}
