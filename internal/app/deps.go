package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"mocktest/internal/auth"
	"mocktest/internal/db"
	"mocktest/internal/exam"
	"mocktest/internal/question"
	"mocktest/internal/report"

	"github.com/go-redis/redis/v8"
)

// Deps holds the services the router mounts. DB is nil when running on
// in-memory storage.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	Questions *question.Service
	Results   *report.Service
	Exam      *exam.Service
	Sessions  *exam.Registry
	Auth      *auth.Service
	// LoginLimiter throttles POST /admin/login per client address.
	LoginLimiter *IPRateLimiter
}

// Close releases the database and redis connections.
func (d *Deps) Close() {
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// NewDeps opens storage, seeds an empty bank and builds every service.
func NewDeps(ctx context.Context, cfg Config) (*Deps, error) {
	d := &Deps{}

	var questionRepo question.Repository
	var resultRepo report.ResultRepository
	if cfg.DBDriver == StorageMemory {
		questionRepo = question.NewMemoryRepository()
		resultRepo = report.NewMemoryRepository()
	} else {
		conn, err := db.OpenWithConfig(ctx, cfg.DBDriver, cfg.DBDSN, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
		})
		if err != nil {
			return nil, err
		}
		d.DB = conn
		questionRepo = question.NewSQLRepository(conn)
		resultRepo = report.NewSQLRepository(conn)
	}

	seeded, err := question.Seed(ctx, questionRepo, cfg.BankSize)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("seed question bank: %w", err)
	}
	if seeded > 0 {
		log.Printf("seeded question bank with %d questions", seeded)
	}
	if err := report.SeedResults(ctx, resultRepo); err != nil {
		d.Close()
		return nil, fmt.Errorf("seed results: %w", err)
	}

	kv, err := d.candidateKV(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}

	authSvc, err := auth.NewService(auth.ServiceConfig{
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPassHash,
		JWTSecret:         cfg.JWTSecret,
		TokenTTL:          cfg.TokenTTL,
		LoginMaxFailures:  cfg.LoginMaxFailures,
		LoginLockDuration: cfg.LoginLockDuration,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Questions = question.NewService(questionRepo)
	d.Results = report.NewService(resultRepo)
	d.Sessions = exam.NewRegistry()
	d.Exam = exam.NewService(d.Questions, d.Sessions, exam.NewCandidateStore(kv), d.Results)
	d.Auth = authSvc
	d.LoginLimiter = NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)
	return d, nil
}

// Prune drops sessions idle for longer than sessionTTL and expired login
// rate-limit windows.
func (d *Deps) Prune(sessionTTL time.Duration) (sessions, buckets int) {
	sessions = d.Exam.PruneSessions(sessionTTL)
	if d.LoginLimiter != nil {
		buckets = d.LoginLimiter.Prune()
	}
	return sessions, buckets
}

// candidateKV picks redis when REDIS_ADDR is set, else the in-process map.
func (d *Deps) candidateKV(ctx context.Context, cfg Config) (exam.KV, error) {
	if cfg.RedisAddr == "" {
		return exam.NewMemoryKV(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	d.Redis = client
	return exam.NewRedisKV(client, cfg.RedisPrefix, cfg.SessionTTL), nil
}
