package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageMemory keeps bank and results in process instead of a database.
const StorageMemory = "memory"

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	HTTPAddr          string
	DBDriver          string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifeMins int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	BankSize          int
	SessionTTL        time.Duration
	SessionPruneEvery time.Duration

	AdminEmail        string
	AdminPassHash     string
	JWTSecret         string
	TokenTTL          time.Duration
	LoginMaxFailures  int
	LoginLockDuration time.Duration
	SecureCookies     bool

	CORSOrigins         []string
	CSRFEnforced        bool
	AuthRateLimitPerMin int
}

func LoadConfig() Config {
	appEnv := envOrDefault("APP_ENV", "development")
	return Config{
		AppEnv:            appEnv,
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		DBDriver:          strings.ToLower(envOrDefault("DB_DRIVER", "sqlite")),
		DBDSN:             os.Getenv("DB_DSN"),
		DBMaxOpenConns:    intOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    intOrDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMins: intOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       nonNegativeIntOrDefault("REDIS_DB", 0),
		RedisPrefix:   envOrDefault("REDIS_PREFIX", "mocktest:"),

		BankSize:          intOrDefault("BANK_SIZE", 100),
		SessionTTL:        time.Duration(intOrDefault("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
		SessionPruneEvery: time.Duration(intOrDefault("SESSION_PRUNE_MINUTES", 10)) * time.Minute,

		AdminEmail:        envOrDefault("ADMIN_EMAIL", "admin@nmiet.edu"),
		AdminPassHash:     os.Getenv("ADMIN_PASS_HASH"),
		JWTSecret:         envOrDefault("JWT_SECRET", "mocktest-dev-secret"),
		TokenTTL:          time.Duration(intOrDefault("TOKEN_TTL_MINUTES", 8*60)) * time.Minute,
		LoginMaxFailures:  intOrDefault("LOGIN_MAX_FAILURES", 5),
		LoginLockDuration: time.Duration(intOrDefault("LOGIN_LOCK_MINUTES", 15)) * time.Minute,
		SecureCookies:     boolOrDefault("SECURE_COOKIES", appEnv == "production"),

		CORSOrigins:         csvOrDefault("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		CSRFEnforced:        boolOrDefault("CSRF_ENFORCED", false),
		AuthRateLimitPerMin: intOrDefault("AUTH_RATE_LIMIT_PER_MINUTE", 60),
	}
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsToInt(v string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func intOrDefault(key string, fallback int) int {
	v := stringsToInt(os.Getenv(key))
	if v <= 0 {
		return fallback
	}
	return v
}

func nonNegativeIntOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func boolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func csvOrDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
