package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	DefaultAdminEmail    = "admin@nmiet.edu"
	DefaultAdminPassword = "admin123"
	DefaultTokenTTL      = 8 * time.Hour

	RoleAdmin   = "admin"
	tokenIssuer = "mocktest"
)

type Admin struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type ServiceConfig struct {
	AdminEmail string
	// bcrypt hash; when empty the default password is hashed at startup
	AdminPasswordHash string
	JWTSecret         string
	TokenTTL          time.Duration
	LoginMaxFailures  int
	LoginLockDuration time.Duration
}

type Service struct {
	adminEmail   string
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration

	loginMaxFailures  int
	loginLockDuration time.Duration

	mu     sync.Mutex
	guards map[string]*loginGuard
	now    func() time.Time
}

type loginGuard struct {
	failures    int
	lockedUntil time.Time
}

func NewService(cfg ServiceConfig) (*Service, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		email = DefaultAdminEmail
	}
	hash := []byte(strings.TrimSpace(cfg.AdminPasswordHash))
	if len(hash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash default admin password: %w", err)
		}
		hash = generated
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.LoginMaxFailures <= 0 {
		cfg.LoginMaxFailures = 5
	}
	if cfg.LoginLockDuration <= 0 {
		cfg.LoginLockDuration = 15 * time.Minute
	}

	return &Service{
		adminEmail:        email,
		passwordHash:      hash,
		secret:            []byte(cfg.JWTSecret),
		tokenTTL:          cfg.TokenTTL,
		loginMaxFailures:  cfg.LoginMaxFailures,
		loginLockDuration: cfg.LoginLockDuration,
		guards:            make(map[string]*loginGuard),
		now:               time.Now,
	}, nil
}

// Authenticate checks the configured admin credential pair. Repeated failures
// for one email lock it out for the configured duration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.isLocked(email) {
		return nil, ErrRateLimited
	}

	if email != s.adminEmail {
		s.registerFailure(email)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.registerFailure(email)
		return nil, ErrInvalidCredentials
	}

	s.clearGuard(email)
	return &Admin{Email: email, Role: RoleAdmin}, nil
}

func (s *Service) IssueToken(admin *Admin) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		Email: admin.Email,
		Role:  admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   admin.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Service) ParseToken(token string) (*Admin, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return &Admin{Email: claims.Email, Role: claims.Role}, nil
}

func (s *Service) isLocked(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guards[key]
	if !ok {
		return false
	}
	return s.now().Before(g.lockedUntil)
}

func (s *Service) registerFailure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guards[key]
	if !ok {
		g = &loginGuard{}
		s.guards[key] = g
	}
	g.failures++
	if g.failures >= s.loginMaxFailures {
		g.failures = 0
		g.lockedUntil = s.now().Add(s.loginLockDuration)
	}
}

func (s *Service) clearGuard(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guards, key)
}
