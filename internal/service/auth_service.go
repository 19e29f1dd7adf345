package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/metrics"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	// ErrUnauthorized is the single error kind for every bearer token failure.
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	errTokenMissing   = errors.New("no token provided")
	errTokenMalformed = errors.New("invalid token format")
	errTokenInvalid   = errors.New("invalid token")
)

// Claims extends JWT standard claims with the user identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"id"`
}

// AuthService handles registration, login, password hashing and JWTs.
type AuthService struct {
	cfg     *config.Config
	users   UserStore
	metrics metrics.Recorder
	log     zerolog.Logger

	// dummyHash is compared against when the username does not exist so a
	// missing user costs the same bcrypt work as a wrong password.
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, rec metrics.Recorder, log zerolog.Logger) *AuthService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	s := &AuthService{
		cfg:     cfg,
		users:   users,
		metrics: rec,
		log:     log.With().Str("component", "auth_service").Logger(),
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("quizboard-timing-guard"), s.cost())
	return s
}

func (s *AuthService) cost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account. The returned user carries no password data.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		s.metrics.RecordRegistration(false)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.RecordRegistration(false)
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordRegistration(true)
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a signed token.
// A missing user and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.metrics.RecordLogin(metrics.LoginFailure)
			return "", ErrInvalidCredentials
		}
		s.metrics.RecordLogin(metrics.LoginError)
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		s.metrics.RecordLogin(metrics.LoginFailure)
		return "", err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return "", err
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	return token, nil
}

// GenerateToken signs an HS256 JWT for userID. Without a configured expiry the
// token stays valid until the signing secret changes.
func (s *AuthService) GenerateToken(userID int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.Itoa(userID),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if s.cfg.JWTExpiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// Authenticate classifies an Authorization header value. Every failure is
// ErrUnauthorized; the wrapped reason is for server-side logs only.
func (s *AuthService) Authenticate(authHeader string) (*Claims, error) {
	if authHeader == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errTokenMissing)
	}

	scheme, tokenStr, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || tokenStr == "" || strings.Contains(tokenStr, " ") {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errTokenMalformed)
	}

	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUnauthorized, errTokenInvalid, err)
	}
	return claims, nil
}
