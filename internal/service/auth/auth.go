package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
	"github.com/Alijeyrad/formora_backend/pkg/util/password"
)

const (
	minPasswordLen   = 8
	maxLoginAttempts = 5
	accountLockMins  = 15
)

func redisKeySession(sessionID string) string { return constants.SessionKeyPrefix + sessionID }

func redisKeyLoginAttempts(email string) string { return "login:attempts:" + email }

var validate = validator.New()

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SignUpRequest struct {
	Email    string
	Password string
	Name     string
}

type SignInRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

type AuthResult struct {
	User   repo.User
	Tokens AuthTokens
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	SignOut(ctx context.Context, sessionID uuid.UUID) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (repo.User, error)
}

// UserStore is the part of the repo the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u repo.User) (repo.User, error)
	GetUser(ctx context.Context, id string) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	TouchLogin(ctx context.Context, id string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	users  UserStore
	rdb    redis.Cmdable
	paseto *pasetotoken.Manager
	hasher *password.Hasher
	ttl    time.Duration
	// dummyHash is verified against when the email is unknown.
	dummyHash string
}

func New(users UserStore, rdb redis.Cmdable, paseto *pasetotoken.Manager, hasher *password.Hasher) (Service, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return &authService{
		users:     users,
		rdb:       rdb,
		paseto:    paseto,
		hasher:    hasher,
		ttl:       paseto.RefreshTTL(),
		dummyHash: dummy,
	}, nil
}

func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, repo.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	})
	if err != nil {
		if repo.IsConflict(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.createSession(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: *tokens}, nil
}

func (s *authService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	attempts, err := s.rdb.Get(ctx, redisKeyLoginAttempts(email)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get attempts: %w", err)
	}
	if attempts >= maxLoginAttempts {
		return nil, ErrAccountLocked
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			// spend the same time as a real check
			_ = s.hasher.Verify(s.dummyHash, req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}

	s.rdb.Del(ctx, redisKeyLoginAttempts(email))
	if err := s.users.TouchLogin(ctx, u.ID); err != nil {
		slog.Warn("failed to record sign in", "user_id", u.ID, "err", err)
	}
	if s.hasher.NeedsRehash(u.PasswordHash) {
		slog.Info("password hash uses outdated parameters", "user_id", u.ID)
	}

	tokens, err := s.createSession(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: *tokens}, nil
}

// Refresh issues a new access token. The refresh token stays valid until
// sign out, and each refresh extends the session.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redisKeySession(claims.SessionID.String())
	userID, err := s.rdb.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if userID != claims.UserID.String() {
		return nil, ErrInvalidToken
	}
	s.rdb.Expire(ctx, sessionKey, s.ttl)

	access, err := s.paseto.IssueAccess(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    s.accessExpiresIn(),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		slog.Debug("sign out: session already expired", "session_id", sessionID)
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (repo.User, error) {
	u, err := s.users.GetUser(ctx, userID.String())
	if err != nil {
		if repo.IsNotFound(err) {
			return repo.User{}, ErrUserNotFound
		}
		return repo.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, u repo.User) (*AuthTokens, error) {
	uid, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	sessionID := uuid.Must(uuid.NewV7())

	if err := s.rdb.Set(ctx, redisKeySession(sessionID.String()), u.ID, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	pair, err := s.paseto.IssuePair(uid, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthTokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(time.Until(pair.AccessExpiresAt).Seconds()),
	}, nil
}

func (s *authService) accessExpiresIn() int64 {
	return int64(s.paseto.AccessTTL().Seconds())
}

func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	key := redisKeyLoginAttempts(email)
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, accountLockMins*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("failed to record sign-in failure", "err", err)
	}
}
