package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/model"
	"gatehouse/internal/repository"
)

// dummyPasswordHash is verified against when the email is unknown, so login
// takes the same time whether or not the account exists. It is a valid
// bcrypt hash (cost 10) of a throwaway string, not a credential.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Identity is the authenticated principal the gate attaches to a request.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// AuthService handles signup, login, logout, and session resolution.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Identity, error)
	CurrentUser(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	hasher      auth.PasswordHasher
	cache       auth.SessionCacheInterface
	sessionDays int
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher auth.PasswordHasher,
	cache auth.SessionCacheInterface,
	sessionDays int,
) AuthService {
	if sessionDays <= 0 {
		sessionDays = auth.DefaultSessionDays
	}
	return &authService{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		cache:       cache,
		sessionDays: sessionDays,
	}
}

// NormalizeEmail lowercases and trims an email address. Uniqueness and login
// lookups are defined over the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new user and issues a session for it.
func (s *authService) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	email = NormalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, "", apperrors.ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check email availability: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	// The user row stays if session issuance fails: a retried login will
	// succeed, so this surfaces as an internal error rather than rolling back.
	token, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a new session. An unknown email and
// a wrong password produce the identical error.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = NormalizeEmail(email)

	user, lookupErr := s.users.FindByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, gorm.ErrRecordNotFound):
		// keep the dummy hash so verification cost is paid either way
	default:
		return nil, "", fmt.Errorf("find user by email: %w", lookupErr)
	}

	valid, err := s.hasher.Verify(password, targetHash)
	if err != nil && userExists {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !userExists || !valid {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the session bound to the token. Unknown tokens succeed;
// logout is idempotent.
func (s *authService) Logout(ctx context.Context, token string) error {
	_ = s.cache.Delete(ctx, token)
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a token to an identity, or fails with
// ErrInvalidSession for missing, expired, and revoked tokens alike.
func (s *authService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if cached, _ := s.cache.Get(ctx, token); cached != nil {
		// cached entries embed the expiry; never trust one past it
		if cached.ExpiresAt.After(time.Now()) {
			return &Identity{
				ID:    cached.UserID,
				Name:  cached.Name,
				Email: cached.Email,
				Token: token,
			}, nil
		}
	}

	session, err := s.sessions.FindWithUser(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidSession
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	_ = s.cache.Store(ctx, token, auth.CachedIdentity{
		UserID:    session.User.ID,
		Name:      session.User.Name,
		Email:     session.User.Email,
		ExpiresAt: session.ExpiresAt,
	})

	return &Identity{
		ID:    session.User.ID,
		Name:  session.User.Name,
		Email: session.User.Email,
		Token: token,
	}, nil
}

// CurrentUser loads the full profile for an authenticated user.
func (s *authService) CurrentUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *authService) issueSession(ctx context.Context, userID uint) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	session := &model.Session{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    auth.Expiration(time.Now(), s.sessionDays),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}
