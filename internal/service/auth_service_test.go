package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindWithUser(ctx context.Context, token string) (*model.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionCache is a mock implementation of SessionCacheInterface.
type MockSessionCache struct {
	mock.Mock
}

func (m *MockSessionCache) Store(ctx context.Context, token string, identity auth.CachedIdentity) error {
	args := m.Called(ctx, token, identity)
	return args.Error(0)
}

func (m *MockSessionCache) Get(ctx context.Context, token string) (*auth.CachedIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.CachedIdentity), args.Error(1)
}

func (m *MockSessionCache) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func newTestService(users *MockUserRepository, sessions *MockSessionRepository, cache *MockSessionCache) AuthService {
	return NewAuthService(users, sessions, auth.NewBcryptHasher(), cache, 7)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		inputName     string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockSessionRepository)
		expectedError error
	}{
		{
			name:      "successful signup",
			inputName: "Ann",
			email:     "ann@x.com",
			password:  "secret1",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "ann@x.com").Return(nil, gorm.ErrRecordNotFound)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				sessions.On("Create", mock.Anything, mock.AnythingOfType("*model.Session")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:      "email already taken",
			inputName: "Ann",
			email:     "ann@x.com",
			password:  "secret1",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "ann@x.com").Return(&model.User{Email: "ann@x.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:      "uppercase email collides with existing lowercase",
			inputName: "Ann",
			email:     "A@Foo.com",
			password:  "secret1",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "a@foo.com").Return(&model.User{Email: "a@foo.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionRepository)
			cache := new(MockSessionCache)
			tt.setupMock(users, sessions)

			svc := newTestService(users, sessions, cache)
			user, token, err := svc.Signup(context.Background(), tt.inputName, tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, "ann@x.com", user.Email)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.Len(t, token, 64)
			}

			users.AssertExpectations(t)
			sessions.AssertExpectations(t)
		})
	}
}

func TestAuthService_Signup_SessionIssuanceFails(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	cache := new(MockSessionCache)

	users.On("FindByEmail", mock.Anything, "ann@x.com").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	sessions.On("Create", mock.Anything, mock.AnythingOfType("*model.Session")).Return(errors.New("connection reset"))

	svc := newTestService(users, sessions, cache)
	user, token, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1")

	// the failure is internal, not a known domain error; the user row stays
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrEmailTaken)
	assert.Nil(t, user)
	assert.Empty(t, token)
	users.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*model.User"))
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	storedHash, err := hasher.Hash("password123")
	assert.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockSessionRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           1,
					Email:        "test@example.com",
					PasswordHash: storedHash,
				}, nil)
				sessions.On("Create", mock.Anything, mock.AnythingOfType("*model.Session")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(users *MockUserRepository, sessions *MockSessionRepository) {
				users.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           1,
					Email:        "test@example.com",
					PasswordHash: storedHash,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionRepository)
			cache := new(MockSessionCache)
			tt.setupMock(users, sessions)

			svc := newTestService(users, sessions, cache)
			user, token, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.Len(t, token, 64)
			}

			users.AssertExpectations(t)
			sessions.AssertExpectations(t)
		})
	}
}

// Unknown email and wrong password must be byte-for-byte the same error.
func TestAuthService_Login_UndifferentiatedFailure(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	storedHash, err := hasher.Hash("rightpassword")
	assert.NoError(t, err)

	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	cache := new(MockSessionCache)
	users.On("FindByEmail", mock.Anything, "known@example.com").Return(&model.User{
		ID:           1,
		Email:        "known@example.com",
		PasswordHash: storedHash,
	}, nil)
	users.On("FindByEmail", mock.Anything, "unknown@example.com").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestService(users, sessions, cache)

	_, _, errUnknown := svc.Login(context.Background(), "unknown@example.com", "whatever")
	_, _, errWrongPass := svc.Login(context.Background(), "known@example.com", "wrongpassword")

	assert.Equal(t, errUnknown, errWrongPass)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestAuthService_Logout(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	cache := new(MockSessionCache)

	cache.On("Delete", mock.Anything, "some-token").Return(nil)
	sessions.On("DeleteByToken", mock.Anything, "some-token").Return(nil)

	svc := newTestService(users, sessions, cache)

	// logout is idempotent: repeated calls and never-issued tokens succeed
	assert.NoError(t, svc.Logout(context.Background(), "some-token"))
	assert.NoError(t, svc.Logout(context.Background(), "some-token"))

	cache.AssertNumberOfCalls(t, "Delete", 2)
	sessions.AssertNumberOfCalls(t, "DeleteByToken", 2)
}

func TestAuthService_Authenticate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		token         string
		setupMock     func(*MockSessionRepository, *MockSessionCache)
		expectedError error
		expectedEmail string
	}{
		{
			name:  "cache hit",
			token: "cached-token",
			setupMock: func(sessions *MockSessionRepository, cache *MockSessionCache) {
				cache.On("Get", mock.Anything, "cached-token").Return(&auth.CachedIdentity{
					UserID:    1,
					Name:      "Ann",
					Email:     "ann@x.com",
					ExpiresAt: now.Add(time.Hour),
				}, nil)
			},
			expectedEmail: "ann@x.com",
		},
		{
			name:  "expired cache entry falls through to store",
			token: "stale-token",
			setupMock: func(sessions *MockSessionRepository, cache *MockSessionCache) {
				cache.On("Get", mock.Anything, "stale-token").Return(&auth.CachedIdentity{
					UserID:    1,
					Email:     "ann@x.com",
					ExpiresAt: now.Add(-time.Second),
				}, nil)
				sessions.On("FindWithUser", mock.Anything, "stale-token").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidSession,
		},
		{
			name:  "store hit",
			token: "db-token",
			setupMock: func(sessions *MockSessionRepository, cache *MockSessionCache) {
				cache.On("Get", mock.Anything, "db-token").Return(nil, nil)
				sessions.On("FindWithUser", mock.Anything, "db-token").Return(&model.Session{
					UserID:       2,
					SessionToken: "db-token",
					ExpiresAt:    now.Add(24 * time.Hour),
					User: &model.User{
						ID:    2,
						Name:  "Bob",
						Email: "bob@x.com",
					},
				}, nil)
				cache.On("Store", mock.Anything, "db-token", mock.AnythingOfType("auth.CachedIdentity")).Return(nil)
			},
			expectedEmail: "bob@x.com",
		},
		{
			name:  "unknown or expired token",
			token: "bad-token",
			setupMock: func(sessions *MockSessionRepository, cache *MockSessionCache) {
				cache.On("Get", mock.Anything, "bad-token").Return(nil, nil)
				sessions.On("FindWithUser", mock.Anything, "bad-token").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidSession,
		},
		{
			name:  "store failure is not unauthenticated",
			token: "any-token",
			setupMock: func(sessions *MockSessionRepository, cache *MockSessionCache) {
				cache.On("Get", mock.Anything, "any-token").Return(nil, nil)
				sessions.On("FindWithUser", mock.Anything, "any-token").Return(nil, errors.New("connection refused"))
			},
			expectedError: nil, // checked separately below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionRepository)
			cache := new(MockSessionCache)
			tt.setupMock(sessions, cache)

			svc := newTestService(users, sessions, cache)
			identity, err := svc.Authenticate(context.Background(), tt.token)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, identity)
			case tt.expectedEmail != "":
				assert.NoError(t, err)
				assert.NotNil(t, identity)
				assert.Equal(t, tt.expectedEmail, identity.Email)
				assert.Equal(t, tt.token, identity.Token)
			default:
				// store failure: internal error, never ErrInvalidSession
				assert.Error(t, err)
				assert.NotErrorIs(t, err, apperrors.ErrInvalidSession)
				assert.Nil(t, identity)
			}

			sessions.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	cache := new(MockSessionCache)

	users.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Email: "ann@x.com"}, nil)
	users.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestService(users, sessions, cache)

	user, err := svc.CurrentUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "ann@x.com", user.Email)

	user, err = svc.CurrentUser(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Nil(t, user)
}
