package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/models"
)

func newTestAuthService(userRepo *mockUserRepository, rtRepo *mockRefreshTokenRepository) *AuthService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1}
	return NewAuthService(userRepo, rtRepo, cfg)
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	assert.NoError(t, err)
	return &models.User{
		ID:                7,
		Email:             "finance@glotta.app",
		EncryptedPassword: hash,
		FullName:          "Zhang Wei",
		Role:              models.RoleFinance,
		Status:            models.StatusActive,
	}
}

func TestLogin(t *testing.T) {
	user := activeUser(t, "correct horse")
	userRepo := &mockUserRepository{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	rtRepo := &mockRefreshTokenRepository{}
	svc := newTestAuthService(userRepo, rtRepo)

	result, err := svc.Login(context.Background(), user.Email, "correct horse")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.Email, result.User.Email)

	_, err = svc.Login(context.Background(), user.Email, "wrong password")
	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
}

func TestLoginSuspendedUser(t *testing.T) {
	user := activeUser(t, "correct horse")
	user.Status = models.StatusSuspended
	userRepo := &mockUserRepository{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(userRepo, &mockRefreshTokenRepository{})

	_, err := svc.Login(context.Background(), user.Email, "correct horse")
	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	user := activeUser(t, "correct horse")
	userRepo := &mockUserRepository{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return user, nil
		},
	}
	rtRepo := &mockRefreshTokenRepository{}
	svc := newTestAuthService(userRepo, rtRepo)

	login, err := svc.Login(context.Background(), user.Email, "correct horse")
	assert.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is consumed by the rotation.
	_, err = svc.RefreshToken(context.Background(), login.RefreshToken)
	assert.Error(t, err)
}

func TestRefreshTokenExpired(t *testing.T) {
	user := activeUser(t, "correct horse")
	userRepo := &mockUserRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return user, nil
		},
	}
	expired := time.Now().Add(-time.Hour)
	rtRepo := &mockRefreshTokenRepository{tokens: map[string]*models.RefreshToken{
		"stale": {UserID: user.ID, Token: "stale", ExpiresAt: &expired},
	}}
	svc := newTestAuthService(userRepo, rtRepo)

	_, err := svc.RefreshToken(context.Background(), "stale")
	assert.Error(t, err)
	assert.Equal(t, CodeAuthorization, AsServiceError(err).Code)
	assert.NotContains(t, rtRepo.tokens, "stale")
}

func TestVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	assert.NoError(t, err)
	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("other", hash))
}
