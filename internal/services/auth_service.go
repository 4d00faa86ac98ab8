package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/glotta/agency-api/internal/config"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, rtRepo repository.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: rtRepo,
		cfg:              cfg,
	}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrAuthorization("invalid credentials")
	}
	if !user.IsActive() {
		return nil, ErrAuthorization("account is inactive or suspended")
	}
	if !VerifyPassword(password, user.EncryptedPassword) {
		return nil, ErrAuthorization("invalid credentials")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, ErrInternal(err)
	}
	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, ErrInternal(err)
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
	}, nil
}

// RefreshToken validates a refresh token and rotates it for new tokens
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrAuthorization("invalid refresh token")
	}
	if rt.IsExpired() {
		s.refreshTokenRepo.Delete(ctx, refreshToken)
		return nil, ErrAuthorization("refresh token expired")
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, wrapFind(err, "user")
	}
	if !user.IsActive() {
		return nil, ErrAuthorization("account is inactive or suspended")
	}

	s.refreshTokenRepo.Delete(ctx, refreshToken)

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, ErrInternal(err)
	}
	newRefreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, ErrInternal(err)
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: newRefreshToken,
		User:         user.ToResponse(),
	}, nil
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.Delete(ctx, refreshToken)
}

func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, userID uint) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(bytes)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	rt := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: &expiresAt,
	}
	if err := s.refreshTokenRepo.Create(ctx, rt); err != nil {
		return "", err
	}
	return token, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
