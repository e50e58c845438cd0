package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// AuthService handles staff sign-in and JWT issuance
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtSecret        string
	expirationHours  int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtSecret string,
	expirationHours int,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecret:        jwtSecret,
		expirationHours:  expirationHours,
	}
}

// TokenPair is the result of a successful sign-in or refresh
type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         models.User `json:"-"`
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidPassword
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.TouchLastSignIn(ctx, user.ID); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is invalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refreshTokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if stored.IsExpired() {
		_ = s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
		return nil, ErrUnauthorized
	}
	if !stored.User.Active {
		return nil, ErrUnauthorized
	}

	if err := s.refreshTokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, &stored.User)
}

// Logout revokes all refresh tokens of the user
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.DeleteByUser(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	expiresAt := time.Now().Add(time.Duration(s.expirationHours) * time.Hour)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.FullName,
		"role":    user.Role,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshExpiry := time.Now().Add(30 * 24 * time.Hour)
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: &refreshExpiry,
	}
	if err := s.refreshTokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
		User:         *user,
	}, nil
}
