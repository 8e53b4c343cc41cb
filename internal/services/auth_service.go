package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carrental/internal/common"
	"carrental/internal/logger"
	"carrental/internal/models"
	"carrental/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	tokenIssuer       = "carrental-auth"
)

// AuthService handles registration, login and the JWT access/refresh pair.
type AuthService interface {
	Register(ctx context.Context, in *models.RegisterInput) (*models.AuthResponse, error)
	Login(ctx context.Context, in *models.LoginInput) (*models.AuthResponse, error)
	// Refresh rotates both tokens. rawRefreshToken must match the hash
	// stored at the last login, register or refresh.
	Refresh(ctx context.Context, rawRefreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ParseAccessToken(token string) (*TokenClaims, error)
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      AuthConfig
	log      *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{userRepo: userRepo, cfg: cfg, log: logger.WithService("auth")}
}

func (s *authService) Register(ctx context.Context, in *models.RegisterInput) (*models.AuthResponse, error) {
	if err := common.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, common.Validation("password must be at least %d characters", minPasswordLength)
	}
	if err := common.ValidateRequiredString(in.FirstName, "firstName", 100); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(in.LastName, "lastName", 100); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID)

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{TokenPair: *pair, User: user}, nil
}

func (s *authService) Login(ctx context.Context, in *models.LoginInput) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Warn("login failed", "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.log.Warn("login failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{TokenPair: *pair, User: user}, nil
}

func (s *authService) Refresh(ctx context.Context, rawRefreshToken string) (*models.TokenPair, error) {
	claims, err := s.parse(rawRefreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if user.RefreshTokenHash == nil || !tokenHashMatches(*user.RefreshTokenHash, rawRefreshToken) {
		s.log.Warn("refresh token rejected", "user_id", user.ID)
		return nil, common.Forbidden("access denied")
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return err
	}
	s.log.Info("user logged out", "user_id", userID)
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *authService) ParseAccessToken(token string) (*TokenClaims, error) {
	return s.parse(token, s.cfg.AccessSecret)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	access, err := s.sign(user, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	hash := hashToken(refresh)
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTTL.Seconds()),
	}, nil
}

func (s *authService) sign(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

func (s *authService) parse(token, secret string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// hashToken creates a SHA-256 hash of the token for secure storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenHashMatches(storedHash, token string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashToken(token))) == 1
}
