package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingStaffID   = errors.New("missing staff_id in claims")
)

// Claims carries the staff identity inside access tokens. The staff ID
// is what correction and cancellation audit rows record as performed_by.
type Claims struct {
	jwt.RegisteredClaims
	StaffID string `json:"staff_id"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
}

// StaffIDAsUUID parses the staff ID claim
func (c *Claims) StaffIDAsUUID() (uuid.UUID, error) {
	if c.StaffID == "" {
		return uuid.Nil, ErrMissingStaffID
	}
	id, err := uuid.Parse(c.StaffID)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	StaffID uuid.UUID
	Name    string
	Role    string
}

// Token is a signed access token with its expiry
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// GenerateToken generates a signed access token for a staff member
func (s *JWTService) GenerateToken(input GenerateTokenInput) (*Token, error) {
	if input.StaffID == uuid.Nil {
		return nil, ErrMissingStaffID
	}

	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.StaffID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		StaffID: input.StaffID.String(),
		Name:    input.Name,
		Role:    input.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken validates an access token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.StaffID == "" {
		return nil, ErrMissingStaffID
	}

	return claims, nil
}
