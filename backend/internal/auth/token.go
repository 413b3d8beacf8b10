package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/shared"
)

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	staffTTL time.Duration
}

// NewTokenService builds a TokenService from the security config
func NewTokenService(cfg shared.SecurityConfig) *TokenService {
	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	staffTTL := cfg.StaffTokenTTL
	if staffTTL <= 0 {
		staffTTL = 8 * time.Hour
	}
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		ttl:      ttl,
		staffTTL: staffTTL,
	}
}

// Issue signs a token for the user. Staff tokens use the shorter staff TTL.
func (t *TokenService) Issue(userID, email, role string) (string, time.Time, error) {
	now := time.Now()
	ttl := t.ttl
	if role == shared.RoleStaff {
		ttl = t.staffTTL
	}
	expiresAt := now.Add(ttl)

	claims := CustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens unique even when issued in the same second
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry and returns the claims. Every
// failure is reported as Unauthenticated.
func (t *TokenService) Parse(tokenString string) (*CustomClaims, error) {
	if tokenString == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	if claims.UserID == "" || claims.Role == "" {
		return nil, status.Error(codes.Unauthenticated, "invalid token claims")
	}
	return claims, nil
}
