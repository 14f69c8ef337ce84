package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultTokenTTL is the lifetime of tokens issued by GenerateToken when no
// ttl is given.
const DefaultTokenTTL = 24 * time.Hour

const tokenIssuer = "amo-catalog"

// Claims are the JWT claims of an API token.
type Claims struct {
	UserID uint64 `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims satisfy one of roles. Admins satisfy every role.
func (c *Claims) HasRole(roles ...string) bool {
	if len(roles) == 0 || c.Role == RoleAdmin {
		return true
	}
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

// GenerateToken issues an HS256 token for userID with role.
func GenerateToken(secret string, userID uint64, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if role != RoleAdmin && role != RoleUser {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrForbidden)
	}
	return claims, nil
}
