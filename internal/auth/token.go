package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of identity-provider claims the service reads.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"cognito:username,omitempty"`
	Groups   []string `json:"cognito:groups"`
}

const AccessTokenTTL = time.Hour

// GenerateAccessToken signs an HS256 token carrying username and groups.
func GenerateAccessToken(username string, groups []string, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Groups:   groups,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an HMAC-signed JWT and returns its claims.
func ParseAccessToken(tokenStr string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// UserFromClaims builds a user whose groups are already resolved.
func UserFromClaims(c *Claims, token string) *User {
	username := c.Username
	if username == "" {
		username = c.Subject
	}
	groups := c.Groups
	if groups == nil {
		groups = []string{}
	}
	return &User{Username: username, Groups: groups, Token: token}
}
