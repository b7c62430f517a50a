package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"hdcn-access/internal/logging"
)

// Claims read from identity-provider tokens.
const (
	GroupsClaim   = "cognito:groups"
	UsernameClaim = "cognito:username"
)

// User is the identity handed to permission checks. Groups, when set, has
// already been resolved and wins over the session and token.
type User struct {
	Username string   `json:"username,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	Token    string   `json:"-"`
	Session  *Session `json:"-"`
}

// Session mirrors the identity provider session object.
type Session struct {
	AccessToken *AccessToken
}

// AccessToken holds the raw JWT and, when available, its decoded payload.
type AccessToken struct {
	JWTToken string
	Payload  map[string]any
}

var (
	ErrInvalidAuthHeader = errors.New("invalid auth header format")
	errNoGroups          = errors.New("no groups claim")
)

// GetUserRoles returns the role groups of u. It never fails: a nil user, a
// missing claim or an undecodable token all yield an empty slice.
func GetUserRoles(u *User) []string {
	if u == nil {
		return []string{}
	}
	if u.Groups != nil {
		return u.Groups
	}

	var tokens []string
	if s := u.Session; s != nil && s.AccessToken != nil {
		if groups, ok := groupsFromClaim(s.AccessToken.Payload[GroupsClaim]); ok {
			return groups
		}
		tokens = append(tokens, s.AccessToken.JWTToken)
	}
	tokens = append(tokens, u.Token)

	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		groups, err := GroupsFromToken(tok)
		if err != nil {
			logging.Debug("no roles from token", zap.String("user", u.Username), zap.Error(err))
			continue
		}
		return groups
	}
	return []string{}
}

// GroupsFromToken reads the groups claim from a JWT without verifying its
// signature. Tokens the jwt parser rejects are decoded by hand.
func GroupsFromToken(token string) ([]string, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}
	groups, ok := groupsFromClaim(claims[GroupsClaim])
	if !ok {
		return nil, errNoGroups
	}
	return groups, nil
}

// UsernameFromToken returns the username claim of token, falling back to
// sub. It returns "" for tokens that cannot be decoded.
func UsernameFromToken(token string) string {
	claims, err := DecodeClaims(token)
	if err != nil {
		return ""
	}
	if name, ok := claims[UsernameClaim].(string); ok && name != "" {
		return name
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// UserFromBearer builds an unverified user from an Authorization header of
// the form "Bearer <token>". Roles are read from the token on demand.
func UserFromBearer(header string) (*User, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, ErrInvalidAuthHeader
	}
	return &User{Username: UsernameFromToken(token), Token: token}, nil
}

// DecodeClaims returns the payload of token without verifying it.
func DecodeClaims(token string) (map[string]any, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		return claims, nil
	}
	return decodePayload(token)
}

func decodePayload(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token has %d segments, want 3", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decode token payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse token payload: %w", err)
	}
	return payload, nil
}

func groupsFromClaim(v any) ([]string, bool) {
	switch g := v.(type) {
	case []string:
		return g, true
	case []any:
		out := make([]string, 0, len(g))
		for _, item := range g {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
