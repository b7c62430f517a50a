package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	tok, err := GenerateAccessToken("jan", []string{"Members_Read", "Regio_Oost"}, "s3cret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(tok, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "jan", claims.Username)
	assert.Equal(t, []string{"Members_Read", "Regio_Oost"}, claims.Groups)

	_, err = ParseAccessToken(tok, "other")
	assert.Error(t, err)

	groups, err := GroupsFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, claims.Groups, groups, "unverified decode reads the same claim")
}

func TestParseAccessToken_DefaultTTLAndBadSignature(t *testing.T) {
	tok, err := GenerateAccessToken("jan", nil, "s3cret", -time.Minute)
	require.NoError(t, err)
	// non-positive ttl falls back to the default, so the token is valid
	_, err = ParseAccessToken(tok, "s3cret")
	require.NoError(t, err)

	_, err = ParseAccessToken(fakeToken(`{"alg":"HS256"}`, `{"exp":1}`), "s3cret")
	assert.Error(t, err)
}

func TestUserFromClaims(t *testing.T) {
	u := UserFromClaims(&Claims{}, "tok")
	assert.Equal(t, []string{}, u.Groups)
	assert.Equal(t, []string{}, GetUserRoles(u))

	c := &Claims{Groups: []string{"hdcnLeden"}}
	c.Subject = "sub-1"
	u = UserFromClaims(c, "tok")
	assert.Equal(t, "sub-1", u.Username)
	assert.Equal(t, "tok", u.Token)
}
