package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundtrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("staff@sunrise.org", "sunrise", "sess-123", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "staff@sunrise.org", claims.Email)
	assert.Equal(t, "sunrise", claims.AgencyID)
	assert.Equal(t, "sess-123", claims.SessionID)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("staff@sunrise.org", "sunrise", "sess-123", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = Parse(tampered)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-one")
	token, err := Sign("staff@sunrise.org", "sunrise", "sess-123", time.Hour)
	require.NoError(t, err)

	SetSecret("secret-two")
	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("staff@sunrise.org", "sunrise", "sess-123", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}
