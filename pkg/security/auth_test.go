package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/config"
)

func testAuth() *Auth {
	return New(&config.SecurityConfig{
		Enabled:      true,
		JWTSecret:    "test-secret",
		APIKeyHeader: "X-API-Key",
		APIKeys:      []string{"key-one", "key-two"},
	})
}

// Test API key comparison
func TestValidAPIKey(t *testing.T) {
	a := testAuth()

	assert.True(t, a.validAPIKey("key-one"))
	assert.True(t, a.validAPIKey("key-two"))
	assert.False(t, a.validAPIKey("key-three"))
	assert.False(t, a.validAPIKey(""))
}

// Test token issue and verify round trip
func TestTokenRoundTrip(t *testing.T) {
	a := testAuth()

	token, err := a.IssueToken("service-account", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := a.verifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "service-account", subject)
}

// Test expired tokens are rejected
func TestExpiredToken(t *testing.T) {
	a := testAuth()

	token, err := a.IssueToken("service-account", -time.Minute)
	require.NoError(t, err)

	_, err = a.verifyToken(token)
	assert.Error(t, err)
}

// Test tokens signed with another secret are rejected
func TestForeignToken(t *testing.T) {
	other := New(&config.SecurityConfig{JWTSecret: "other-secret"})
	token, err := other.IssueToken("intruder", time.Minute)
	require.NoError(t, err)

	_, err = testAuth().verifyToken(token)
	assert.Error(t, err)
}

// Test garbage tokens are rejected
func TestMalformedToken(t *testing.T) {
	_, err := testAuth().verifyToken("not.a.token")
	assert.Error(t, err)
}
