package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestSignAndValidateToken(t *testing.T) {
	token, err := SignToken("u1", "asha@example.in", "ADMIN", testSecret, 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "asha@example.in", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestValidateToken(t *testing.T) {
	valid, err := SignToken("u1", "a@b.in", "CUSTOMER", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := SignToken("u1", "a@b.in", "CUSTOMER", testSecret, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{name: "Valid token", token: valid, secret: testSecret},
		{name: "Wrong secret", token: valid, secret: "secret2", wantErr: true},
		{name: "Expired token", token: expired, secret: testSecret, wantErr: true},
		{name: "Malformed token", token: "invalid.token.here", secret: testSecret, wantErr: true},
		{name: "Empty token", token: "", secret: testSecret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}

func TestInspectToken_IgnoresSignature(t *testing.T) {
	token, err := SignToken("u7", "x@y.in", "CUSTOMER", "some-other-secret", time.Hour)
	require.NoError(t, err)

	claims, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u7", claims.UserID)

	_, err = InspectToken("opaque-session-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	fresh, err := SignToken("u1", "a@b.in", "CUSTOMER", testSecret, time.Hour)
	require.NoError(t, err)
	stale, err := SignToken("u1", "a@b.in", "CUSTOMER", testSecret, -time.Minute)
	require.NoError(t, err)

	assert.False(t, TokenExpired(fresh, now))
	assert.True(t, TokenExpired(stale, now))
	assert.False(t, TokenExpired("opaque-session-token", now))
}
