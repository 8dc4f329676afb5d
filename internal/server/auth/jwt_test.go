package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("dev-123", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := GetDeviceIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "dev-123", id)
}

func TestGetDeviceIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("dev-123", []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = GetDeviceIDFromToken(token, []byte("wrong"))
	assert.Error(t, err)
}

func TestGetDeviceIDFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("dev-123", []byte("s"), -time.Minute)
	require.NoError(t, err)

	_, err = GetDeviceIDFromToken(token, []byte("s"))
	assert.Error(t, err)
}

func TestGetDeviceIDFromToken_Garbage(t *testing.T) {
	_, err := GetDeviceIDFromToken("not-a-token", []byte("s"))
	assert.Error(t, err)
}
