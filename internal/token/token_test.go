package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func TestIssueAndVerify(t *testing.T) {
	manager := New(testSecret, time.Hour)

	tokenString, err := manager.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userID, err := manager.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyExpired(t *testing.T) {
	manager := New(testSecret, -time.Minute)

	tokenString, err := manager.Issue(7)
	require.NoError(t, err)

	_, err = manager.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := New(testSecret, time.Hour)
	verifier := New([]byte("a-different-secret"), time.Hour)

	tokenString, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	manager := New(testSecret, time.Hour)

	for _, tokenString := range []string{"", "not-a-token", "a.b"} {
		_, err := manager.Verify(tokenString)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", tokenString)
	}
}
