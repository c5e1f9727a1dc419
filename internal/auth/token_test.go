package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamio/audio-tour-api/internal/model"
)

const testSecret = "test-secret"

func testUser() model.User {
	return model.User{
		ID:               42,
		Email:            "a@x.com",
		IsPremium:        true,
		SubscriptionType: model.SubscriptionPremium,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	token, exp, err := Issue(testSecret, testUser(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)

	claims, err := Verify(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.True(t, claims.IsPremium)
	assert.Equal(t, model.SubscriptionPremium, claims.SubscriptionType)
}

func TestVerifyExpired(t *testing.T) {
	token, _, err := Issue(testSecret, testUser(), -time.Hour)
	require.NoError(t, err)

	_, err = Verify(testSecret, token)
	// An expired-but-authentic token must never look like a tampered one:
	// the client reaction differs (re-login vs discard).
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTamperedSignature(t *testing.T) {
	token, _, err := Issue(testSecret, testUser(), -time.Hour)
	require.NoError(t, err)

	// Flip the signature; even though the embedded exp already elapsed,
	// the result must be invalid, not expired.
	i := strings.LastIndex(token, ".")
	tampered := token[:i+1] + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	_, err = Verify(testSecret, tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Issue(testSecret, testUser(), time.Hour)
	require.NoError(t, err)

	_, err = Verify("other-secret", token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	_, err := Verify(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
