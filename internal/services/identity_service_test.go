package services_test

import (
	"testing"
	"time"

	"doner/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_IssueAndValidate(t *testing.T) {
	svc := services.NewIdentityService("test_identity_secret", time.Hour)

	token, err := svc.Issue(1001)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), userID)
}

func TestIdentityService_RejectsBadTokens(t *testing.T) {
	svc := services.NewIdentityService("test_identity_secret", time.Hour)

	other, err := services.NewIdentityService("another_secret", time.Hour).Issue(1001)
	require.NoError(t, err)

	expired, err := services.NewIdentityService("test_identity_secret", -time.Minute).Issue(1001)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test_identity_secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"no subject":   noSubject,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			assert.ErrorIs(t, err, services.ErrInvalidIdentity)
		})
	}
}

func TestIdentityService_RequiresSecret(t *testing.T) {
	svc := services.NewIdentityService("", time.Hour)

	_, err := svc.Issue(1001)
	assert.ErrorIs(t, err, services.ErrInvalidIdentity)
	_, err = svc.Validate("anything")
	assert.ErrorIs(t, err, services.ErrInvalidIdentity)
}
