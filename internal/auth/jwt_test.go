package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("test_login", testSecret, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "test_login", subject)
}

func TestValidateToken(t *testing.T) {
	validToken, err := GenerateToken("test_login", testSecret, time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken("test_login", testSecret, -time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "test_login",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{name: "expired token", token: expiredToken, secret: testSecret, wantErrIs: jwt.ErrTokenExpired},
		{name: "wrong secret", token: validToken, secret: "other", wantErrIs: jwt.ErrTokenSignatureInvalid},
		{name: "garbage", token: "not-a-jwt", secret: testSecret, wantErrIs: jwt.ErrTokenMalformed},
		{name: "missing subject", token: noSubject, secret: testSecret, wantErrIs: ErrInvalidToken},
		{name: "missing expiry", token: noExpiry, secret: testSecret, wantErrIs: jwt.ErrTokenRequiredClaimMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("testpassword", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "testpassword", hash)

	assert.True(t, CheckPassword(hash, "testpassword"))
	assert.False(t, CheckPassword(hash, "wrongpasswd"))
	assert.False(t, CheckPassword("not-a-hash", "testpassword"))
}
