package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
)

func newTestVerifier(t *testing.T) (*JWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := func(token *jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	return NewJWTVerifierWithKeyfunc(kf, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.AuthClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() *models.AuthClaims {
	return &models.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:       "user@example.com",
		Role:        "authenticated",
		AppMetadata: map[string]interface{}{"is_system_admin": true},
	}
}

func TestVerifyToken(t *testing.T) {
	verifier, key := newTestVerifier(t)

	claims, err := verifier.VerifyToken(sign(t, jwt.SigningMethodRS256, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.GetUserID())
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.IsSystemAdmin())
}

func TestVerifyTokenRejects(t *testing.T) {
	verifier, key := newTestVerifier(t)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	anon := validClaims()
	anon.Role = "anon"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", sign(t, jwt.SigningMethodRS256, key, expired)},
		{"missing subject", sign(t, jwt.SigningMethodRS256, key, noSubject)},
		{"anonymous role", sign(t, jwt.SigningMethodRS256, key, anon)},
		{"missing expiry", sign(t, jwt.SigningMethodRS256, key, noExpiry)},
		{"HS256", sign(t, jwt.SigningMethodHS256, []byte("secret"), validClaims())},
		{"wrong key", sign(t, jwt.SigningMethodES256, ecKey, validClaims())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestIsSystemAdminClaim(t *testing.T) {
	claims := validClaims()
	claims.AppMetadata = map[string]interface{}{"is_system_admin": "yes"}
	assert.False(t, claims.IsSystemAdmin())

	claims.AppMetadata = nil
	assert.False(t, claims.IsSystemAdmin())
}
