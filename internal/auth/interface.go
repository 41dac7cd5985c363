package auth

import "lisa/internal/domain/models"

// TokenVerifier validates bearer tokens issued by the identity provider.
// The middleware only depends on this, not on how keys are obtained.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized for any invalid token.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}
