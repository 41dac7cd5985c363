package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims represents the JWT claims issued by the identity provider.
type AuthClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	Name                 string                 `json:"name"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	AppMetadata          map[string]interface{} `json:"app_metadata"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}

// IsSystemAdmin reads the is_system_admin flag from app_metadata
func (c *AuthClaims) IsSystemAdmin() bool {
	v, ok := c.AppMetadata["is_system_admin"].(bool)
	return ok && v
}

// Session is the caller identity for one request. It is created by the auth
// middleware and passed explicitly through the request context.
type Session struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	IsSystemAdmin bool   `json:"is_system_admin"`
}
