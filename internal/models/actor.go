package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims identifies who performed an override. Issued by the district
// SSO gateway and verified with a shared HMAC secret.
type ActorClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Identity returns the value recorded in audit rows for this actor.
func (c *ActorClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.Email != "" {
		return c.Email
	}
	return c.UserID
}
