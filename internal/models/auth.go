package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles that may act on inquiries.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleCounselor UserRole = "COUNSELOR"
)

// JWTClaims represents the JWT payload for access tokens issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	TenantID string   `json:"tenant_id,omitempty"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the identity recorded in activity entries.
func (c *JWTClaims) Actor() string {
	if c == nil {
		return ""
	}
	if c.Email != "" {
		return c.Email
	}
	return c.UserID
}
