package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens. MemberID is set for
// JEMAAT accounts, AreaID for MAJELIS accounts.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	MemberID string   `json:"member_id,omitempty"`
	AreaID   string   `json:"area_id,omitempty"`
	jwt.RegisteredClaims
}
