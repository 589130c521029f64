package models

import "github.com/golang-jwt/jwt/v5"

// Claims defines the structure of the JWT claims. The registered subject
// carries the user id that owns alerts.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
