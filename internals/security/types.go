package security

import "github.com/golang-jwt/jwt/v5"

// AdminSubject is the only principal; pagewatch has a single operator account.
const AdminSubject = "admin"

type RequestClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
