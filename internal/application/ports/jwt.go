package ports

import (
	"study-buddy-api/internal/infrastructure/jwt"
)

// TokenValidator checks bearer tokens issued by the identity service.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*jwt.Claims, error)
}
