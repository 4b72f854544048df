package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"study-buddy-api/internal/application/ports"
)

const (
	CtxUserRole = "userRole"
	CtxUserID   = "userID"
)

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens ports.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		if msg, ok := authenticate(c, tokens, authHeader); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware lets anonymous requests through but still rejects a malformed or forged token.
func OptionalAuthMiddleware(tokens ports.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if msg, ok := authenticate(c, tokens, authHeader); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Next()
	}
}

func authenticate(c *gin.Context, tokens ports.TokenValidator, authHeader string) (string, bool) {
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader {
		return "invalid token format", false
	}

	claims, err := tokens.ValidateToken(tokenStr)
	if err != nil {
		return "invalid token", false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "invalid token subject", false
	}

	c.Set(CtxUserRole, claims.Role)
	c.Set(CtxUserID, userID)

	return "", true
}

// RequesterID returns the authenticated user, or nil for anonymous requests.
func RequesterID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

// RequesterRole is the role claim of the token, "" for anonymous requests.
func RequesterRole(c *gin.Context) string {
	return c.GetString(CtxUserRole)
}
