package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/models"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// AuthMiddleware creates a Gin middleware for JWT authentication. The token
// subject is the id of the user whose alerts the caller may touch.
func AuthMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Abort(c, apperr.Unauthorized("Authorization header required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			Abort(c, apperr.Unauthorized("Authorization header format must be Bearer <token>"))
			return
		}

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			// Ensure the token's signing method is what we expect
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				Abort(c, apperr.Unauthorized("Token expired"))
				return
			}
			logger.Warn("Invalid JWT token", zap.Error(err))
			Abort(c, apperr.Unauthorized("Invalid token"))
			return
		}

		if !token.Valid || claims.Subject == "" {
			Abort(c, apperr.Unauthorized("Invalid token"))
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// ResolveUserID picks the user a request acts for. With an authenticated
// subject, an empty requested id means the subject and any other id is
// forbidden. Without authentication the requested id is required.
func ResolveUserID(c *gin.Context, requested string) (string, error) {
	subject := c.GetString(UserIDKey)
	switch {
	case subject == "" && requested == "":
		return "", apperr.InvalidInput("user_id", "is required")
	case subject == "":
		return requested, nil
	case requested == "" || requested == subject:
		return subject, nil
	default:
		return "", apperr.Forbidden("user_id does not match the authenticated user")
	}
}

// Abort stops the chain with the error envelope used across the API.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Public(err)})
}
