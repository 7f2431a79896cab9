package middleware

import (
	"github.com/gin-gonic/gin"

	"certchain/internal/auth"
	"certchain/internal/httpx"
)

// ClaimsKey is the context key holding the parsed *auth.Claims
const ClaimsKey = "claims"

// AuthRequired is a middleware that validates JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		tokenString, ok := auth.BearerToken(authHeader)
		if !ok {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			if auth.IsExpired(err) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(ClaimsKey, claims)
		c.Set("uid", claims.UID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// WriteRequired rejects operators whose role may not submit transactions.
// It must run after AuthRequired.
func WriteRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*auth.Claims)
		if !ok || !claims.CanWrite() {
			httpx.FailErr(c, httpx.ErrForbidden("role may not submit transactions"))
			c.Abort()
			return
		}
		c.Next()
	}
}
