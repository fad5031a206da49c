// Package middleware provides HTTP middleware.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/jwt"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
)

// Context keys.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
	ContextKeyClaims   = "claims"
)

// Auth requires a valid access token and stores the caller in the context.
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, "session expired, please log in again")
			} else {
				response.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// OptionalAuth stores the caller in the context when a valid token is present
// but never rejects the request.
func OptionalAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			claims, err := jwtManager.ParseToken(token)
			if err == nil {
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyUserRole, claims.Role)
				c.Set(ContextKeyClaims, claims)
			}
		}
		c.Next()
	}
}

// extractToken checks the Authorization header, then the query string, then
// the cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	token := c.Query("token")
	if token != "" {
		return token
	}

	token, _ = c.Cookie("token")
	return token
}

// GetUserID returns the authenticated user ID, or 0.
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetUserRole returns the authenticated user's role, or "".
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyUserRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetClaims returns the full token claims, or nil.
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}

// IsLoggedIn reports whether the request carries an authenticated user.
func IsLoggedIn(c *gin.Context) bool {
	_, exists := c.Get(ContextKeyUserID)
	return exists
}
