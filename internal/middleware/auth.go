package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/auth"
	"github.com/oggyb/roomate/internal/logger"
)

// Context keys for storing claims in gin.Context.
const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
)

// IdentityRegistrar records an authenticated caller.
type IdentityRegistrar interface {
	RegisterIdentity(ctx context.Context, id auth.Identity) error
}

// Auth validates the bearer token, stores the caller in the gin context and
// in the request context, and registers the identity. registrar may be nil.
// A failed registration is logged and does not fail the request.
func Auth(secret string, registrar IdentityRegistrar) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		id, err := auth.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), id)
		if registrar != nil {
			if err := registrar.RegisterIdentity(ctx, id); err != nil {
				logger.FromContext(ctx, nil).Warn("identity registration failed", "user", id.UserID, "err", err)
			}
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextKeyUserID, id.UserID)
		c.Set(ContextKeyEmail, id.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID, or "" outside Auth.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetEmail returns the authenticated user's email, or "".
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}
