package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/models"
	"go-pizzeria-management/permissions"
)

const actorKey = "actor"

// Authenticator resolves a bearer token to an active account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// browsers cannot set headers on a websocket handshake
	if websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query("token")
	}
	return ""
}

func Authentication(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			helpers.RespondError(c, apperrors.Authentication("authentication token required"))
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.Set("email", user.Email)
		c.Set("uid", user.ID.Hex())
		c.Set(actorKey, models.Actor{ID: user.ID.Hex(), Email: user.Email, Role: user.Role})
		c.Next()
	}
}

// CurrentActor returns the caller set by Authentication.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// RequirePermission rejects callers whose role lacks capability.
func RequirePermission(lookup permissions.Lookup, capability permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			helpers.RespondError(c, apperrors.Authentication("authentication token required"))
			return
		}
		if !lookup(actor.Role).Has(capability) {
			helpers.RespondError(c, apperrors.Authorization("role %s may not %s", actor.Role, strings.ReplaceAll(string(capability), "_", " ")))
			return
		}
		c.Next()
	}
}

// OptionalAuthentication identifies the caller when a token is sent and lets
// anonymous requests through. A bad token is still rejected.
func OptionalAuthentication(auth Authenticator) gin.HandlerFunc {
	required := Authentication(auth)
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		required(c)
	}
}
