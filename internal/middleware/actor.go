package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campuskit/calendar-api/internal/models"
)

// ContextActorKey is the gin context key storing the acting user id.
const ContextActorKey = "currentActor"

// Actor extracts the acting user id from an incoming bearer token for write
// attribution. Token verification and access control belong to the gateway in
// front of this service; the claims are only read here, never trusted for
// authorisation decisions.
func Actor() gin.HandlerFunc {
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(parts[1], claims); err != nil {
			c.Next()
			return
		}
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set(ContextActorKey, sub)
		}
		c.Next()
	}
}

// ActorID returns the acting user id for the request, falling back to the
// explicit system actor when the request carries no attribution.
func ActorID(c *gin.Context) string {
	if v, exists := c.Get(ContextActorKey); exists {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return models.SystemActorID
}
