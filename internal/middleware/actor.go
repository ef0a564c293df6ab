package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/meridian-sis/scheduler-api/internal/models"
	appErrors "github.com/meridian-sis/scheduler-api/pkg/errors"
	"github.com/meridian-sis/scheduler-api/pkg/response"
)

// ContextActorKey is the gin context key storing the verified actor identity.
const ContextActorKey = "currentActor"

// ActorHeader carries the actor identity when no bearer token is present.
// Only trusted internal callers (the SIS sync jobs) use it.
const ActorHeader = "X-Actor"

// Actor extracts the caller identity from a bearer token or the actor header
// and attaches it to the request context. It never blocks; handlers that
// require an identity pair this with RequireActor.
func Actor(tokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := actorFromToken(c, tokenSecret); identity != "" {
			c.Set(ContextActorKey, identity)
		} else if header := strings.TrimSpace(c.GetHeader(ActorHeader)); header != "" {
			c.Set(ContextActorKey, header)
		}
		c.Next()
	}
}

// RequireActor blocks requests that carry no verifiable actor identity.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "an actor identity is required for this operation"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor returns the verified actor identity, or "" when absent.
func CurrentActor(c *gin.Context) string {
	if v, ok := c.Get(ContextActorKey); ok {
		if identity, ok := v.(string); ok {
			return identity
		}
	}
	return ""
}

func actorFromToken(c *gin.Context, tokenSecret string) string {
	if tokenSecret == "" {
		return ""
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	token, err := jwt.ParseWithClaims(parts[1], &models.ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tokenSecret), nil
	})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(*models.ActorClaims)
	if !ok || !token.Valid {
		return ""
	}
	return claims.Identity()
}
