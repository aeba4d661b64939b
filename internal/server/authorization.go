package server

import (
	"strings"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/authorization"
	obsctx "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
)

// HeaderActor carries the caller identity as "landlord:<id>" or
// "tenant:<id>".
const HeaderActor = "X-Actor"

const contextActorKey = "actor"

// ActorRequired resolves the caller from HeaderActor. The system actor is
// reserved for in-process callers and is never accepted over HTTP.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActor))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := authorization.ParseActor(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if actor.IsSystem() {
			AbortWithError(c, authorization.ErrForbidden)
			return
		}

		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(
			obsctx.WithActor(c.Request.Context(), string(actor.Type), actor.ID.String()),
		)
		c.Next()
	}
}

func actorFromGin(c *gin.Context) (authorization.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return authorization.Actor{}, false
	}
	actor, ok := value.(authorization.Actor)
	return actor, ok
}

// requireActor aborts with ErrUnauthorized when no actor was resolved.
func requireActor(c *gin.Context) (authorization.Actor, bool) {
	actor, ok := actorFromGin(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return authorization.Actor{}, false
	}
	return actor, true
}
