package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GinRequestIDKey is the gin key the logging middleware stores the request
// id under.
const GinRequestIDKey = "request_id"

// RequestIDFromGin returns the request id for c, preferring the request
// context over the gin key.
func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if c.Request != nil {
		if value := RequestIDFromContext(c.Request.Context()); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.GetString(GinRequestIDKey))
}
