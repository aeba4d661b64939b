package context

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	actorKey
)

type actor struct {
	kind string
	id   string
}

// WithRequestID tags ctx with the id the HTTP layer assigned to the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithActor records who is acting on the request: a landlord, tenant or
// system type and its id. An empty type leaves ctx unchanged.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	if ctx == nil || actorType == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actor{kind: actorType, id: actorID})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, _ := ctx.Value(actorKey).(actor)
	return value.kind, value.id
}
