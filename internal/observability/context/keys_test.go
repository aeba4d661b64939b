package context

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestActorRoundTrip(t *testing.T) {
	kind, id := ActorFromContext(WithActor(context.Background(), "tenant", "2001"))
	if kind != "tenant" || id != "2001" {
		t.Fatalf("unexpected actor %s:%s", kind, id)
	}
	kind, id = ActorFromContext(WithActor(context.Background(), "", "2001"))
	if kind != "" || id != "" {
		t.Fatalf("expected no actor without a type, got %s:%s", kind, id)
	}
}

func TestRequestIDFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	c.Set(GinRequestIDKey, "from-gin")
	if got := RequestIDFromGin(c); got != "from-gin" {
		t.Fatalf("expected gin request id, got %q", got)
	}

	c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "from-ctx"))
	if got := RequestIDFromGin(c); got != "from-ctx" {
		t.Fatalf("expected context request id, got %q", got)
	}
	if got := RequestIDFromGin(nil); got != "" {
		t.Fatalf("expected empty id for nil context, got %q", got)
	}
}
