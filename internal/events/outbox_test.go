package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/events"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

func TestOutboxDedupesByKey(t *testing.T) {
	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	outbox := events.NewOutbox(conn, node, clock.NewFixedClock(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	payload := events.PaymentPayload{
		PaymentID: "42",
		LeaseID:   "7",
		TenantID:  "2001",
		Type:      "rent",
		Amount:    "1500",
		Period:    "2024-06",
		Status:    "pending",
	}
	event := events.Event{
		LandlordID: testutil.LandlordID,
		Type:       events.EventPaymentGenerated,
		Payload:    payload.ToMap(),
		DedupeKey:  events.DedupeKey(events.EventPaymentGenerated, payload.PaymentID),
	}

	for i := 0; i < 2; i++ {
		if err := conn.Transaction(func(tx *gorm.DB) error {
			return outbox.PublishTx(ctx, tx, event)
		}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	records, err := outbox.ListUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("list unpublished: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 event, got %d", len(records))
	}
	if records[0].EventType != events.EventPaymentGenerated {
		t.Fatalf("unexpected event type %q", records[0].EventType)
	}
	if records[0].Payload["period"] != "2024-06" {
		t.Fatalf("unexpected payload %v", records[0].Payload)
	}
	if _, ok := records[0].Payload["receipt_number"]; ok {
		t.Fatalf("empty receipt should be omitted")
	}

	if err := outbox.MarkPublished(ctx, []snowflake.ID{records[0].ID}); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	records, err = outbox.ListUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("list unpublished: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no pending events, got %d", len(records))
	}
}

func TestOutboxRejectsInvalidEvents(t *testing.T) {
	conn := testutil.NewDB(t)
	outbox := events.NewOutbox(conn, testutil.NewNode(t), nil)
	ctx := context.Background()

	if err := outbox.Publish(ctx, events.Event{Type: events.EventPaymentSettled}); !errors.Is(err, events.ErrInvalidLandlord) {
		t.Fatalf("expected invalid landlord, got %v", err)
	}
	if err := outbox.Publish(ctx, events.Event{LandlordID: 1, Type: " "}); !errors.Is(err, events.ErrMissingEventType) {
		t.Fatalf("expected missing type, got %v", err)
	}
	if err := outbox.PublishTx(ctx, nil, events.Event{LandlordID: 1, Type: events.EventPaymentSettled}); !errors.Is(err, events.ErrMissingTransaction) {
		t.Fatalf("expected missing transaction, got %v", err)
	}
}
