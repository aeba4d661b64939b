package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("events.outbox",
	fx.Provide(NewOutbox),
)

var (
	ErrOutboxUnavailable  = errors.New("outbox_unavailable")
	ErrMissingTransaction = errors.New("missing_transaction")
	ErrInvalidLandlord    = errors.New("invalid_landlord_id")
	ErrMissingEventType   = errors.New("missing_event_type")
)

// Event describes a billing event to store in the outbox.
type Event struct {
	LandlordID snowflake.ID
	Type       string
	Payload    map[string]any
	DedupeKey  string
}

// Record is a stored outbox row.
type Record struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	LandlordID snowflake.ID      `gorm:"not null"`
	EventType  string            `gorm:"type:text;not null"`
	Payload    datatypes.JSONMap `gorm:"type:text;not null"`
	DedupeKey  *string           `gorm:"type:text"`
	Published  bool              `gorm:"not null"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "billing_events" }

// Outbox inserts billing events into the billing_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) *Outbox {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Outbox{db: db, genID: genID, clock: clk}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	if o == nil {
		return ErrOutboxUnavailable
	}
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return ErrMissingTransaction
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return ErrOutboxUnavailable
	}
	if event.LandlordID == 0 {
		return ErrInvalidLandlord
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return ErrMissingEventType
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_events (id, landlord_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (landlord_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.LandlordID,
		name,
		payload,
		dedupeValue,
		o.clock.Now().UTC(),
	).Error
}

// ListUnpublished returns the oldest events not yet relayed.
func (o *Outbox) ListUnpublished(ctx context.Context, limit int) ([]Record, error) {
	if o == nil || o.db == nil {
		return nil, ErrOutboxUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	var records []Record
	err := o.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkPublished flags relayed events so they are not listed again.
func (o *Outbox) MarkPublished(ctx context.Context, ids []snowflake.ID) error {
	if o == nil || o.db == nil {
		return ErrOutboxUnavailable
	}
	if len(ids) == 0 {
		return nil
	}
	return o.db.WithContext(ctx).
		Model(&Record{}).
		Where("id IN ?", ids).
		Update("published", true).Error
}
