// Package outbox relays committed draft events to NATS JetStream. Events
// are written to the draft_outbox table inside the same transaction as
// the state transition; the relay listens for NOTIFYs on that table,
// publishes each row, and marks it sent. A periodic fallback poll picks
// up rows whose NOTIFY was lost, so delivery is at-least-once with
// JetStream msg-id dedupe collapsing replays.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one staged outbox row.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Publisher delivers one event to the stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
