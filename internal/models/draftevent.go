package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DraftEventType names a committed state transition.
type DraftEventType string

const (
	EventDraftStarted    DraftEventType = "draft.started"
	EventDraftPaused     DraftEventType = "draft.paused"
	EventDraftResumed    DraftEventType = "draft.resumed"
	EventDraftCompleted  DraftEventType = "draft.completed"
	EventDraftCancelled  DraftEventType = "draft.cancelled"
	EventPickMade        DraftEventType = "draft.pick"
	EventLockOverrideSet DraftEventType = "draft.lock.override.set"
	EventAutodraftConfig DraftEventType = "draft.autodraft.config"
)

// DraftEvent is an append-only log entry for one committed transition.
// Version is the event's 1-based position in the draft's stream; clients use
// it to detect missed updates.
type DraftEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Type      DraftEventType  `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}
