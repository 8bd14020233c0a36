// Package events defines the wire payloads carried by draft events. They are
// shared between the engine (producer) and the gateway (re-broadcaster).
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/draft/turn"
)

// DraftStartedPayload is the payload for a draft.started event.
type DraftStartedPayload struct {
	DraftID     uuid.UUID  `json:"draft_id"`
	StartedAt   time.Time  `json:"started_at"`
	TotalPicks  int        `json:"total_picks"`
	TotalRounds int        `json:"total_rounds"`
	FirstTurn   turn.Turn  `json:"first_turn"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty"`
}

// PickMadePayload is the payload for a draft.pick event. NextTurn and
// NextDeadlineAt are nil on the final pick.
type PickMadePayload struct {
	PickID         uuid.UUID  `json:"pick_id"`
	PickNumber     int        `json:"pick_number"`
	RoundNumber    int        `json:"round_number"`
	SeatNumber     int        `json:"seat_number"`
	ParticipantID  uuid.UUID  `json:"participant_id"`
	NominationID   uuid.UUID  `json:"nomination_id"`
	Auto           bool       `json:"auto"`
	MadeAt         time.Time  `json:"made_at"`
	NextTurn       *turn.Turn `json:"next_turn,omitempty"`
	NextDeadlineAt *time.Time `json:"next_deadline_at,omitempty"`
}

// DraftPausedPayload is the payload for a draft.paused event.
type DraftPausedPayload struct {
	DraftID     uuid.UUID `json:"draft_id"`
	PausedAt    time.Time `json:"paused_at"`
	RemainingMS *int64    `json:"remaining_ms,omitempty"`
}

// DraftResumedPayload is the payload for a draft.resumed event.
type DraftResumedPayload struct {
	DraftID    uuid.UUID  `json:"draft_id"`
	ResumedAt  time.Time  `json:"resumed_at"`
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
}

// DraftCompletedPayload is the payload for a draft.completed event.
type DraftCompletedPayload struct {
	DraftID     uuid.UUID `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftCancelledPayload is the payload for a draft.cancelled event.
type DraftCancelledPayload struct {
	DraftID     uuid.UUID `json:"draft_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// LockOverridePayload is the payload for a draft.lock.override.set event.
// The override is auditable: actor and timestamp always travel with it.
type LockOverridePayload struct {
	DraftID uuid.UUID `json:"draft_id"`
	Allow   bool      `json:"allow"`
	SetBy   uuid.UUID `json:"set_by"`
	SetAt   time.Time `json:"set_at"`
}

// AutodraftConfigPayload is the payload for a draft.autodraft.config event.
type AutodraftConfigPayload struct {
	DraftID  uuid.UUID `json:"draft_id"`
	UserID   uuid.UUID `json:"user_id"`
	Enabled  bool      `json:"enabled"`
	Strategy string    `json:"strategy"`
}
