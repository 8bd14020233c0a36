package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftOrderType defines how turn order advances between rounds.
type DraftOrderType string

const (
	DraftOrderSnake DraftOrderType = "SNAKE"
)

// DraftStatus defines the lifecycle state of a draft.
type DraftStatus string

const (
	DraftStatusPending    DraftStatus = "PENDING"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
	DraftStatusCancelled  DraftStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusCompleted || s == DraftStatusCancelled
}

// RemainderStrategy defines what happens to nominations left over when the
// pool does not divide evenly across seats.
type RemainderStrategy string

const (
	RemainderUndrafted RemainderStrategy = "UNDRAFTED"
	RemainderFullPool  RemainderStrategy = "FULL_POOL"
)

// AutoPickStrategy names a strategy for choosing a nomination automatically.
type AutoPickStrategy string

const (
	StrategyRandom       AutoPickStrategy = "RANDOM"
	StrategyAlphabetical AutoPickStrategy = "ALPHABETICAL"
	StrategyCanonical    AutoPickStrategy = "CANONICAL"
	StrategyPlan         AutoPickStrategy = "PLAN"
	StrategyByCategory   AutoPickStrategy = "BY_CATEGORY"
	StrategyWisdom       AutoPickStrategy = "WISDOM"
)

// AutoPickConfig holds strategy-specific settings stored as JSONB on the draft.
type AutoPickConfig struct {
	// Order is the fixed preference list for the CANONICAL strategy.
	Order []uuid.UUID `json:"order,omitempty"`
}

// Draft represents one draft instance, owned by a single season.
// All mutation goes through the engine's per-draft lock.
type Draft struct {
	ID                     uuid.UUID         `json:"id"`
	SeasonID               uuid.UUID         `json:"season_id"`
	Status                 DraftStatus       `json:"status"`
	OrderType              DraftOrderType    `json:"order_type"`
	CurrentPickNumber      *int              `json:"current_pick_number,omitempty"`
	PicksPerSeat           int               `json:"picks_per_seat"`
	RemainderStrategy      RemainderStrategy `json:"remainder_strategy"`
	TotalPicks             int               `json:"total_picks"`
	PickTimerSeconds       *int              `json:"pick_timer_seconds,omitempty"`
	PickDeadlineAt         *time.Time        `json:"pick_deadline_at,omitempty"`
	PickTimerRemainingMS   *int64            `json:"pick_timer_remaining_ms,omitempty"`
	AutoPickStrategy       AutoPickStrategy  `json:"auto_pick_strategy"`
	AutoPickSeed           string            `json:"auto_pick_seed,omitempty"`
	AutoPickConfig         AutoPickConfig    `json:"auto_pick_config"`
	AllowDraftingAfterLock bool              `json:"allow_drafting_after_lock"`
	LockOverrideSetBy      *uuid.UUID        `json:"lock_override_set_by,omitempty"`
	LockOverrideSetAt      *time.Time        `json:"lock_override_set_at,omitempty"`
	StartedAt              *time.Time        `json:"started_at,omitempty"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// DraftSeat maps a seat number to a participant. Seats are fixed once the
// draft is created; their order defines turn order.
type DraftSeat struct {
	DraftID       uuid.UUID `json:"draft_id"`
	SeatNumber    int       `json:"seat_number"`
	ParticipantID uuid.UUID `json:"participant_id"`
}
