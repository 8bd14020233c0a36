package models

import (
	"time"

	"github.com/google/uuid"
)

// AutodraftConfig is a per (draft, user) opt-in to automatic picking.
// It is independent of the draft-level fallback strategy.
type AutodraftConfig struct {
	DraftID   uuid.UUID        `json:"draft_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Enabled   bool             `json:"enabled"`
	Strategy  AutoPickStrategy `json:"strategy"`
	Plan      []uuid.UUID      `json:"plan,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}
