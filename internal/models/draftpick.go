package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick is an immutable log entry for one committed pick. Picks are
// append-only: once written they are never updated or deleted.
type DraftPick struct {
	ID            uuid.UUID `json:"id"`
	DraftID       uuid.UUID `json:"draft_id"`
	PickNumber    int       `json:"pick_number"`
	RoundNumber   int       `json:"round_number"`
	SeatNumber    int       `json:"seat_number"`
	ParticipantID uuid.UUID `json:"participant_id"`
	NominationID  uuid.UUID `json:"nomination_id"`
	Auto          bool      `json:"auto"`
	PickedAt      time.Time `json:"picked_at"`
}
