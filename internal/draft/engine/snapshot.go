package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/draft/turn"
	"github.com/galadraft/galadraft/internal/models"
)

// Snapshot is the externally visible draft state for polling and
// reconnect-and-resync clients. Version equals the number of committed
// picks; clients compare it against event versions to detect gaps.
type Snapshot struct {
	Draft   *models.Draft      `json:"draft"`
	Seats   []models.DraftSeat `json:"seats"`
	Picks   []models.DraftPick `json:"picks"`
	Version int                `json:"version"`
	Turn    *turn.Turn         `json:"turn,omitempty"`
	// TimeRemainingMS is derived from the deadline at read time, for
	// clients that render a countdown.
	TimeRemainingMS *int64 `json:"time_remaining_ms,omitempty"`
}

// Snapshot assembles the current draft state from a consistent read. It is
// read-only and never contends with the write path's lock.
func (s *Service) Snapshot(ctx context.Context, draftID uuid.UUID) (*Snapshot, error) {
	d, seats, picks, err := s.store.ReadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Draft:   d,
		Seats:   seats,
		Picks:   picks,
		Version: len(picks),
	}

	if d.CurrentPickNumber != nil && *d.CurrentPickNumber <= d.TotalPicks && !d.Status.Terminal() {
		t := turn.At(*d.CurrentPickNumber, len(seats))
		snap.Turn = &t
	}
	if d.PickDeadlineAt != nil {
		remaining := d.PickDeadlineAt.Sub(s.clock.Now()).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		snap.TimeRemainingMS = &remaining
	} else if d.PickTimerRemainingMS != nil {
		ms := *d.PickTimerRemainingMS
		snap.TimeRemainingMS = &ms
	}
	return snap, nil
}
