package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/draft/events"
	"github.com/galadraft/galadraft/internal/draft/timer"
	"github.com/galadraft/galadraft/internal/draft/turn"
	"github.com/galadraft/galadraft/internal/models"
)

// draftingLocked reports whether the ceremony lock currently blocks picks.
// A manual pick against a locked draft is an error; the scheduler treats
// it as a stop condition instead.
func draftingLocked(d *models.Draft, season models.SeasonContext, now time.Time) bool {
	return season.Locked(now) && !d.AllowDraftingAfterLock
}

// ApplyPick records a manual pick for the seat on turn. The actor must be
// the seated participant (or a commissioner picking on their behalf).
func (s *Service) ApplyPick(ctx context.Context, draftID uuid.UUID, actor Actor, nominationID uuid.UUID) (*models.DraftPick, error) {
	var out *models.DraftPick
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		season, err := tx.Season(ctx)
		if err != nil {
			return fmt.Errorf("load season: %w", err)
		}

		pick, err := s.applyPickLocked(ctx, tx, d, season, &actor, nominationID, false)
		if err != nil {
			return err
		}
		out = pick

		if d.Status == models.DraftStatusInProgress {
			if _, err := s.runImmediateAutodraft(ctx, tx, d, season); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// applyPickLocked applies one pick inside an already-held critical section.
// Manual and auto picks share this path so they produce identical records
// and events. actor is nil for scheduler picks.
func (s *Service) applyPickLocked(ctx context.Context, tx TxStore, d *models.Draft, season models.SeasonContext, actor *Actor, nominationID uuid.UUID, auto bool) (*models.DraftPick, error) {
	if d.Status != models.DraftStatusInProgress {
		return nil, errf(CodeInvalidState, "cannot pick while draft is %s", d.Status)
	}

	now := s.clock.Now()
	if draftingLocked(d, season, now) {
		return nil, errf(CodeCeremonyLocked, "ceremony locked at %s", season.CeremonyLockedAt)
	}

	seats, err := tx.Seats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	current := *d.CurrentPickNumber
	t := turn.At(current, len(seats))
	seat := seats[t.SeatNumber-1]

	if actor != nil && actor.UserID != seat.ParticipantID && !actor.Commissioner {
		return nil, errf(CodeNotOnTurn, "seat %d (pick %d) belongs to another participant", t.SeatNumber, current)
	}

	pool, err := tx.Nominations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nominations: %w", err)
	}
	inPool := false
	for _, n := range pool {
		if n.ID == nominationID {
			inPool = true
			break
		}
	}
	if !inPool {
		return nil, errf(CodeNominationUnknown, "nomination %s is not in this ceremony's pool", nominationID)
	}

	picks, err := tx.Picks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}
	for _, p := range picks {
		if p.NominationID == nominationID {
			return nil, errf(CodeNominationTaken, "nomination %s was picked at pick %d", nominationID, p.PickNumber)
		}
	}

	pick := models.DraftPick{
		ID:            uuid.New(),
		DraftID:       d.ID,
		PickNumber:    current,
		RoundNumber:   t.RoundNumber,
		SeatNumber:    t.SeatNumber,
		ParticipantID: seat.ParticipantID,
		NominationID:  nominationID,
		Auto:          auto,
		PickedAt:      now,
	}
	if err := tx.InsertPick(ctx, pick); err != nil {
		return nil, fmt.Errorf("insert pick: %w", err)
	}

	next := current + 1
	d.CurrentPickNumber = &next
	payload := events.PickMadePayload{
		PickID:        pick.ID,
		PickNumber:    pick.PickNumber,
		RoundNumber:   pick.RoundNumber,
		SeatNumber:    pick.SeatNumber,
		ParticipantID: pick.ParticipantID,
		NominationID:  pick.NominationID,
		Auto:          auto,
		MadeAt:        now,
	}

	if next > d.TotalPicks {
		d.Status = models.DraftStatusCompleted
		d.CompletedAt = &now
		d.PickDeadlineAt = nil
		d.PickTimerRemainingMS = nil
	} else {
		d.PickDeadlineAt = timer.ComputeDeadline(now, d.PickTimerSeconds)
		nt := turn.At(next, len(seats))
		payload.NextTurn = &nt
		payload.NextDeadlineAt = d.PickDeadlineAt
	}
	if err := tx.UpdateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	if _, err := tx.AppendEvent(ctx, models.EventPickMade, payload); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if d.Status == models.DraftStatusCompleted {
		done := events.DraftCompletedPayload{DraftID: d.ID, CompletedAt: now, TotalPicks: d.TotalPicks}
		if _, err := tx.AppendEvent(ctx, models.EventDraftCompleted, done); err != nil {
			return nil, fmt.Errorf("append event: %w", err)
		}
	}
	return &pick, nil
}
