// Package engine executes drafts: lifecycle transitions, pick application,
// timer bookkeeping, and auto-pick scheduling. Every mutating operation runs
// inside the store's per-draft exclusive lock, so a draft has at most one
// writer at any instant and its event log is strictly ordered.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/draft/events"
	"github.com/galadraft/galadraft/internal/draft/timer"
	"github.com/galadraft/galadraft/internal/draft/turn"
	"github.com/galadraft/galadraft/internal/models"
)

// Actor identifies who is performing an operation. It is passed explicitly
// into every operation; the engine has no notion of a request context beyond
// this.
type Actor struct {
	UserID       uuid.UUID
	Commissioner bool
}

// Service is the draft execution engine.
type Service struct {
	store Store
	clock clockwork.Clock
}

// New creates an engine Service.
func New(store Store, clock clockwork.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// Start transitions a PENDING draft to IN_PROGRESS: validates seats and
// pool, computes total picks, sets the first deadline, and resolves any
// leading run of auto-pick-enabled seats immediately.
func (s *Service) Start(ctx context.Context, draftID uuid.UUID, actor Actor) (*models.Draft, error) {
	var out *models.Draft
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if d.Status != models.DraftStatusPending {
			return errf(CodeAlreadyStarted, "draft %s is %s", d.ID, d.Status)
		}

		now := s.clock.Now()
		season, err := tx.Season(ctx)
		if err != nil {
			return fmt.Errorf("load season: %w", err)
		}
		if draftingLocked(d, season, now) {
			return errf(CodeCeremonyLocked, "ceremony locked at %s", season.CeremonyLockedAt)
		}

		seats, err := tx.Seats(ctx)
		if err != nil {
			return fmt.Errorf("load seats: %w", err)
		}
		if len(seats) < 2 {
			return errf(CodeNotEnoughParticipants, "draft needs at least 2 seats, has %d", len(seats))
		}

		pool, err := tx.Nominations(ctx)
		if err != nil {
			return fmt.Errorf("load nominations: %w", err)
		}
		if len(pool) == 0 {
			return errf(CodeMissingNominations, "ceremony has no nominations")
		}

		picksPerSeat := d.PicksPerSeat
		if picksPerSeat <= 0 {
			picksPerSeat = len(pool) / len(seats)
		}
		if picksPerSeat < 1 {
			return errf(CodeInsufficientNoms, "%d nominations cannot cover %d seats", len(pool), len(seats))
		}
		// The pool must cover the full pick budget, or the draft would
		// drain it and stall before total_picks is reached.
		if len(pool) < len(seats)*picksPerSeat {
			return errf(CodeInsufficientNoms, "%d nominations cannot cover %d seats x %d picks", len(pool), len(seats), picksPerSeat)
		}

		d.PicksPerSeat = picksPerSeat
		d.TotalPicks = turn.TotalPicks(len(seats), picksPerSeat, len(pool), d.RemainderStrategy)
		first := 1
		d.CurrentPickNumber = &first
		d.Status = models.DraftStatusInProgress
		d.StartedAt = &now
		d.PickDeadlineAt = timer.ComputeDeadline(now, d.PickTimerSeconds)
		d.PickTimerRemainingMS = nil
		if err := tx.UpdateDraft(ctx, d); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}

		payload := events.DraftStartedPayload{
			DraftID:     d.ID,
			StartedAt:   now,
			TotalPicks:  d.TotalPicks,
			TotalRounds: turn.Rounds(d.TotalPicks, len(seats)),
			FirstTurn:   turn.At(first, len(seats)),
			DeadlineAt:  d.PickDeadlineAt,
		}
		if _, err := tx.AppendEvent(ctx, models.EventDraftStarted, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		if _, err := s.runImmediateAutodraft(ctx, tx, d, season); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("draft_id", draftID.String()).Int("total_picks", out.TotalPicks).Msg("draft started")
	return out, nil
}

// Pause freezes the pick timer and halts pick application.
func (s *Service) Pause(ctx context.Context, draftID uuid.UUID, actor Actor) (*models.Draft, error) {
	var out *models.Draft
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if err := ValidateTransition(d.Status, models.DraftStatusPaused); err != nil {
			return err
		}

		now := s.clock.Now()
		d.Status = models.DraftStatusPaused
		d.PickTimerRemainingMS = timer.Freeze(now, d.PickDeadlineAt)
		d.PickDeadlineAt = nil
		if err := tx.UpdateDraft(ctx, d); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}

		payload := events.DraftPausedPayload{DraftID: d.ID, PausedAt: now, RemainingMS: d.PickTimerRemainingMS}
		if _, err := tx.AppendEvent(ctx, models.EventDraftPaused, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

// Resume recomputes an absolute deadline from the frozen remaining duration
// and re-checks the current seat for immediate auto-pick.
func (s *Service) Resume(ctx context.Context, draftID uuid.UUID, actor Actor) (*models.Draft, error) {
	var out *models.Draft
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if d.Status != models.DraftStatusPaused {
			return errf(CodeInvalidState, "cannot resume draft in status %s", d.Status)
		}

		now := s.clock.Now()
		d.Status = models.DraftStatusInProgress
		d.PickDeadlineAt = timer.Resume(now, d.PickTimerRemainingMS)
		d.PickTimerRemainingMS = nil
		if err := tx.UpdateDraft(ctx, d); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}

		payload := events.DraftResumedPayload{DraftID: d.ID, ResumedAt: now, DeadlineAt: d.PickDeadlineAt}
		if _, err := tx.AppendEvent(ctx, models.EventDraftResumed, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		season, err := tx.Season(ctx)
		if err != nil {
			return fmt.Errorf("load season: %w", err)
		}
		if _, err := s.runImmediateAutodraft(ctx, tx, d, season); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// Cancel forcibly terminates a non-terminal draft, used when the owning
// season is cancelled or the ceremony locks irrevocably.
func (s *Service) Cancel(ctx context.Context, draftID uuid.UUID, reason string) (*models.Draft, error) {
	var out *models.Draft
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if err := ValidateTransition(d.Status, models.DraftStatusCancelled); err != nil {
			return err
		}

		now := s.clock.Now()
		d.Status = models.DraftStatusCancelled
		d.PickDeadlineAt = nil
		d.PickTimerRemainingMS = nil
		if err := tx.UpdateDraft(ctx, d); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}

		payload := events.DraftCancelledPayload{DraftID: d.ID, CancelledAt: now, Reason: reason}
		if _, err := tx.AppendEvent(ctx, models.EventDraftCancelled, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

// SetLockOverride records the commissioner escape hatch that permits
// drafting after the ceremony locks. The override is an auditable event,
// not a lifecycle state.
func (s *Service) SetLockOverride(ctx context.Context, draftID uuid.UUID, actor Actor, allow bool) (*models.Draft, error) {
	if !actor.Commissioner {
		return nil, errf(CodeForbidden, "lock override requires a commissioner")
	}
	var out *models.Draft
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if d.Status.Terminal() {
			return errf(CodeInvalidState, "draft is %s", d.Status)
		}

		now := s.clock.Now()
		d.AllowDraftingAfterLock = allow
		d.LockOverrideSetBy = &actor.UserID
		d.LockOverrideSetAt = &now
		if err := tx.UpdateDraft(ctx, d); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}

		payload := events.LockOverridePayload{DraftID: d.ID, Allow: allow, SetBy: actor.UserID, SetAt: now}
		if _, err := tx.AppendEvent(ctx, models.EventLockOverrideSet, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		if d.Status == models.DraftStatusInProgress {
			season, err := tx.Season(ctx)
			if err != nil {
				return fmt.Errorf("load season: %w", err)
			}
			if _, err := s.runImmediateAutodraft(ctx, tx, d, season); err != nil {
				return err
			}
		}
		out = d
		return nil
	})
	return out, err
}

// UpsertAutodraft stores a user's auto-pick opt-in and, when the draft is
// running, immediately resolves the current seat if the change made it
// auto-pick eligible.
func (s *Service) UpsertAutodraft(ctx context.Context, draftID uuid.UUID, actor Actor, cfg models.AutodraftConfig) error {
	if cfg.UserID != actor.UserID && !actor.Commissioner {
		return errf(CodeForbidden, "cannot change another user's autodraft config")
	}
	return s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if d.Status.Terminal() {
			return errf(CodeInvalidState, "draft is %s", d.Status)
		}

		cfg.DraftID = d.ID
		cfg.UpdatedAt = s.clock.Now()
		if err := tx.UpsertAutodraftConfig(ctx, cfg); err != nil {
			return fmt.Errorf("upsert autodraft config: %w", err)
		}

		payload := events.AutodraftConfigPayload{
			DraftID:  d.ID,
			UserID:   cfg.UserID,
			Enabled:  cfg.Enabled,
			Strategy: string(cfg.Strategy),
		}
		if _, err := tx.AppendEvent(ctx, models.EventAutodraftConfig, payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		if d.Status == models.DraftStatusInProgress {
			season, err := tx.Season(ctx)
			if err != nil {
				return fmt.Errorf("load season: %w", err)
			}
			if _, err := s.runImmediateAutodraft(ctx, tx, d, season); err != nil {
				return err
			}
		}
		return nil
	})
}
