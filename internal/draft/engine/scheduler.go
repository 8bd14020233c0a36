package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/draft/autopick"
	"github.com/galadraft/galadraft/internal/draft/timer"
	"github.com/galadraft/galadraft/internal/draft/turn"
	"github.com/galadraft/galadraft/internal/models"
)

// Tick lets the engine observe timer expiry. Any scheduler (cron, HTTP
// poll, queue consumer) may drive it; calling it when nothing is expired,
// no seat is auto-enabled, or the ceremony lock blocks drafting is a safe
// no-op that writes no events. It returns the number of auto-picks applied.
func (s *Service) Tick(ctx context.Context, draftID uuid.UUID) (int, error) {
	applied := 0
	err := s.store.WithDraft(ctx, draftID, func(tx TxStore) error {
		d := tx.Draft()
		if d.Status != models.DraftStatusInProgress {
			return nil
		}

		season, err := tx.Season(ctx)
		if err != nil {
			return fmt.Errorf("load season: %w", err)
		}
		if draftingLocked(d, season, s.clock.Now()) {
			return nil
		}

		if timer.Expired(s.clock.Now(), d.PickDeadlineAt) {
			switch err := s.autoPickOnce(ctx, tx, d, season); {
			case err == nil:
				applied++
			case IsCode(err, CodeCeremonyLocked):
				return nil
			default:
				return err
			}
		}

		n, err := s.runImmediateAutodraft(ctx, tx, d, season)
		if err != nil {
			return err
		}
		applied += n
		return nil
	})
	return applied, err
}

// autoPickOnce resolves the seat on turn's effective strategy and applies a
// single pick through the same path as a manual pick.
func (s *Service) autoPickOnce(ctx context.Context, tx TxStore, d *models.Draft, season models.SeasonContext) error {
	seats, err := tx.Seats(ctx)
	if err != nil {
		return fmt.Errorf("load seats: %w", err)
	}
	t := turn.At(*d.CurrentPickNumber, len(seats))
	seat := seats[t.SeatNumber-1]

	choice, err := s.chooseNomination(ctx, tx, d, seat.ParticipantID)
	if err != nil {
		return err
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Int("pick_number", *d.CurrentPickNumber).
		Int("seat", t.SeatNumber).
		Str("nomination_id", choice.String()).
		Msg("auto-pick applied")

	_, err = s.applyPickLocked(ctx, tx, d, season, nil, choice, true)
	return err
}

// runImmediateAutodraft resolves a chain of consecutive auto-pick-enabled
// seats in one critical section. It is a bounded loop capped at the picks
// remaining when it starts, never recursion, so termination is auditable.
// A ceremony lock stops the cascade without error; the enclosing operation
// (lock override, config upsert, tick) still commits.
func (s *Service) runImmediateAutodraft(ctx context.Context, tx TxStore, d *models.Draft, season models.SeasonContext) (int, error) {
	if d.Status != models.DraftStatusInProgress {
		return 0, nil
	}
	if draftingLocked(d, season, s.clock.Now()) {
		return 0, nil
	}

	limit := d.TotalPicks - *d.CurrentPickNumber + 1
	applied := 0
	for i := 0; i < limit; i++ {
		if d.Status != models.DraftStatusInProgress {
			break
		}

		seats, err := tx.Seats(ctx)
		if err != nil {
			return applied, fmt.Errorf("load seats: %w", err)
		}
		t := turn.At(*d.CurrentPickNumber, len(seats))
		seat := seats[t.SeatNumber-1]

		cfg, err := tx.AutodraftConfig(ctx, seat.ParticipantID)
		if err != nil {
			return applied, fmt.Errorf("load autodraft config: %w", err)
		}
		if cfg == nil || !cfg.Enabled {
			break
		}

		if err := s.autoPickOnce(ctx, tx, d, season); err != nil {
			if IsCode(err, CodeCeremonyLocked) {
				break
			}
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// chooseNomination resolves the effective strategy for the participant on
// turn: user opt-in first, then the draft-level fallback, then RANDOM with
// the default seed so a pick is always produced when one is required.
func (s *Service) chooseNomination(ctx context.Context, tx TxStore, d *models.Draft, participantID uuid.UUID) (uuid.UUID, error) {
	available, sctx, err := s.strategyInputs(ctx, tx, d)
	if err != nil {
		return uuid.Nil, err
	}
	if len(available) == 0 {
		// Start preconditions make this unreachable; guard it anyway so a
		// data inconsistency surfaces as a report, not a corrupted draft.
		return uuid.Nil, errf(CodeAutodraftEmptyPool, "draft %s has no available nominations at pick %d", d.ID, *d.CurrentPickNumber)
	}

	cfg, err := tx.AutodraftConfig(ctx, participantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load autodraft config: %w", err)
	}
	if cfg != nil && cfg.Enabled {
		userCtx := sctx
		userCtx.Plan = cfg.Plan
		if cfg.Strategy == models.StrategyWisdom {
			if userCtx.Scores, err = tx.WisdomScores(ctx); err != nil {
				return uuid.Nil, fmt.Errorf("load wisdom scores: %w", err)
			}
		}
		if id, ok := autopick.ForStrategy(cfg.Strategy)(available, userCtx); ok {
			return id, nil
		}
	}

	if d.AutoPickStrategy != "" {
		if d.AutoPickStrategy == models.StrategyWisdom && sctx.Scores == nil {
			if sctx.Scores, err = tx.WisdomScores(ctx); err != nil {
				return uuid.Nil, fmt.Errorf("load wisdom scores: %w", err)
			}
		}
		if id, ok := s.draftFallback(d.AutoPickStrategy)(available, sctx); ok {
			return id, nil
		}
	}

	id, _ := autopick.Random(available, autopick.Context{Seed: autopick.DefaultSeed})
	return id, nil
}

// draftFallback maps the draft-level fallback strategy. At the draft level
// ALPHABETICAL uses the title-then-category variant.
func (s *Service) draftFallback(strategy models.AutoPickStrategy) autopick.Func {
	if strategy == models.StrategyAlphabetical {
		return autopick.AlphabeticalThenCategory
	}
	return autopick.ForStrategy(strategy)
}

// strategyInputs assembles the remaining pool and the shared strategy
// context for the draft.
func (s *Service) strategyInputs(ctx context.Context, tx TxStore, d *models.Draft) ([]uuid.UUID, autopick.Context, error) {
	pool, err := tx.Nominations(ctx)
	if err != nil {
		return nil, autopick.Context{}, fmt.Errorf("load nominations: %w", err)
	}
	picks, err := tx.Picks(ctx)
	if err != nil {
		return nil, autopick.Context{}, fmt.Errorf("load picks: %w", err)
	}
	catIdx, err := tx.CategoryIndex(ctx)
	if err != nil {
		return nil, autopick.Context{}, fmt.Errorf("load category index: %w", err)
	}

	taken := make(map[uuid.UUID]struct{}, len(picks))
	for _, p := range picks {
		taken[p.NominationID] = struct{}{}
	}

	noms := make(map[uuid.UUID]models.Nomination, len(pool))
	var available []uuid.UUID
	for _, n := range pool {
		noms[n.ID] = n
		if _, ok := taken[n.ID]; !ok {
			available = append(available, n.ID)
		}
	}

	return available, autopick.Context{
		Nominations:   noms,
		CategoryIndex: catIdx,
		Order:         d.AutoPickConfig.Order,
		Seed:          d.AutoPickSeed,
	}, nil
}
