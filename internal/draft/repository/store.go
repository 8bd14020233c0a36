// Package repository is the Postgres implementation of the engine's
// storage boundary. WithDraft is the concurrency guard: it opens a
// transaction, locks the draft row with SELECT ... FOR UPDATE, and runs
// the engine's critical section against the transaction, so every draft
// has exactly one writer at a time while drafts never block each other.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galadraft/galadraft/internal/draft/engine"
	"github.com/galadraft/galadraft/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const draftColumns = `id, season_id, status, order_type, current_pick_number,
	picks_per_seat, remainder_strategy, total_picks, pick_timer_seconds,
	pick_deadline_at, pick_timer_remaining_ms, auto_pick_strategy,
	auto_pick_seed, auto_pick_config, allow_drafting_after_lock,
	lock_override_set_by, lock_override_set_at, started_at, completed_at,
	created_at, updated_at`

// WithDraft acquires the draft row lock, runs fn against a tx-scoped
// store, and commits on success. A failed fn rolls the whole transition
// back, so precondition failures leave no trace.
func (s *Store) WithDraft(ctx context.Context, draftID uuid.UUID, fn func(tx engine.TxStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1 FOR UPDATE`, draftID)
	d, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &engine.Error{Code: engine.CodeDraftNotFound, Message: fmt.Sprintf("draft %s not found", draftID)}
		}
		return fmt.Errorf("failed to lock draft: %w", err)
	}

	if err := fn(&txStore{tx: tx, draft: d}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadDraft is the snapshot path: a consistent read with no row lock.
func (s *Store) ReadDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, []models.DraftSeat, []models.DraftPick, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, draftID)
	d, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, &engine.Error{Code: engine.CodeDraftNotFound, Message: fmt.Sprintf("draft %s not found", draftID)}
		}
		return nil, nil, nil, fmt.Errorf("failed to get draft: %w", err)
	}

	seats, err := querySeats(ctx, tx, draftID)
	if err != nil {
		return nil, nil, nil, err
	}
	picks, err := queryPicks(ctx, tx, draftID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}
	return d, seats, picks, nil
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	err := row.Scan(
		&d.ID,
		&d.SeasonID,
		&d.Status,
		&d.OrderType,
		&d.CurrentPickNumber,
		&d.PicksPerSeat,
		&d.RemainderStrategy,
		&d.TotalPicks,
		&d.PickTimerSeconds,
		&d.PickDeadlineAt,
		&d.PickTimerRemainingMS,
		&d.AutoPickStrategy,
		&d.AutoPickSeed,
		&d.AutoPickConfig,
		&d.AllowDraftingAfterLock,
		&d.LockOverrideSetBy,
		&d.LockOverrideSetAt,
		&d.StartedAt,
		&d.CompletedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func querySeats(ctx context.Context, tx pgx.Tx, draftID uuid.UUID) ([]models.DraftSeat, error) {
	rows, err := tx.Query(ctx,
		`SELECT draft_id, seat_number, participant_id
		 FROM draft_seats WHERE draft_id = $1 ORDER BY seat_number`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	defer rows.Close()

	var seats []models.DraftSeat
	for rows.Next() {
		var s models.DraftSeat
		if err := rows.Scan(&s.DraftID, &s.SeatNumber, &s.ParticipantID); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func queryPicks(ctx context.Context, tx pgx.Tx, draftID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, draft_id, pick_number, round_number, seat_number,
		        participant_id, nomination_id, auto, picked_at
		 FROM draft_picks WHERE draft_id = $1 ORDER BY pick_number`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		if err := rows.Scan(&p.ID, &p.DraftID, &p.PickNumber, &p.RoundNumber,
			&p.SeatNumber, &p.ParticipantID, &p.NominationID, &p.Auto, &p.PickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}
