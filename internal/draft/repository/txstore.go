package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/galadraft/galadraft/internal/models"
)

// txStore is the transaction-scoped view handed to the engine while the
// draft row lock is held. Every write, the event append, and the outbox
// row land in the same transaction.
type txStore struct {
	tx    pgx.Tx
	draft *models.Draft
}

func (t *txStore) Draft() *models.Draft {
	return t.draft
}

func (t *txStore) UpdateDraft(ctx context.Context, d *models.Draft) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE drafts SET
			status = $2,
			current_pick_number = $3,
			picks_per_seat = $4,
			total_picks = $5,
			pick_deadline_at = $6,
			pick_timer_remaining_ms = $7,
			allow_drafting_after_lock = $8,
			lock_override_set_by = $9,
			lock_override_set_at = $10,
			started_at = $11,
			completed_at = $12,
			updated_at = now()
		 WHERE id = $1`,
		d.ID, d.Status, d.CurrentPickNumber, d.PicksPerSeat, d.TotalPicks,
		d.PickDeadlineAt, d.PickTimerRemainingMS, d.AllowDraftingAfterLock,
		d.LockOverrideSetBy, d.LockOverrideSetAt, d.StartedAt, d.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return nil
}

func (t *txStore) Seats(ctx context.Context) ([]models.DraftSeat, error) {
	return querySeats(ctx, t.tx, t.draft.ID)
}

func (t *txStore) Picks(ctx context.Context) ([]models.DraftPick, error) {
	return queryPicks(ctx, t.tx, t.draft.ID)
}

func (t *txStore) InsertPick(ctx context.Context, p models.DraftPick) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO draft_picks
			(id, draft_id, pick_number, round_number, seat_number,
			 participant_id, nomination_id, auto, picked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.DraftID, p.PickNumber, p.RoundNumber, p.SeatNumber,
		p.ParticipantID, p.NominationID, p.Auto, p.PickedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

// AppendEvent writes the event row with the next version in the draft's
// stream, stages the matching outbox row, and notifies the relay. All of
// it commits or rolls back with the transition; the version subquery is
// race-free because the draft row lock serializes appenders.
func (t *txStore) AppendEvent(ctx context.Context, typ models.DraftEventType, payload any) (*models.DraftEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	ev := models.DraftEvent{
		ID:      uuid.New(),
		DraftID: t.draft.ID,
		Type:    typ,
		Payload: body,
	}
	row := t.tx.QueryRow(ctx,
		`INSERT INTO draft_events (id, draft_id, event_type, payload, version, created_at)
		 VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM draft_events WHERE draft_id = $2),
			now())
		 RETURNING version, created_at`,
		ev.ID, ev.DraftID, ev.Type, body)
	if err := row.Scan(&ev.Version, &ev.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	if _, err := t.tx.Exec(ctx,
		`INSERT INTO draft_outbox (id, draft_id, event_type, payload, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		ev.ID, ev.DraftID, ev.Type, body, ev.Version); err != nil {
		return nil, fmt.Errorf("failed to insert outbox event: %w", err)
	}
	if _, err := t.tx.Exec(ctx,
		`SELECT pg_notify('draft_outbox_events', $1)`, ev.ID.String()); err != nil {
		return nil, fmt.Errorf("failed to notify outbox channel: %w", err)
	}
	return &ev, nil
}

func (t *txStore) Season(ctx context.Context) (models.SeasonContext, error) {
	var sc models.SeasonContext
	err := t.tx.QueryRow(ctx,
		`SELECT id, league_id, cancelled, ceremony_locked_at
		 FROM seasons WHERE id = $1`, t.draft.SeasonID).
		Scan(&sc.SeasonID, &sc.LeagueID, &sc.Cancelled, &sc.CeremonyLockedAt)
	if err != nil {
		return models.SeasonContext{}, fmt.Errorf("failed to get season: %w", err)
	}
	return sc, nil
}

func (t *txStore) Nominations(ctx context.Context) ([]models.Nomination, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, category_id, title, canonical_index, category_sort_index
		 FROM nominations WHERE season_id = $1 ORDER BY canonical_index`, t.draft.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nominations: %w", err)
	}
	defer rows.Close()

	var noms []models.Nomination
	for rows.Next() {
		var n models.Nomination
		if err := rows.Scan(&n.ID, &n.CategoryID, &n.Title, &n.CanonicalIndex, &n.CategorySortIndex); err != nil {
			return nil, fmt.Errorf("failed to scan nomination: %w", err)
		}
		noms = append(noms, n)
	}
	return noms, rows.Err()
}

func (t *txStore) CategoryIndex(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT category_id, sort_index
		 FROM ceremony_categories WHERE season_id = $1`, t.draft.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	idx := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var sort int
		if err := rows.Scan(&id, &sort); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		idx[id] = sort
	}
	return idx, rows.Err()
}

func (t *txStore) AutodraftConfig(ctx context.Context, userID uuid.UUID) (*models.AutodraftConfig, error) {
	var cfg models.AutodraftConfig
	err := t.tx.QueryRow(ctx,
		`SELECT draft_id, user_id, enabled, strategy, plan, updated_at
		 FROM autodraft_configs WHERE draft_id = $1 AND user_id = $2`,
		t.draft.ID, userID).
		Scan(&cfg.DraftID, &cfg.UserID, &cfg.Enabled, &cfg.Strategy, &cfg.Plan, &cfg.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get autodraft config: %w", err)
	}
	return &cfg, nil
}

func (t *txStore) UpsertAutodraftConfig(ctx context.Context, cfg models.AutodraftConfig) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO autodraft_configs (draft_id, user_id, enabled, strategy, plan, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (draft_id, user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			strategy = EXCLUDED.strategy,
			plan = EXCLUDED.plan,
			updated_at = EXCLUDED.updated_at`,
		cfg.DraftID, cfg.UserID, cfg.Enabled, cfg.Strategy, cfg.Plan, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert autodraft config: %w", err)
	}
	return nil
}

func (t *txStore) WisdomScores(ctx context.Context) (map[uuid.UUID]float64, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT w.nomination_id, w.score
		 FROM wisdom_scores w
		 JOIN nominations n ON n.id = w.nomination_id
		 WHERE n.season_id = $1 AND w.sample_size > 0`, t.draft.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wisdom scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[uuid.UUID]float64)
	for rows.Next() {
		var id uuid.UUID
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("failed to scan wisdom score: %w", err)
		}
		scores[id] = score
	}
	return scores, rows.Err()
}
