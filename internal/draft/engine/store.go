package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/models"
)

// TxStore is the storage view inside one guarded critical section. The
// draft row is already exclusively locked when fn receives a TxStore, and
// every write goes into the same transaction: either the whole transition
// commits, or none of it is observable.
type TxStore interface {
	// Draft returns the locked draft row as read at lock acquisition.
	Draft() *models.Draft
	// UpdateDraft persists the mutated draft fields.
	UpdateDraft(ctx context.Context, d *models.Draft) error
	// Seats returns the draft's seats ordered by seat number.
	Seats(ctx context.Context) ([]models.DraftSeat, error)
	// Picks returns committed picks ordered by pick number.
	Picks(ctx context.Context) ([]models.DraftPick, error)
	// InsertPick appends an immutable pick record.
	InsertPick(ctx context.Context, p models.DraftPick) error
	// AppendEvent appends a draft event, assigning the next version in the
	// draft's stream, and stages it for post-commit emission.
	AppendEvent(ctx context.Context, typ models.DraftEventType, payload any) (*models.DraftEvent, error)
	// Season returns the owning season/ceremony context.
	Season(ctx context.Context) (models.SeasonContext, error)
	// Nominations returns the full nomination pool for the season's ceremony.
	Nominations(ctx context.Context) ([]models.Nomination, error)
	// CategoryIndex returns the configured ceremony category ordering.
	CategoryIndex(ctx context.Context) (map[uuid.UUID]int, error)
	// AutodraftConfig returns the user's opt-in config, or nil when unset.
	AutodraftConfig(ctx context.Context, userID uuid.UUID) (*models.AutodraftConfig, error)
	// UpsertAutodraftConfig creates or replaces a user's opt-in config.
	UpsertAutodraftConfig(ctx context.Context, cfg models.AutodraftConfig) error
	// WisdomScores returns fitted desirability scores for the ceremony's
	// nominations; empty when no fit has run.
	WisdomScores(ctx context.Context) (map[uuid.UUID]float64, error)
}

// Store is the engine's persistence boundary. WithDraft is the concurrency
// guard: it acquires exclusive ownership of the draft aggregate for the
// duration of fn and releases it at commit or rollback. Operations on
// different drafts never contend.
type Store interface {
	WithDraft(ctx context.Context, draftID uuid.UUID, fn func(tx TxStore) error) error

	// ReadDraft is the read-only snapshot path: a consistent read of the
	// draft, its seats, and its picks, with no lock held.
	ReadDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, []models.DraftSeat, []models.DraftPick, error)
}
