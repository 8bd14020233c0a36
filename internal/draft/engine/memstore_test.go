package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/models"
)

// memStore is an in-memory Store: a per-draft mutex stands in for the row
// lock, and transactions work on copies that are written back only when fn
// succeeds, so a failed operation leaves no trace.
type memStore struct {
	mu        sync.Mutex
	draft     *models.Draft
	seats     []models.DraftSeat
	picks     []models.DraftPick
	events    []models.DraftEvent
	season    models.SeasonContext
	noms      []models.Nomination
	catIdx    map[uuid.UUID]int
	autodraft map[uuid.UUID]models.AutodraftConfig
	scores    map[uuid.UUID]float64
	now       func() time.Time
}

func (m *memStore) WithDraft(ctx context.Context, draftID uuid.UUID, fn func(tx TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil || m.draft.ID != draftID {
		return errf(CodeDraftNotFound, "draft %s not found", draftID)
	}

	tx := &memTx{
		store:     m,
		draft:     cloneDraft(m.draft),
		picks:     append([]models.DraftPick{}, m.picks...),
		events:    append([]models.DraftEvent{}, m.events...),
		autodraft: make(map[uuid.UUID]models.AutodraftConfig, len(m.autodraft)),
	}
	for k, v := range m.autodraft {
		tx.autodraft[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	m.draft = tx.draft
	m.picks = tx.picks
	m.events = tx.events
	m.autodraft = tx.autodraft
	return nil
}

func (m *memStore) ReadDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, []models.DraftSeat, []models.DraftPick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil || m.draft.ID != draftID {
		return nil, nil, nil, errf(CodeDraftNotFound, "draft %s not found", draftID)
	}
	return cloneDraft(m.draft), append([]models.DraftSeat{}, m.seats...), append([]models.DraftPick{}, m.picks...), nil
}

type memTx struct {
	store     *memStore
	draft     *models.Draft
	picks     []models.DraftPick
	events    []models.DraftEvent
	autodraft map[uuid.UUID]models.AutodraftConfig
}

func (t *memTx) Draft() *models.Draft { return t.draft }

func (t *memTx) UpdateDraft(ctx context.Context, d *models.Draft) error {
	t.draft = cloneDraft(d)
	return nil
}

func (t *memTx) Seats(ctx context.Context) ([]models.DraftSeat, error) {
	return append([]models.DraftSeat{}, t.store.seats...), nil
}

func (t *memTx) Picks(ctx context.Context) ([]models.DraftPick, error) {
	return append([]models.DraftPick{}, t.picks...), nil
}

func (t *memTx) InsertPick(ctx context.Context, p models.DraftPick) error {
	t.picks = append(t.picks, p)
	return nil
}

func (t *memTx) AppendEvent(ctx context.Context, typ models.DraftEventType, payload any) (*models.DraftEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ev := models.DraftEvent{
		ID:        uuid.New(),
		DraftID:   t.draft.ID,
		Type:      typ,
		Payload:   raw,
		Version:   len(t.events) + 1,
		CreatedAt: t.store.now(),
	}
	t.events = append(t.events, ev)
	return &ev, nil
}

func (t *memTx) Season(ctx context.Context) (models.SeasonContext, error) {
	return t.store.season, nil
}

func (t *memTx) Nominations(ctx context.Context) ([]models.Nomination, error) {
	return append([]models.Nomination{}, t.store.noms...), nil
}

func (t *memTx) CategoryIndex(ctx context.Context) (map[uuid.UUID]int, error) {
	return t.store.catIdx, nil
}

func (t *memTx) AutodraftConfig(ctx context.Context, userID uuid.UUID) (*models.AutodraftConfig, error) {
	cfg, ok := t.autodraft[userID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (t *memTx) UpsertAutodraftConfig(ctx context.Context, cfg models.AutodraftConfig) error {
	t.autodraft[cfg.UserID] = cfg
	return nil
}

func (t *memTx) WisdomScores(ctx context.Context) (map[uuid.UUID]float64, error) {
	return t.store.scores, nil
}

func cloneDraft(d *models.Draft) *models.Draft {
	c := *d
	return &c
}
