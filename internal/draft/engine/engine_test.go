package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galadraft/galadraft/internal/models"
)

var t0 = time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *memStore
	clock   *clockwork.FakeClock
	svc     *Service
	draftID uuid.UUID
	users   []uuid.UUID
	noms    []models.Nomination
	ctx     context.Context
}

type envOption func(*testEnv)

func withTimer(seconds int) envOption {
	return func(e *testEnv) { e.store.draft.PickTimerSeconds = &seconds }
}

func withPicksPerSeat(n int) envOption {
	return func(e *testEnv) { e.store.draft.PicksPerSeat = n }
}

func withRemainder(r models.RemainderStrategy) envOption {
	return func(e *testEnv) { e.store.draft.RemainderStrategy = r }
}

func withCeremonyLock(at time.Time) envOption {
	return func(e *testEnv) { e.store.season.CeremonyLockedAt = &at }
}

func newTestEnv(t *testing.T, seatCount, nomCount int, opts ...envOption) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(t0)
	draftID := uuid.New()

	env := &testEnv{
		clock:   clock,
		draftID: draftID,
		ctx:     context.Background(),
	}

	var seats []models.DraftSeat
	for i := 0; i < seatCount; i++ {
		userID := uuid.New()
		env.users = append(env.users, userID)
		seats = append(seats, models.DraftSeat{DraftID: draftID, SeatNumber: i + 1, ParticipantID: userID})
	}

	cat := uuid.New()
	for i := 0; i < nomCount; i++ {
		env.noms = append(env.noms, models.Nomination{
			ID:                uuid.New(),
			CategoryID:        cat,
			Title:             string(rune('A' + i%26)),
			CanonicalIndex:    i,
			CategorySortIndex: i,
		})
	}

	env.store = &memStore{
		draft: &models.Draft{
			ID:                draftID,
			SeasonID:          uuid.New(),
			Status:            models.DraftStatusPending,
			OrderType:         models.DraftOrderSnake,
			RemainderStrategy: models.RemainderUndrafted,
			AutoPickSeed:      "test-seed",
			CreatedAt:         t0,
			UpdatedAt:         t0,
		},
		seats:     seats,
		noms:      env.noms,
		season:    models.SeasonContext{SeasonID: uuid.New(), LeagueID: uuid.New()},
		catIdx:    map[uuid.UUID]int{cat: 0},
		autodraft: map[uuid.UUID]models.AutodraftConfig{},
		now:       clock.Now,
	}
	for _, opt := range opts {
		opt(env)
	}

	env.svc = New(env.store, clock)
	return env
}

func (e *testEnv) start(t *testing.T) *models.Draft {
	t.Helper()
	d, err := e.svc.Start(e.ctx, e.draftID, Actor{UserID: e.users[0], Commissioner: true})
	require.NoError(t, err)
	return d
}

// availableNomination returns a nomination not yet picked.
func (e *testEnv) availableNomination(t *testing.T) uuid.UUID {
	t.Helper()
	taken := map[uuid.UUID]bool{}
	for _, p := range e.store.picks {
		taken[p.NominationID] = true
	}
	for _, n := range e.noms {
		if !taken[n.ID] {
			return n.ID
		}
	}
	t.Fatal("pool exhausted")
	return uuid.Nil
}

func TestStartValidations(t *testing.T) {
	t.Run("not enough seats", func(t *testing.T) {
		env := newTestEnv(t, 1, 5)
		_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, CodeNotEnoughParticipants, CodeOf(err))
	})

	t.Run("empty pool", func(t *testing.T) {
		env := newTestEnv(t, 2, 0)
		_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, CodeMissingNominations, CodeOf(err))
	})

	t.Run("insufficient nominations", func(t *testing.T) {
		env := newTestEnv(t, 4, 3)
		_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, CodeInsufficientNoms, CodeOf(err))
	})

	t.Run("pool smaller than pick budget", func(t *testing.T) {
		env := newTestEnv(t, 2, 4, withPicksPerSeat(3))
		_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, CodeInsufficientNoms, CodeOf(err))
		assert.Equal(t, models.DraftStatusPending, env.store.draft.Status)
	})

	t.Run("already started", func(t *testing.T) {
		env := newTestEnv(t, 2, 4)
		env.start(t)
		_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, CodeAlreadyStarted, CodeOf(err))
	})

	t.Run("failed start leaves no trace", func(t *testing.T) {
		env := newTestEnv(t, 1, 5)
		_, _ = env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
		assert.Equal(t, models.DraftStatusPending, env.store.draft.Status)
		assert.Empty(t, env.store.events)
	})
}

// 2 seats, 3 nominations, UNDRAFTED: picks_per_seat computes to 1, the
// draft completes after 2 picks, and one nomination stays unpicked.
func TestScenarioTwoSeatsThreeNominations(t *testing.T) {
	env := newTestEnv(t, 2, 3)
	d := env.start(t)

	assert.Equal(t, 1, d.PicksPerSeat)
	assert.Equal(t, 2, d.TotalPicks)

	_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[0]}, env.availableNomination(t))
	require.NoError(t, err)
	_, err = env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[1]}, env.availableNomination(t))
	require.NoError(t, err)

	final := env.store.draft
	assert.Equal(t, models.DraftStatusCompleted, final.Status)
	require.NotNil(t, final.CurrentPickNumber)
	assert.Equal(t, final.TotalPicks+1, *final.CurrentPickNumber)
	assert.NotNil(t, final.CompletedAt)
	assert.Nil(t, final.PickDeadlineAt)
	assert.Len(t, env.store.picks, 2)

	// Exactly one nomination remains unpicked.
	taken := map[uuid.UUID]bool{}
	for _, p := range env.store.picks {
		taken[p.NominationID] = true
	}
	assert.Len(t, taken, 2)
}

// FULL_POOL extends the draft by a partial round: 2 seats over 3
// nominations means 3 picks, with the extra pick falling to seat 2.
func TestFullPoolRemainderExtendsDraft(t *testing.T) {
	env := newTestEnv(t, 2, 3, withRemainder(models.RemainderFullPool))
	d := env.start(t)

	assert.Equal(t, 1, d.PicksPerSeat)
	assert.Equal(t, 3, d.TotalPicks)

	for _, idx := range []int{0, 1, 1} {
		_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[idx]}, env.availableNomination(t))
		require.NoError(t, err)
	}

	assert.Equal(t, models.DraftStatusCompleted, env.store.draft.Status)
	require.Len(t, env.store.picks, 3)
	assert.Equal(t, 2, env.store.picks[2].SeatNumber)
	assert.Equal(t, 2, env.store.picks[2].RoundNumber)
}

func TestApplyPickValidation(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	env.start(t)

	t.Run("not on turn", func(t *testing.T) {
		_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[1]}, env.availableNomination(t))
		assert.Equal(t, CodeNotOnTurn, CodeOf(err))
	})

	t.Run("unknown nomination", func(t *testing.T) {
		_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[0]}, uuid.New())
		assert.Equal(t, CodeNominationUnknown, CodeOf(err))
	})

	t.Run("nomination taken", func(t *testing.T) {
		first := env.availableNomination(t)
		_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[0]}, first)
		require.NoError(t, err)
		_, err = env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[1]}, first)
		assert.Equal(t, CodeNominationTaken, CodeOf(err))
	})

	t.Run("wrong state", func(t *testing.T) {
		_, err := env.svc.Pause(env.ctx, env.draftID, Actor{Commissioner: true})
		require.NoError(t, err)
		_, err = env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[1]}, env.availableNomination(t))
		assert.Equal(t, CodeInvalidState, CodeOf(err))
	})
}

// Start with a 1-second timer; after 2 seconds a tick applies exactly one
// auto-pick for seat 1, advances to pick 2, and sets a fresh deadline.
func TestTickAppliesAutoPickOnExpiry(t *testing.T) {
	env := newTestEnv(t, 2, 4, withTimer(1), withPicksPerSeat(2))
	env.start(t)

	env.clock.Advance(2 * time.Second)
	applied, err := env.svc.Tick(env.ctx, env.draftID)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	d := env.store.draft
	require.NotNil(t, d.CurrentPickNumber)
	assert.Equal(t, 2, *d.CurrentPickNumber)
	require.Len(t, env.store.picks, 1)
	assert.True(t, env.store.picks[0].Auto)
	assert.Equal(t, 1, env.store.picks[0].SeatNumber)

	require.NotNil(t, d.PickDeadlineAt)
	assert.Equal(t, env.clock.Now().Add(time.Second), *d.PickDeadlineAt)
}

func TestTickIdempotentWhenNothingDue(t *testing.T) {
	env := newTestEnv(t, 2, 4, withTimer(60), withPicksPerSeat(2))
	env.start(t)
	before := len(env.store.events)

	for i := 0; i < 3; i++ {
		applied, err := env.svc.Tick(env.ctx, env.draftID)
		require.NoError(t, err)
		assert.Zero(t, applied)
	}
	assert.Len(t, env.store.events, before)
	assert.Empty(t, env.store.picks)
}

func TestPauseResumeTimerRoundTrip(t *testing.T) {
	env := newTestEnv(t, 2, 4, withTimer(60), withPicksPerSeat(2))
	env.start(t)

	env.clock.Advance(18 * time.Second)
	_, err := env.svc.Pause(env.ctx, env.draftID, Actor{Commissioner: true})
	require.NoError(t, err)

	d := env.store.draft
	assert.Nil(t, d.PickDeadlineAt)
	require.NotNil(t, d.PickTimerRemainingMS)
	assert.Equal(t, int64(42000), *d.PickTimerRemainingMS)

	env.clock.Advance(10 * time.Minute)
	_, err = env.svc.Resume(env.ctx, env.draftID, Actor{Commissioner: true})
	require.NoError(t, err)

	d = env.store.draft
	assert.Nil(t, d.PickTimerRemainingMS)
	require.NotNil(t, d.PickDeadlineAt)
	assert.Equal(t, env.clock.Now().Add(42*time.Second), *d.PickDeadlineAt)
}

func TestSnapshotVersionEqualsPickCount(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))

	snap, err := env.svc.Snapshot(env.ctx, env.draftID)
	require.NoError(t, err)
	assert.Zero(t, snap.Version)
	assert.Nil(t, snap.Turn)

	env.start(t)
	for i := 0; i < 3; i++ {
		actorIdx := []int{0, 1, 1}[i]
		_, err := env.svc.ApplyPick(env.ctx, env.draftID, Actor{UserID: env.users[actorIdx]}, env.availableNomination(t))
		require.NoError(t, err)

		snap, err = env.svc.Snapshot(env.ctx, env.draftID)
		require.NoError(t, err)
		assert.Equal(t, i+1, snap.Version)
		assert.Len(t, snap.Picks, i+1)
	}

	// Pick 4 is round 2 reverse: seat 1 again.
	require.NotNil(t, snap.Turn)
	assert.Equal(t, 1, snap.Turn.SeatNumber)
	assert.Equal(t, 2, snap.Turn.RoundNumber)
}

// A chain of consecutive auto-enabled seats resolves inside one call.
func TestImmediateAutodraftCascade(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	for _, u := range env.users {
		env.store.autodraft[u] = models.AutodraftConfig{
			DraftID:  env.draftID,
			UserID:   u,
			Enabled:  true,
			Strategy: models.StrategyRandom,
		}
	}

	env.start(t)

	d := env.store.draft
	assert.Equal(t, models.DraftStatusCompleted, d.Status)
	assert.Len(t, env.store.picks, 4)
	for _, p := range env.store.picks {
		assert.True(t, p.Auto)
	}
}

func TestAutodraftUpsertTriggersImmediatePick(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	env.start(t)

	err := env.svc.UpsertAutodraft(env.ctx, env.draftID, Actor{UserID: env.users[0]}, models.AutodraftConfig{
		UserID:   env.users[0],
		Enabled:  true,
		Strategy: models.StrategyAlphabetical,
	})
	require.NoError(t, err)

	require.Len(t, env.store.picks, 1)
	assert.Equal(t, 1, env.store.picks[0].SeatNumber)
	// Seat 2 is human-controlled, so the cascade stopped there.
	assert.Equal(t, 2, *env.store.draft.CurrentPickNumber)
}

func TestCeremonyLockBlocksUntilOverride(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2), withCeremonyLock(t0.Add(-time.Hour)))

	_, err := env.svc.Start(env.ctx, env.draftID, Actor{Commissioner: true})
	assert.Equal(t, CodeCeremonyLocked, CodeOf(err))

	commissioner := Actor{UserID: uuid.New(), Commissioner: true}
	_, err = env.svc.SetLockOverride(env.ctx, env.draftID, commissioner, true)
	require.NoError(t, err)

	d := env.start(t)
	assert.Equal(t, models.DraftStatusInProgress, d.Status)
	require.NotNil(t, env.store.draft.LockOverrideSetBy)
	assert.Equal(t, commissioner.UserID, *env.store.draft.LockOverrideSetBy)
}

// Revoking the override must succeed even when the seat on turn has
// auto-pick enabled: the lock stops the cascade, it does not abort the
// commissioner's write.
func TestLockRevokeWithAutodraftedSeatOnTurn(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	env.start(t)

	env.store.autodraft[env.users[0]] = models.AutodraftConfig{
		DraftID:  env.draftID,
		UserID:   env.users[0],
		Enabled:  true,
		Strategy: models.StrategyRandom,
	}
	lockAt := env.clock.Now().Add(-time.Minute)
	env.store.season.CeremonyLockedAt = &lockAt
	env.store.draft.AllowDraftingAfterLock = true

	d, err := env.svc.SetLockOverride(env.ctx, env.draftID, Actor{UserID: uuid.New(), Commissioner: true}, false)
	require.NoError(t, err)
	assert.False(t, d.AllowDraftingAfterLock)
	assert.False(t, env.store.draft.AllowDraftingAfterLock)
	assert.Empty(t, env.store.picks)
}

// Tick on a locked draft is a no-op even with an expired deadline; the
// timer fires again once the lock is lifted or overridden.
func TestTickNoopWhenCeremonyLocked(t *testing.T) {
	env := newTestEnv(t, 2, 4, withTimer(1), withPicksPerSeat(2))
	env.start(t)

	lockAt := env.clock.Now()
	env.store.season.CeremonyLockedAt = &lockAt
	env.clock.Advance(2 * time.Second)

	for i := 0; i < 2; i++ {
		applied, err := env.svc.Tick(env.ctx, env.draftID)
		require.NoError(t, err)
		assert.Zero(t, applied)
	}
	assert.Empty(t, env.store.picks)
	assert.Equal(t, models.DraftStatusInProgress, env.store.draft.Status)
}

func TestLockOverrideRequiresCommissioner(t *testing.T) {
	env := newTestEnv(t, 2, 4)
	_, err := env.svc.SetLockOverride(env.ctx, env.draftID, Actor{UserID: env.users[0]}, true)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	env.start(t)

	d, err := env.svc.Cancel(env.ctx, env.draftID, "season cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCancelled, d.Status)
	assert.Nil(t, d.PickDeadlineAt)

	_, err = env.svc.Cancel(env.ctx, env.draftID, "again")
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}

func TestEventVersionsStrictlyIncrease(t *testing.T) {
	env := newTestEnv(t, 2, 4, withPicksPerSeat(2))
	env.start(t)
	_, err := env.svc.Pause(env.ctx, env.draftID, Actor{Commissioner: true})
	require.NoError(t, err)
	_, err = env.svc.Resume(env.ctx, env.draftID, Actor{Commissioner: true})
	require.NoError(t, err)

	for i, ev := range env.store.events {
		assert.Equal(t, i+1, ev.Version)
	}
}

func TestValidateTransitionTable(t *testing.T) {
	assert.NoError(t, ValidateTransition(models.DraftStatusPending, models.DraftStatusInProgress))
	assert.NoError(t, ValidateTransition(models.DraftStatusInProgress, models.DraftStatusPaused))
	assert.NoError(t, ValidateTransition(models.DraftStatusPaused, models.DraftStatusInProgress))
	assert.NoError(t, ValidateTransition(models.DraftStatusPaused, models.DraftStatusCancelled))

	assert.Error(t, ValidateTransition(models.DraftStatusPending, models.DraftStatusPaused))
	assert.Error(t, ValidateTransition(models.DraftStatusCompleted, models.DraftStatusInProgress))
	assert.Error(t, ValidateTransition(models.DraftStatusCancelled, models.DraftStatusInProgress))
}
