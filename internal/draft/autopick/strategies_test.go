package autopick

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galadraft/galadraft/internal/models"
)

func nom(title string, sortIdx int, cat uuid.UUID) models.Nomination {
	return models.Nomination{
		ID:                uuid.New(),
		CategoryID:        cat,
		Title:             title,
		CategorySortIndex: sortIdx,
	}
}

func TestRandomDeterminism(t *testing.T) {
	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		ids = append(ids, uuid.New())
	}
	ctx := Context{Seed: "season-42"}

	first, ok := Random(ids, ctx)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		// Input order must not matter.
		shuffled := append([]uuid.UUID{}, ids...)
		shuffled[0], shuffled[len(shuffled)-1] = shuffled[len(shuffled)-1], shuffled[0]
		again, ok := Random(shuffled, ctx)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}

	other, ok := Random(ids, Context{Seed: "different"})
	require.True(t, ok)
	again, ok := Random(ids, Context{Seed: "different"})
	require.True(t, ok)
	assert.Equal(t, other, again)
}

func TestRandomEmptyPool(t *testing.T) {
	_, ok := Random(nil, Context{Seed: "x"})
	assert.False(t, ok)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "banshees of inisherin", NormalizeTitle("The Banshees of Inisherin"))
	assert.Equal(t, "amelie", NormalizeTitle("Amélie"))
	assert.Equal(t, "quiet place", NormalizeTitle("A Quiet Place"))
	assert.Equal(t, "unexpected journey", NormalizeTitle("An Unexpected Journey"))
	assert.Equal(t, "theodore", NormalizeTitle("Theodore"))
}

func TestAlphabetical(t *testing.T) {
	cat := uuid.New()
	a := nom("Éternité", 0, cat)
	b := nom("The Apartment", 0, cat)
	c := nom("Zodiac", 0, cat)
	ctx := Context{Nominations: map[uuid.UUID]models.Nomination{
		a.ID: a, b.ID: b, c.ID: c,
	}}

	got, ok := Alphabetical([]uuid.UUID{c.ID, a.ID, b.ID}, ctx)
	require.True(t, ok)
	// "apartment" < "eternite" < "zodiac"
	assert.Equal(t, b.ID, got)
}

func TestCanonicalExhausted(t *testing.T) {
	wanted := uuid.New()
	gone := uuid.New()
	avail := []uuid.UUID{uuid.New(), wanted}

	got, ok := Canonical(avail, Context{Order: []uuid.UUID{gone, wanted}})
	require.True(t, ok)
	assert.Equal(t, wanted, got)

	_, ok = Canonical(avail, Context{Order: []uuid.UUID{gone}})
	assert.False(t, ok)
}

func TestPlanPrefersEarliestAvailable(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	got, ok := Plan([]uuid.UUID{second, first}, Context{Plan: []uuid.UUID{first, second}})
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestByCategory(t *testing.T) {
	catA, catB := uuid.New(), uuid.New()
	lead := nom("Lead", 2, catA)
	support := nom("Support", 1, catA)
	song := nom("Song", 0, catB)
	ctx := Context{
		Nominations: map[uuid.UUID]models.Nomination{
			lead.ID: lead, support.ID: support, song.ID: song,
		},
		CategoryIndex: map[uuid.UUID]int{catA: 0, catB: 1},
	}

	got, ok := ByCategory([]uuid.UUID{song.ID, lead.ID, support.ID}, ctx)
	require.True(t, ok)
	assert.Equal(t, support.ID, got, "lowest category index, then intra-category order")
}

func TestWisdom(t *testing.T) {
	a, b, unscored := uuid.New(), uuid.New(), uuid.New()
	ctx := Context{Scores: map[uuid.UUID]float64{a: 0.4, b: 1.7}}

	got, ok := Wisdom([]uuid.UUID{a, b, unscored}, ctx)
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = Wisdom([]uuid.UUID{unscored}, ctx)
	assert.False(t, ok)
}

func TestForStrategyFallsBackToRandom(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	got, ok := ForStrategy(models.AutoPickStrategy("UNKNOWN"))(ids, Context{Seed: "s"})
	require.True(t, ok)
	assert.Contains(t, ids, got)
}
