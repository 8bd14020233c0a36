// Package autopick chooses a nomination from the remaining pool. Every
// strategy is a pure function over the available id set and a Context; none
// of them performs I/O, so the engine can run them inside its critical
// section without extra suspension points.
package autopick

import (
	"sort"

	"github.com/google/uuid"

	"github.com/galadraft/galadraft/internal/models"
)

// Context carries the read-only inputs a strategy may consult.
type Context struct {
	// Nominations holds metadata for (at least) every available id.
	Nominations map[uuid.UUID]models.Nomination
	// CategoryIndex is the configured ceremony-wide category ordering.
	CategoryIndex map[uuid.UUID]int
	// Order is the CANONICAL strategy's fixed preference list.
	Order []uuid.UUID
	// Plan is a user's ordered nomination ranking for PLAN.
	Plan []uuid.UUID
	// Seed drives RANDOM.
	Seed string
	// Scores are fitted wisdom-of-crowds desirability scores for WISDOM.
	Scores map[uuid.UUID]float64
}

// Func is a single auto-pick strategy. It returns false when the strategy
// cannot produce a choice (exhausted list, missing data); the caller then
// falls through its precedence chain.
type Func func(available []uuid.UUID, ctx Context) (uuid.UUID, bool)

// ForStrategy maps a strategy name to its implementation. Unknown names get
// Random so a choice is always producible.
func ForStrategy(s models.AutoPickStrategy) Func {
	switch s {
	case models.StrategyAlphabetical:
		return Alphabetical
	case models.StrategyCanonical:
		return Canonical
	case models.StrategyPlan:
		return Plan
	case models.StrategyByCategory:
		return ByCategory
	case models.StrategyWisdom:
		return Wisdom
	default:
		return Random
	}
}

// Random shuffles the available set with a PRNG seeded from ctx.Seed and
// takes the first element. The set is canonicalized by id first so the same
// seed and same set always reproduce the same pick regardless of input order.
func Random(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	if len(available) == 0 {
		return uuid.Nil, false
	}
	ids := sortedByID(available)
	NewRNG(ctx.Seed).Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids[0], true
}

// Alphabetical orders by normalized display title, tie-broken by id.
func Alphabetical(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	if len(available) == 0 {
		return uuid.Nil, false
	}
	ids := sortedByID(available)
	sort.SliceStable(ids, func(i, j int) bool {
		a := NormalizeTitle(ctx.Nominations[ids[i]].Title)
		b := NormalizeTitle(ctx.Nominations[ids[j]].Title)
		return a < b
	})
	return ids[0], true
}

// Canonical takes the first id of the configured fixed order that is still
// available; false once the configured order is exhausted.
func Canonical(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	return firstAvailable(ctx.Order, available)
}

// Plan takes the first id of the user's ordered ranking still available.
func Plan(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	return firstAvailable(ctx.Plan, available)
}

// ByCategory orders by configured category index, then intra-category sort
// order, then id.
func ByCategory(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	if len(available) == 0 {
		return uuid.Nil, false
	}
	ids := sortedByID(available)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ctx.Nominations[ids[i]], ctx.Nominations[ids[j]]
		if ai, bi := ctx.CategoryIndex[a.CategoryID], ctx.CategoryIndex[b.CategoryID]; ai != bi {
			return ai < bi
		}
		return a.CategorySortIndex < b.CategorySortIndex
	})
	return ids[0], true
}

// Wisdom orders by fitted desirability score descending, tie-broken by id.
// False when no available nomination has a score, so the caller falls back.
func Wisdom(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	if len(available) == 0 || len(ctx.Scores) == 0 {
		return uuid.Nil, false
	}
	ids := sortedByID(available)
	scored := ids[:0]
	for _, id := range ids {
		if _, ok := ctx.Scores[id]; ok {
			scored = append(scored, id)
		}
	}
	if len(scored) == 0 {
		return uuid.Nil, false
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return ctx.Scores[scored[i]] > ctx.Scores[scored[j]]
	})
	return scored[0], true
}

// AlphabeticalThenCategory is the draft-level system fallback variant:
// title ordering first, category order as tiebreak.
func AlphabeticalThenCategory(available []uuid.UUID, ctx Context) (uuid.UUID, bool) {
	if len(available) == 0 {
		return uuid.Nil, false
	}
	ids := sortedByID(available)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ctx.Nominations[ids[i]], ctx.Nominations[ids[j]]
		at, bt := NormalizeTitle(a.Title), NormalizeTitle(b.Title)
		if at != bt {
			return at < bt
		}
		return ctx.CategoryIndex[a.CategoryID] < ctx.CategoryIndex[b.CategoryID]
	})
	return ids[0], true
}

func firstAvailable(order, available []uuid.UUID) (uuid.UUID, bool) {
	pool := make(map[uuid.UUID]struct{}, len(available))
	for _, id := range available {
		pool[id] = struct{}{}
	}
	for _, id := range order {
		if _, ok := pool[id]; ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func sortedByID(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
