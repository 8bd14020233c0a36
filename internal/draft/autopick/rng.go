package autopick

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed is used when a draft has no stored auto-pick seed. Picks made
// with it are still deterministic and replayable.
const DefaultSeed = "galadraft"

// RNG is a deterministic pseudo-random source derived from a seed string.
// The same seed always yields the same stream, which keeps auto-picks
// auditable and testable independent of the process-global random source.
type RNG struct {
	r *rand.Rand
}

// NewRNG derives an RNG from seed. An empty seed falls back to DefaultSeed.
func NewRNG(seed string) *RNG {
	if seed == "" {
		seed = DefaultSeed
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return &RNG{r: rand.New(rand.NewSource(int64(h.Sum64())))}
}

// Float64 returns the next float in [0, 1).
func (g *RNG) Float64() float64 { return g.r.Float64() }

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (g *RNG) Shuffle(n int, swap func(i, j int)) { g.r.Shuffle(n, swap) }
