// Package wisdom estimates per-nomination latent desirability from
// historical draft orders. Each observed draft is modeled as sequential
// choice without replacement (a Plackett-Luce model): at every step the
// next pick is drawn from a softmax over the remaining pool's utilities,
// where a nomination's utility is its shared latent score scaled by the
// season's signed category weight. The fit is batch gradient ascent on the
// joint log-likelihood with a fixed iteration budget.
//
// Scores are a ranking signal only. They feed the WISDOM auto-pick
// strategy and analytics; nothing in the live draft path depends on them
// for correctness.
package wisdom

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// SeasonObservation is one historical draft: the full order in which
// nominations were picked, plus that season's per-category signed weights.
// A positive weight means desirable nominations go early, a negative weight
// means participants pick what they most want to avoid early, and a zero
// weight means the category did not matter that season.
type SeasonObservation struct {
	Order   []uuid.UUID
	Weights map[uuid.UUID]float64
}

// Input bundles the nomination pool and the observation set for one fit.
type Input struct {
	// CategoryByNomination maps every nomination to its category.
	CategoryByNomination map[uuid.UUID]uuid.UUID
	Seasons              []SeasonObservation
}

// Result holds the fitted scores. Scores are comparable only up to the
// weight sign convention; SampleSizes counts, per nomination, the choice
// events in which it sat in the remaining pool under a non-zero weight.
// A nomination with SampleSizes zero has an uninformative score.
type Result struct {
	Scores      map[uuid.UUID]float64
	SampleSizes map[uuid.UUID]int
}

// Config tunes the solver. The iteration count is a compute budget, not a
// convergence criterion; well-posed inputs settle well before the default.
type Config struct {
	Iterations   int
	LearningRate float64
}

const (
	DefaultIterations   = 200
	DefaultLearningRate = 0.05
)

func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	return c
}

// step is one choice event: the index picked, out of a remaining pool,
// with each pool member's weight for that season.
type step struct {
	chosen  int
	pool    []int
	weights []float64
}

// Fit runs the batch MLE over all seasons jointly and returns scores keyed
// by nomination id. Nominations never observed under a non-zero weight keep
// a zero score and a zero sample size.
func Fit(cfg Config, in Input) Result {
	cfg = cfg.withDefaults()

	// Dense-index the nominations so the inner loop works on slices.
	// Sorted for a deterministic index assignment.
	ids := make([]uuid.UUID, 0, len(in.CategoryByNomination))
	for id := range in.CategoryByNomination {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	index := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	steps, samples := buildSteps(in, index)

	scores := make([]float64, len(ids))
	grad := make([]float64, len(ids))
	utils := make([]float64, 0, len(ids))
	probs := make([]float64, 0, len(ids))

	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		for _, st := range steps {
			utils = utils[:0]
			maxU := math.Inf(-1)
			for k, idx := range st.pool {
				u := st.weights[k] * scores[idx]
				utils = append(utils, u)
				if u > maxU {
					maxU = u
				}
			}
			var z float64
			probs = probs[:0]
			for _, u := range utils {
				e := math.Exp(u - maxU)
				probs = append(probs, e)
				z += e
			}
			for k, idx := range st.pool {
				p := probs[k] / z
				g := -st.weights[k] * p
				if k == st.chosen {
					g += st.weights[k]
				}
				grad[idx] += g
			}
		}

		for i := range scores {
			scores[i] += cfg.LearningRate * grad[i]
		}
		center(scores, samples)
	}

	out := Result{
		Scores:      make(map[uuid.UUID]float64, len(ids)),
		SampleSizes: make(map[uuid.UUID]int, len(ids)),
	}
	for i, id := range ids {
		out.Scores[id] = scores[i]
		out.SampleSizes[id] = samples[i]
	}
	return out
}

// buildSteps flattens every season into choice events. Zero-weight
// nominations contribute no likelihood gradient, so they are excluded from
// each season's pool entirely; that also keeps their sample counts at zero.
func buildSteps(in Input, index map[uuid.UUID]int) ([]step, []int) {
	samples := make([]int, len(index))
	var steps []step

	for _, season := range in.Seasons {
		order := make([]int, 0, len(season.Order))
		weights := make([]float64, 0, len(season.Order))
		for _, nomID := range season.Order {
			idx, ok := index[nomID]
			if !ok {
				continue
			}
			w := season.Weights[in.CategoryByNomination[nomID]]
			if w == 0 {
				continue
			}
			order = append(order, idx)
			weights = append(weights, w)
		}

		// At step t the remaining pool is order[t:]. A singleton pool is a
		// forced pick and carries no gradient, but it still counts toward
		// the sample size.
		for t := 0; t < len(order); t++ {
			for _, idx := range order[t:] {
				samples[idx]++
			}
			if len(order)-t > 1 {
				steps = append(steps, step{chosen: 0, pool: order[t:], weights: weights[t:]})
			}
		}
	}
	return steps, samples
}

// center subtracts the observed entries' mean each iteration so the
// scores stay anchored around zero and magnitudes stay comparable across
// runs. Entries with no samples are left untouched at exactly zero.
func center(scores []float64, samples []int) {
	var sum float64
	n := 0
	for i, s := range scores {
		if samples[i] == 0 {
			continue
		}
		sum += s
		n++
	}
	if n == 0 {
		return
	}
	mean := sum / float64(n)
	for i := range scores {
		if samples[i] > 0 {
			scores[i] -= mean
		}
	}
}
