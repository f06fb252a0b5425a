package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/austin-mroz/stk/internal/model"
)

// Selector chooses which ranked candidates participate in crossover or
// mutation. Sampling is driven entirely by the supplied random source, so
// runs are reproducible given the run seed.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, ranked []model.Candidate, n int) ([]model.Candidate, error)
}

// RouletteSelector samples fitness-proportionally, without replacement
// within one call. Scaled fitness values are shifted so the worst candidate
// still has a minimal, non-zero share.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, ranked []model.Candidate, n int) ([]model.Candidate, error) {
	if err := checkSelectArgs(rng, ranked, n); err != nil {
		return nil, err
	}

	remaining := append([]model.Candidate(nil), ranked...)
	weights := make([]float64, len(remaining))
	shift := 0.0
	for _, c := range remaining {
		if c.ScaledFitness < shift {
			shift = c.ScaledFitness
		}
	}
	for i, c := range remaining {
		weights[i] = c.ScaledFitness - shift + 1e-9
	}

	out := make([]model.Candidate, 0, n)
	for len(out) < n {
		total := 0.0
		for _, w := range weights {
			total += w
		}
		pick := rng.Float64() * total
		acc := 0.0
		chosen := len(remaining) - 1
		for i, w := range weights {
			acc += w
			if pick <= acc {
				chosen = i
				break
			}
		}
		out = append(out, remaining[chosen])
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
		weights = append(weights[:chosen], weights[chosen+1:]...)
	}
	return out, nil
}

// RankSelector samples proportionally to rank, ignoring the magnitude of
// fitness differences. Without replacement within one call.
type RankSelector struct{}

func (RankSelector) Name() string {
	return "rank"
}

func (RankSelector) Select(rng *rand.Rand, ranked []model.Candidate, n int) ([]model.Candidate, error) {
	if err := checkSelectArgs(rng, ranked, n); err != nil {
		return nil, err
	}

	remaining := append([]model.Candidate(nil), ranked...)
	out := make([]model.Candidate, 0, n)
	for len(out) < n {
		size := len(remaining)
		total := float64(size*(size+1)) / 2
		pick := rng.Float64() * total
		acc := 0.0
		chosen := size - 1
		for i := 0; i < size; i++ {
			// remaining is best-first; rank weight size-i.
			acc += float64(size - i)
			if pick <= acc {
				chosen = i
				break
			}
		}
		out = append(out, remaining[chosen])
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return out, nil
}

// TournamentSelector runs one tournament per slot, sampling with
// replacement across slots but never returning the same candidate twice in
// one call.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Select(rng *rand.Rand, ranked []model.Candidate, n int) ([]model.Candidate, error) {
	if err := checkSelectArgs(rng, ranked, n); err != nil {
		return nil, err
	}

	// Tournaments draw from distinct identities only; a pool carrying
	// duplicates must not let the redraw loop chase identities that can
	// never satisfy the no-repeat guarantee.
	seen := make(map[string]struct{}, len(ranked))
	pool := make([]model.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if _, dup := seen[c.Identity]; dup {
			continue
		}
		seen[c.Identity] = struct{}{}
		pool = append(pool, c)
	}
	if n > len(pool) {
		return nil, fmt.Errorf("selection count %d exceeds distinct pool size %d", n, len(pool))
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > len(pool) {
		tournamentSize = len(pool)
	}

	taken := make(map[string]struct{}, n)
	out := make([]model.Candidate, 0, n)
	for len(out) < n {
		best := pool[rng.Intn(len(pool))]
		for i := 1; i < tournamentSize; i++ {
			candidate := pool[rng.Intn(len(pool))]
			if candidate.Less(best) {
				best = candidate
			}
		}
		if _, dup := taken[best.Identity]; dup {
			// Re-draw; with n <= len(pool) this terminates because
			// every remaining identity has a positive chance of
			// winning a tournament it fully occupies.
			continue
		}
		taken[best.Identity] = struct{}{}
		out = append(out, best)
	}
	return out, nil
}

func checkSelectArgs(rng *rand.Rand, ranked []model.Candidate, n int) error {
	if rng == nil {
		return errors.New("random source is required")
	}
	if n <= 0 {
		return fmt.Errorf("selection count must be > 0, got %d", n)
	}
	if n > len(ranked) {
		return fmt.Errorf("selection count %d exceeds pool size %d", n, len(ranked))
	}
	return nil
}

func init() {
	Selectors.MustRegister("roulette", func(Params) (Selector, error) {
		return RouletteSelector{}, nil
	})
	Selectors.MustRegister("rank", func(Params) (Selector, error) {
		return RankSelector{}, nil
	})
	Selectors.MustRegister("tournament", func(params Params) (Selector, error) {
		return TournamentSelector{TournamentSize: params.Int("tournament_size", 3)}, nil
	})
}
