package evo

import (
	"errors"
	"fmt"

	"github.com/austin-mroz/stk/internal/population"
)

// ErrPopulationSize signals a violated population-size invariant. It is
// fatal and non-retryable: it means an upstream stage misbehaved.
var ErrPopulationSize = errors.New("population size invariant violated")

// SelectSurvivors shrinks pop to exactly popSize candidates by ranked
// truncation in the population total order (scaled fitness descending,
// identity tie-break). The input is never modified. An input smaller than
// popSize is an upstream invariant violation, not a tolerable state.
func SelectSurvivors(pop *population.Population, popSize int, name string) (*population.Population, error) {
	if popSize <= 0 {
		return nil, fmt.Errorf("%w: target size %d", ErrPopulationSize, popSize)
	}
	ranked := pop.Sorted()
	if len(ranked) < popSize {
		return nil, fmt.Errorf("%w: survivor selection needs >= %d candidates, got %d",
			ErrPopulationSize, popSize, len(ranked))
	}
	return population.New(name, ranked[:popSize]), nil
}
