package evo

import (
	"context"
	"math/rand"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
)

// Initializer produces the generation-0 candidates for a fresh run.
type Initializer interface {
	Name() string
	Initialize(ctx context.Context, rng *rand.Rand, size int) ([]model.Candidate, error)
}

// Crossover recombines parent payloads into one offspring payload.
type Crossover interface {
	Name() string
	Apply(ctx context.Context, rng *rand.Rand, parents []model.Candidate) ([]byte, error)
}

// Mutator perturbs one parent payload into a mutant payload.
type Mutator interface {
	Name() string
	Apply(ctx context.Context, rng *rand.Rand, parent model.Candidate) ([]byte, error)
}

// Fitness computes the raw fitness-component vector of one candidate.
// Implementations may invoke external long-running tools; an error marks
// the candidate as failed, it never aborts the run.
type Fitness interface {
	Name() string
	Evaluate(ctx context.Context, candidate model.Candidate) ([]float64, error)
}

// Optimizer is the structural-refinement collaborator applied to candidates
// that do not yet carry a refined structure.
type Optimizer interface {
	Name() string
	Refine(ctx context.Context, candidate model.Candidate) ([]byte, error)
}

// ExitPredicate decides at a generation boundary whether the run should
// stop before the next generation begins.
type ExitPredicate interface {
	Name() string
	ShouldExit(pop *population.Population) bool
}

// Cleaner terminates stray external-tool processes left behind by a failed
// or interrupted refinement or evaluation. Best effort; invoked at run
// start, run end, and before checkpoint publishes that a held file handle
// could block.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// NoopOptimizer marks candidates refined without touching the payload, for
// domains with no structural-refinement step.
type NoopOptimizer struct{}

func (NoopOptimizer) Name() string {
	return "none"
}

func (NoopOptimizer) Refine(_ context.Context, candidate model.Candidate) ([]byte, error) {
	return candidate.Payload, nil
}

// NoopCleaner is the cleanup hook for domains without external tools.
type NoopCleaner struct{}

func (NoopCleaner) Cleanup(context.Context) error {
	return nil
}
