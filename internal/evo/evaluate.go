package evo

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
)

// Evaluator applies the fitness strategy to every candidate that still
// needs a score. Candidates already carrying raw fitness are left
// untouched, so re-evaluating a merged population never repeats expensive
// work. One candidate's failure never blocks the others.
type Evaluator struct {
	Fitness Fitness
	Workers int
	Timeout time.Duration
	Cleaner Cleaner
}

// Evaluate returns a population where every candidate either has raw
// fitness or is marked failed. Only a canceled context aborts the stage,
// and only after in-flight candidate work has completed.
func (e *Evaluator) Evaluate(ctx context.Context, pop *population.Population) (*population.Population, error) {
	pending := make([]model.Candidate, 0, pop.Size())
	for c := range pop.All() {
		if !c.Evaluated() {
			pending = append(pending, c)
		}
	}

	results := fanOut(ctx, pending, e.Workers, e.Timeout, func(ctx context.Context, c model.Candidate) model.Candidate {
		raw, err := e.Fitness.Evaluate(ctx, c)
		if err != nil {
			return c.WithEvaluationFailed()
		}
		return c.WithRawFitness(raw)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := pop.Map(func(c model.Candidate) model.Candidate {
		if next, ok := results[c.Identity]; ok {
			return next
		}
		return c
	})
	return out, nil
}

// Cleanup invokes the external-tool cleanup hook, if any.
func (e *Evaluator) Cleanup(ctx context.Context) error {
	if e.Cleaner == nil {
		return nil
	}
	return e.Cleaner.Cleanup(ctx)
}

// fanOut runs candidate-level work concurrently under a bounded worker
// pool. A per-candidate timeout, when set, scopes each unit of work.
func fanOut(ctx context.Context, pending []model.Candidate, workers int, timeout time.Duration, apply func(context.Context, model.Candidate) model.Candidate) map[string]model.Candidate {
	if workers <= 0 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)
	var mu sync.Mutex
	results := make(map[string]model.Candidate, len(pending))

	for _, candidate := range pending {
		p.Go(func() {
			cctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			next := apply(cctx, candidate)

			mu.Lock()
			results[next.Identity] = next
			mu.Unlock()
		})
	}
	p.Wait()
	return results
}

// Refiner applies the structural-refinement collaborator to candidates
// lacking a refined structure. Refinement replaces the payload but keeps
// the identity: the fingerprint is taken at creation and stays stable so
// deduplication and checkpoints agree across restarts.
type Refiner struct {
	Optimizer Optimizer
	Workers   int
	Timeout   time.Duration
}

// Optimize refines every unrefined candidate. A failed refinement leaves
// the candidate unrefined; it stays in the population and remains eligible
// for evaluation and deduplication.
func (r *Refiner) Optimize(ctx context.Context, pop *population.Population) (*population.Population, error) {
	pending := make([]model.Candidate, 0, pop.Size())
	for c := range pop.All() {
		if !c.Refined {
			pending = append(pending, c)
		}
	}

	results := fanOut(ctx, pending, r.Workers, r.Timeout, func(ctx context.Context, c model.Candidate) model.Candidate {
		payload, err := r.Optimizer.Refine(ctx, c)
		if err != nil {
			return c
		}
		next := c.Clone()
		next.Payload = append([]byte(nil), payload...)
		next.Refined = true
		return next
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := pop.Map(func(c model.Candidate) model.Candidate {
		if next, ok := results[c.Identity]; ok {
			return next
		}
		return c
	})
	return out, nil
}
