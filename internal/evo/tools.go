package evo

import (
	"fmt"

	"github.com/austin-mroz/stk/internal/population"
)

// NamedStrategy pairs a registry key with its configuration parameters.
type NamedStrategy struct {
	Name   string
	Params Params
}

// ToolsSpec names every strategy a run binds. Resolution happens once, in
// BuildTools; an unknown name fails the run before any work starts.
type ToolsSpec struct {
	Initializer   NamedStrategy
	Crossover     NamedStrategy
	Mutator       NamedStrategy
	Fitness       NamedStrategy
	Optimizer     NamedStrategy
	Selector      NamedStrategy
	Normalization []NamedStrategy
	Exit          *NamedStrategy
}

// GATools is the immutable strategy bundle shared by a run. Constructed
// once from configuration; the orchestrator and population code only ever
// read it.
type GATools struct {
	Initializer Initializer
	Crossover   Crossover
	Mutator     Mutator
	Fitness     Fitness
	Optimizer   Optimizer
	Selector    Selector
	Pipeline    *Pipeline
	Exit        ExitPredicate
	Cleaner     Cleaner
	Writer      population.StructureWriter
}

// BuildTools resolves every named strategy against the registries.
func BuildTools(spec ToolsSpec) (*GATools, error) {
	tools := &GATools{
		Cleaner: NoopCleaner{},
		Writer:  population.PayloadWriter{},
	}

	var err error
	if spec.Initializer.Name != "" {
		if tools.Initializer, err = Initializers.Resolve(spec.Initializer.Name, spec.Initializer.Params); err != nil {
			return nil, fmt.Errorf("resolve initializer: %w", err)
		}
	}
	if tools.Crossover, err = Crossovers.Resolve(spec.Crossover.Name, spec.Crossover.Params); err != nil {
		return nil, fmt.Errorf("resolve crossover: %w", err)
	}
	if tools.Mutator, err = Mutators.Resolve(spec.Mutator.Name, spec.Mutator.Params); err != nil {
		return nil, fmt.Errorf("resolve mutator: %w", err)
	}
	if tools.Fitness, err = Fitnesses.Resolve(spec.Fitness.Name, spec.Fitness.Params); err != nil {
		return nil, fmt.Errorf("resolve fitness: %w", err)
	}

	optimizerName := spec.Optimizer.Name
	if optimizerName == "" {
		optimizerName = "none"
	}
	if tools.Optimizer, err = Optimizers.Resolve(optimizerName, spec.Optimizer.Params); err != nil {
		return nil, fmt.Errorf("resolve optimizer: %w", err)
	}

	selectorName := spec.Selector.Name
	if selectorName == "" {
		selectorName = "roulette"
	}
	if tools.Selector, err = Selectors.Resolve(selectorName, spec.Selector.Params); err != nil {
		return nil, fmt.Errorf("resolve selector: %w", err)
	}

	steps := make([]Step, 0, len(spec.Normalization))
	for _, named := range spec.Normalization {
		step, err := NormalizeSteps.Resolve(named.Name, named.Params)
		if err != nil {
			return nil, fmt.Errorf("resolve normalization step: %w", err)
		}
		steps = append(steps, step)
	}
	tools.Pipeline = NewPipeline(steps...)

	if spec.Exit != nil {
		if tools.Exit, err = ExitPredicates.Resolve(spec.Exit.Name, spec.Exit.Params); err != nil {
			return nil, fmt.Errorf("resolve exit predicate: %w", err)
		}
	}

	return tools, nil
}

func init() {
	Optimizers.MustRegister("none", func(Params) (Optimizer, error) {
		return NoopOptimizer{}, nil
	})
}
