package evo

import (
	"errors"
	"math"

	"github.com/austin-mroz/stk/internal/population"
)

// FitnessGoalExit stops the run once the best scaled fitness reaches a
// configured goal.
type FitnessGoalExit struct {
	Goal float64
}

func (FitnessGoalExit) Name() string {
	return "fitness_goal"
}

func (e FitnessGoalExit) ShouldExit(pop *population.Population) bool {
	best, ok := pop.Best()
	if !ok {
		return false
	}
	return best.Scaled && best.ScaledFitness >= e.Goal
}

// StagnationExit stops the run after the best scaled fitness has failed to
// improve for a configured number of consecutive generation boundaries.
// Stateful across calls; resolved fresh for every run.
type StagnationExit struct {
	Window int

	best       float64
	seen       bool
	stagnation int
}

func (*StagnationExit) Name() string {
	return "stagnation"
}

func (e *StagnationExit) ShouldExit(pop *population.Population) bool {
	window := e.Window
	if window <= 0 {
		window = 5
	}
	best, ok := pop.Best()
	if !ok {
		return false
	}
	if !e.seen || best.ScaledFitness > e.best {
		e.best = best.ScaledFitness
		e.seen = true
		e.stagnation = 0
		return false
	}
	e.stagnation++
	return e.stagnation >= window
}

func init() {
	ExitPredicates.MustRegister("fitness_goal", func(params Params) (ExitPredicate, error) {
		goal := params.Float("goal", math.NaN())
		if math.IsNaN(goal) {
			return nil, errors.New("fitness_goal exit requires a goal parameter")
		}
		return FitnessGoalExit{Goal: goal}, nil
	})
	ExitPredicates.MustRegister("stagnation", func(params Params) (ExitPredicate, error) {
		return &StagnationExit{Window: params.Int("window", 5)}, nil
	})
}
