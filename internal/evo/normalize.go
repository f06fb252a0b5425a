package evo

import (
	"errors"
	"fmt"
	"math"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/population"
)

// Stats holds population-wide statistics per raw fitness component,
// computed over successfully evaluated candidates only. A normalization
// pass always recomputes them from the population it is given; stale
// statistics are never reused.
type Stats struct {
	Components []model.ComponentStats
	Count      int
}

// ComputeStats gathers min/max/mean per raw component across pop. Each
// component's mean divides by the number of vectors actually carrying that
// component, so ragged vectors do not skew trailing components.
func ComputeStats(pop *population.Population) Stats {
	var stats Stats
	counts := make([]int, 0, 2)
	for c := range pop.All() {
		if c.EvaluationFailed || c.RawFitness == nil {
			continue
		}
		for i, v := range c.RawFitness {
			if i >= len(stats.Components) {
				stats.Components = append(stats.Components, model.ComponentStats{Min: v, Max: v})
				counts = append(counts, 0)
			}
			comp := &stats.Components[i]
			if counts[i] == 0 {
				comp.Min, comp.Max = v, v
			}
			if v < comp.Min {
				comp.Min = v
			}
			if v > comp.Max {
				comp.Max = v
			}
			comp.Mean += v
			counts[i]++
		}
		stats.Count++
	}
	for i := range stats.Components {
		if counts[i] > 0 {
			stats.Components[i].Mean /= float64(counts[i])
		}
	}
	return stats
}

// Step is one pure transformation of a candidate's working fitness vector.
// Steps must be deterministic: no hidden randomness, no state.
type Step interface {
	Name() string
	Apply(stats Stats, vector []float64) []float64
}

// Pipeline converts raw fitness vectors into one scaled scalar per
// candidate. The final step must leave exactly one component.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	if len(steps) == 0 {
		steps = []Step{FirstComponent{}}
	}
	return &Pipeline{steps: steps}
}

// StepNames lists the configured step order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}

// Normalize returns a new population where every candidate carries a scaled
// fitness. Failed candidates receive the minimum scaled fitness among
// succeeded candidates (0 when none succeeded) so a numeric accident can
// never make them win selection.
func (p *Pipeline) Normalize(pop *population.Population) (*population.Population, error) {
	stats := ComputeStats(pop)

	scaledByIdentity := make(map[string]float64, pop.Size())
	minSucceeded := math.Inf(1)
	anySucceeded := false
	for c := range pop.All() {
		if c.EvaluationFailed || c.RawFitness == nil {
			continue
		}
		vector := append([]float64(nil), c.RawFitness...)
		for _, step := range p.steps {
			vector = step.Apply(stats, vector)
		}
		if len(vector) != 1 {
			return nil, fmt.Errorf("normalization pipeline left %d components for %s, want 1", len(vector), c.Identity)
		}
		scaledByIdentity[c.Identity] = vector[0]
		if vector[0] < minSucceeded {
			minSucceeded = vector[0]
		}
		anySucceeded = true
	}

	sentinel := 0.0
	if anySucceeded {
		sentinel = minSucceeded
	}

	out := pop.Map(func(c model.Candidate) model.Candidate {
		next := c.Clone()
		if scaled, ok := scaledByIdentity[c.Identity]; ok && !c.EvaluationFailed {
			next.ScaledFitness = scaled
		} else {
			next.ScaledFitness = sentinel
		}
		next.Scaled = true
		return next
	})
	return out, nil
}

// FirstComponent keeps only the leading raw component. The default,
// identity normalization for single-component fitness functions.
type FirstComponent struct{}

func (FirstComponent) Name() string {
	return "first_component"
}

func (FirstComponent) Apply(_ Stats, vector []float64) []float64 {
	if len(vector) == 0 {
		return vector
	}
	return vector[:1]
}

// Power raises every component to a fixed exponent.
type Power struct {
	Exponent float64
}

func (Power) Name() string {
	return "power"
}

func (s Power) Apply(_ Stats, vector []float64) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = math.Pow(v, s.Exponent)
	}
	return out
}

// Multiply scales components by fixed coefficients. A single coefficient
// broadcasts across all components.
type Multiply struct {
	Coefficients []float64
}

func (Multiply) Name() string {
	return "multiply"
}

func (s Multiply) Apply(_ Stats, vector []float64) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		switch {
		case len(s.Coefficients) == 1:
			out[i] = v * s.Coefficients[0]
		case i < len(s.Coefficients):
			out[i] = v * s.Coefficients[i]
		default:
			out[i] = v
		}
	}
	return out
}

// Sum collapses the vector into a single weighted sum. Missing weights
// default to 1.
type Sum struct {
	Weights []float64
}

func (Sum) Name() string {
	return "sum"
}

func (s Sum) Apply(_ Stats, vector []float64) []float64 {
	total := 0.0
	for i, v := range vector {
		w := 1.0
		if i < len(s.Weights) {
			w = s.Weights[i]
		}
		total += w * v
	}
	return []float64{total}
}

// DivideByMean scales each component by the population mean of that
// component, making heterogeneous components comparable.
type DivideByMean struct{}

func (DivideByMean) Name() string {
	return "divide_by_mean"
}

func (DivideByMean) Apply(stats Stats, vector []float64) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		mean := 0.0
		if i < len(stats.Components) {
			mean = stats.Components[i].Mean
		}
		if mean == 0 {
			out[i] = v
			continue
		}
		out[i] = v / mean
	}
	return out
}

// ShiftUp translates each component so the population minimum maps to 1,
// guaranteeing positive values for downstream steps.
type ShiftUp struct{}

func (ShiftUp) Name() string {
	return "shift_up"
}

func (ShiftUp) Apply(stats Stats, vector []float64) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		min := 0.0
		if i < len(stats.Components) {
			min = stats.Components[i].Min
		}
		if min >= 1 {
			out[i] = v
			continue
		}
		out[i] = v - min + 1
	}
	return out
}

func init() {
	NormalizeSteps.MustRegister("first_component", func(Params) (Step, error) {
		return FirstComponent{}, nil
	})
	NormalizeSteps.MustRegister("power", func(params Params) (Step, error) {
		return Power{Exponent: params.Float("exponent", 1)}, nil
	})
	NormalizeSteps.MustRegister("multiply", func(params Params) (Step, error) {
		coefficients := params.Floats("coefficients")
		if coefficients == nil {
			return nil, errors.New("multiply step requires a coefficients list")
		}
		return Multiply{Coefficients: coefficients}, nil
	})
	NormalizeSteps.MustRegister("sum", func(params Params) (Step, error) {
		return Sum{Weights: params.Floats("weights")}, nil
	})
	NormalizeSteps.MustRegister("divide_by_mean", func(Params) (Step, error) {
		return DivideByMean{}, nil
	})
	NormalizeSteps.MustRegister("shift_up", func(Params) (Step, error) {
		return ShiftUp{}, nil
	})
}
