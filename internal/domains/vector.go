// Package domains registers self-contained problem domains so the engine
// runs end to end without an external structure collaborator. The vector
// domain encodes a candidate as a real-valued gene vector.
package domains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/austin-mroz/stk/internal/evo"
	"github.com/austin-mroz/stk/internal/model"
)

// VectorPayload is the canonical JSON form of a vector candidate.
type VectorPayload struct {
	Genes []float64 `json:"genes"`
}

// EncodeVector produces the canonical payload bytes for a gene vector.
// Values are rounded so that numerically identical vectors fingerprint
// identically regardless of float formatting noise.
func EncodeVector(genes []float64) ([]byte, error) {
	rounded := make([]float64, len(genes))
	for i, g := range genes {
		rounded[i] = math.Round(g*1e9) / 1e9
	}
	return json.Marshal(VectorPayload{Genes: rounded})
}

// DecodeVector parses payload bytes written by EncodeVector.
func DecodeVector(payload []byte) ([]float64, error) {
	var p VectorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode vector payload: %w", err)
	}
	if len(p.Genes) == 0 {
		return nil, errors.New("vector payload has no genes")
	}
	return p.Genes, nil
}

// RandomVectorInitializer seeds generation 0 with uniform random vectors.
type RandomVectorInitializer struct {
	Dimensions int
	Min        float64
	Max        float64
}

func (RandomVectorInitializer) Name() string {
	return "random_vector"
}

func (s RandomVectorInitializer) Initialize(_ context.Context, rng *rand.Rand, size int) ([]model.Candidate, error) {
	if s.Dimensions <= 0 {
		return nil, errors.New("random_vector initializer requires dimensions > 0")
	}
	if s.Max <= s.Min {
		return nil, fmt.Errorf("random_vector initializer requires max > min, got [%g, %g]", s.Min, s.Max)
	}

	out := make([]model.Candidate, 0, size)
	seen := make(map[string]struct{}, size)
	for len(out) < size {
		genes := make([]float64, s.Dimensions)
		for i := range genes {
			genes[i] = s.Min + rng.Float64()*(s.Max-s.Min)
		}
		payload, err := EncodeVector(genes)
		if err != nil {
			return nil, err
		}
		candidate := model.NewCandidate(payload, 0)
		if _, dup := seen[candidate.Identity]; dup {
			continue
		}
		seen[candidate.Identity] = struct{}{}
		out = append(out, candidate)
	}
	return out, nil
}

// BlendCrossover mixes two parents gene-wise with a random blend factor.
type BlendCrossover struct{}

func (BlendCrossover) Name() string {
	return "blend"
}

func (BlendCrossover) Apply(_ context.Context, rng *rand.Rand, parents []model.Candidate) ([]byte, error) {
	if len(parents) < 2 {
		return nil, fmt.Errorf("blend crossover needs 2 parents, got %d", len(parents))
	}
	a, err := DecodeVector(parents[0].Payload)
	if err != nil {
		return nil, err
	}
	b, err := DecodeVector(parents[1].Payload)
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("parent dimensions differ: %d vs %d", len(a), len(b))
	}

	child := make([]float64, len(a))
	for i := range child {
		alpha := rng.Float64()
		child[i] = alpha*a[i] + (1-alpha)*b[i]
	}
	return EncodeVector(child)
}

// GaussianMutator perturbs each gene with zero-mean gaussian noise.
type GaussianMutator struct {
	Sigma float64
	Rate  float64
}

func (GaussianMutator) Name() string {
	return "gaussian"
}

func (s GaussianMutator) Apply(_ context.Context, rng *rand.Rand, parent model.Candidate) ([]byte, error) {
	genes, err := DecodeVector(parent.Payload)
	if err != nil {
		return nil, err
	}

	sigma := s.Sigma
	if sigma <= 0 {
		sigma = 0.1
	}
	rate := s.Rate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	out := append([]float64(nil), genes...)
	for i := range out {
		if rng.Float64() <= rate {
			out[i] += rng.NormFloat64() * sigma
		}
	}
	return EncodeVector(out)
}

// SphereFitness scores a vector by the negated sphere function, so the
// global optimum at the origin has the highest fitness, 0.
type SphereFitness struct{}

func (SphereFitness) Name() string {
	return "sphere"
}

func (SphereFitness) Evaluate(_ context.Context, candidate model.Candidate) ([]float64, error) {
	genes, err := DecodeVector(candidate.Payload)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, g := range genes {
		total += g * g
	}
	return []float64{-total}, nil
}

// RastriginFitness scores a vector by the negated Rastrigin function, a
// standard heavily multimodal benchmark.
type RastriginFitness struct{}

func (RastriginFitness) Name() string {
	return "rastrigin"
}

func (RastriginFitness) Evaluate(_ context.Context, candidate model.Candidate) ([]float64, error) {
	genes, err := DecodeVector(candidate.Payload)
	if err != nil {
		return nil, err
	}
	total := 10 * float64(len(genes))
	for _, g := range genes {
		total += g*g - 10*math.Cos(2*math.Pi*g)
	}
	return []float64{-total}, nil
}

func init() {
	evo.Initializers.MustRegister("random_vector", func(params evo.Params) (evo.Initializer, error) {
		return RandomVectorInitializer{
			Dimensions: params.Int("dimensions", 0),
			Min:        params.Float("min", -1),
			Max:        params.Float("max", 1),
		}, nil
	})
	evo.Crossovers.MustRegister("blend", func(evo.Params) (evo.Crossover, error) {
		return BlendCrossover{}, nil
	})
	evo.Mutators.MustRegister("gaussian", func(params evo.Params) (evo.Mutator, error) {
		return GaussianMutator{
			Sigma: params.Float("sigma", 0.1),
			Rate:  params.Float("rate", 1),
		}, nil
	})
	evo.Fitnesses.MustRegister("sphere", func(evo.Params) (evo.Fitness, error) {
		return SphereFitness{}, nil
	})
	evo.Fitnesses.MustRegister("rastrigin", func(evo.Params) (evo.Fitness, error) {
		return RastriginFitness{}, nil
	})
}
