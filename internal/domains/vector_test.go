package domains

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austin-mroz/stk/internal/evo"
	"github.com/austin-mroz/stk/internal/model"
)

func vectorCandidate(t *testing.T, genes ...float64) model.Candidate {
	t.Helper()
	payload, err := EncodeVector(genes)
	require.NoError(t, err)
	return model.NewCandidate(payload, 0)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	payload, err := EncodeVector([]float64{1.5, -2, 0})
	require.NoError(t, err)

	genes, err := DecodeVector(payload)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2, 0}, genes)
}

func TestEncodeVectorFingerprintsStably(t *testing.T) {
	// Values within rounding noise of each other map to the same payload.
	a, err := EncodeVector([]float64{0.1 + 0.2})
	require.NoError(t, err)
	b, err := EncodeVector([]float64{0.3})
	require.NoError(t, err)

	assert.Equal(t, model.Fingerprint(a), model.Fingerprint(b))
}

func TestDecodeVectorRejections(t *testing.T) {
	_, err := DecodeVector([]byte("{bad"))
	assert.Error(t, err)

	_, err = DecodeVector([]byte(`{"genes":[]}`))
	assert.Error(t, err)
}

func TestRandomVectorInitializer(t *testing.T) {
	init := RandomVectorInitializer{Dimensions: 3, Min: -2, Max: 2}
	rng := rand.New(rand.NewSource(9))

	out, err := init.Initialize(context.Background(), rng, 10)
	require.NoError(t, err)
	require.Len(t, out, 10)

	seen := make(map[string]struct{}, len(out))
	for _, c := range out {
		_, dup := seen[c.Identity]
		assert.False(t, dup, "duplicate identity in initial population")
		seen[c.Identity] = struct{}{}

		genes, err := DecodeVector(c.Payload)
		require.NoError(t, err)
		require.Len(t, genes, 3)
		for _, g := range genes {
			assert.GreaterOrEqual(t, g, -2.0)
			assert.Less(t, g, 2.0)
		}
	}
}

func TestRandomVectorInitializerValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := RandomVectorInitializer{Dimensions: 0, Min: -1, Max: 1}.Initialize(context.Background(), rng, 2)
	assert.Error(t, err)

	_, err = RandomVectorInitializer{Dimensions: 2, Min: 1, Max: 1}.Initialize(context.Background(), rng, 2)
	assert.Error(t, err)
}

func TestBlendCrossoverStaysWithinParentRange(t *testing.T) {
	a := vectorCandidate(t, 0, 0, 0)
	b := vectorCandidate(t, 1, 1, 1)
	rng := rand.New(rand.NewSource(4))

	payload, err := BlendCrossover{}.Apply(context.Background(), rng, []model.Candidate{a, b})
	require.NoError(t, err)

	genes, err := DecodeVector(payload)
	require.NoError(t, err)
	require.Len(t, genes, 3)
	for _, g := range genes {
		assert.GreaterOrEqual(t, g, 0.0)
		assert.LessOrEqual(t, g, 1.0)
	}
}

func TestBlendCrossoverRejections(t *testing.T) {
	a := vectorCandidate(t, 1)
	b := vectorCandidate(t, 1, 2)
	rng := rand.New(rand.NewSource(1))

	_, err := BlendCrossover{}.Apply(context.Background(), rng, []model.Candidate{a})
	assert.Error(t, err)

	_, err = BlendCrossover{}.Apply(context.Background(), rng, []model.Candidate{a, b})
	assert.Error(t, err)
}

func TestGaussianMutatorPerturbsEveryGeneAtFullRate(t *testing.T) {
	parent := vectorCandidate(t, 1, 2, 3)
	rng := rand.New(rand.NewSource(6))

	payload, err := GaussianMutator{Sigma: 0.5, Rate: 1}.Apply(context.Background(), rng, parent)
	require.NoError(t, err)

	genes, err := DecodeVector(payload)
	require.NoError(t, err)
	require.Len(t, genes, 3)

	original := []float64{1, 2, 3}
	changed := 0
	for i, g := range genes {
		if g != original[i] {
			changed++
		}
	}
	assert.Greater(t, changed, 0)
}

func TestSphereFitness(t *testing.T) {
	raw, err := SphereFitness{}.Evaluate(context.Background(), vectorCandidate(t, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, raw)

	raw, err = SphereFitness{}.Evaluate(context.Background(), vectorCandidate(t, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{-25}, raw)
}

func TestRastriginFitnessOptimumAtOrigin(t *testing.T) {
	raw, err := RastriginFitness{}.Evaluate(context.Background(), vectorCandidate(t, 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.InDelta(t, 0, raw[0], 1e-9)

	away, err := RastriginFitness{}.Evaluate(context.Background(), vectorCandidate(t, 2.5, -2.5, 2.5))
	require.NoError(t, err)
	assert.Less(t, away[0], raw[0])
}

func TestVectorStrategiesAreRegistered(t *testing.T) {
	_, err := evo.Initializers.Resolve("random_vector", evo.Params{"dimensions": 2})
	require.NoError(t, err)
	_, err = evo.Crossovers.Resolve("blend", nil)
	require.NoError(t, err)
	_, err = evo.Mutators.Resolve("gaussian", nil)
	require.NoError(t, err)
	_, err = evo.Fitnesses.Resolve("sphere", nil)
	require.NoError(t, err)
	_, err = evo.Fitnesses.Resolve("rastrigin", nil)
	require.NoError(t, err)
}
