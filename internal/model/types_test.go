package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableAcrossCopies(t *testing.T) {
	a := Fingerprint([]byte(`{"genes":[1,2]}`))
	b := Fingerprint([]byte(`{"genes":[1,2]}`))
	c := Fingerprint([]byte(`{"genes":[2,1]}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNewCandidateDerivesIdentityAndProvenance(t *testing.T) {
	payload := []byte(`{"genes":[0.5]}`)
	c := NewCandidate(payload, 3, "parent-a", "parent-b")

	assert.Equal(t, Fingerprint(payload), c.Identity)
	assert.Equal(t, 3, c.Generation)
	assert.Equal(t, []string{"parent-a", "parent-b"}, c.ParentIdentities)
	assert.False(t, c.Evaluated())
}

func TestWithRawFitnessInvalidatesScaledScore(t *testing.T) {
	c := NewCandidate([]byte("x"), 0)
	c.ScaledFitness = 9
	c.Scaled = true

	next := c.WithRawFitness([]float64{1, 2})

	require.Equal(t, []float64{1, 2}, next.RawFitness)
	assert.False(t, next.Scaled)
	assert.True(t, next.Evaluated())
	// The original value is untouched.
	assert.True(t, c.Scaled)
	assert.Nil(t, c.RawFitness)
}

func TestWithEvaluationFailedClearsRawFitness(t *testing.T) {
	c := NewCandidate([]byte("x"), 0).WithRawFitness([]float64{1})

	failed := c.WithEvaluationFailed()

	assert.True(t, failed.EvaluationFailed)
	assert.Nil(t, failed.RawFitness)
	assert.True(t, failed.Evaluated())
	assert.False(t, failed.Scaled)
}

func TestLessOrdersByScaledThenIdentity(t *testing.T) {
	high := Candidate{Identity: "b", ScaledFitness: 2}
	low := Candidate{Identity: "a", ScaledFitness: 1}
	tiedA := Candidate{Identity: "a", ScaledFitness: 2}
	tiedB := Candidate{Identity: "b", ScaledFitness: 2}

	assert.True(t, high.Less(low))
	assert.False(t, low.Less(high))
	assert.True(t, tiedA.Less(tiedB))
	assert.False(t, tiedB.Less(tiedA))
}

func TestCloneIsDeep(t *testing.T) {
	c := NewCandidate([]byte("abc"), 1, "p")
	c = c.WithRawFitness([]float64{1})

	clone := c.Clone()
	clone.Payload[0] = 'z'
	clone.RawFitness[0] = 99

	assert.Equal(t, byte('a'), c.Payload[0])
	assert.Equal(t, 1.0, c.RawFitness[0])
}
