package waveform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNormalized(t *testing.T, env Envelope) {
	t.Helper()
	require.Len(t, env, Samples)
	for i, v := range env {
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 1.0, "index %d", i)
	}
	assert.Equal(t, 1.0, env.Max())
}

func TestFromPCMLengthInvariant(t *testing.T) {
	for _, n := range []int{70, 71, 512, 4410, 100000} {
		samples := make([]float32, n)
		for i := range samples {
			samples[i] = float32(i%13) / 13
		}
		env, err := FromPCM(samples)
		require.NoError(t, err, "n=%d", n)
		assertNormalized(t, env)
	}
}

func TestFromPCMBlockMeans(t *testing.T) {
	// Two samples per block, block i has magnitude i+1; the tail sample is dropped
	samples := make([]float32, 0, Samples*2+1)
	for i := 0; i < Samples; i++ {
		v := float32(i + 1)
		samples = append(samples, v, -v)
	}
	samples = append(samples, 1000)

	env, err := FromPCM(samples)
	require.NoError(t, err)
	assertNormalized(t, env)

	for i, v := range env {
		assert.InDelta(t, float64(i+1)/Samples, v, 1e-12)
	}
}

func TestFromPCMSilent(t *testing.T) {
	env, err := FromPCM(make([]float32, 1000))
	assert.True(t, errors.Is(err, ErrSilentAudio))
	assert.Len(t, env, Samples)
	assert.True(t, env.IsZero())
}

func TestFromPCMShorterThanSamples(t *testing.T) {
	env, err := FromPCM([]float32{1, 1, 1})
	assert.True(t, errors.Is(err, ErrSilentAudio))
	assert.Len(t, env, Samples)
}

func TestNormalizeZero(t *testing.T) {
	values := []float64{0, 0, 0}
	normalize(values)
	assert.Equal(t, []float64{0, 0, 0}, values)
}
