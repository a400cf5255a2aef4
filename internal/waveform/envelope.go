// Package waveform derives the fixed-resolution amplitude envelope drawn by the player.
package waveform

import "errors"

// Samples is the number of bars in every envelope
const Samples = 70

// gain boosts quiet passages before normalization
const gain = 5.0

// smoothing is how far each fallback value moves toward its random target
const smoothing = 0.3

// ErrSilentAudio means the decoded audio produced an all-zero envelope
var ErrSilentAudio = errors.New("decoded audio is silent")

// Envelope is a sequence of Samples amplitudes in [0, 1] whose maximum is 1
// unless every value is zero.
type Envelope []float64

// Max returns the largest value in the envelope
func (e Envelope) Max() float64 {
	var m float64
	for _, v := range e {
		if v > m {
			m = v
		}
	}
	return m
}

// IsZero reports whether every value in the envelope is zero
func (e Envelope) IsZero() bool {
	return e.Max() == 0
}

// normalize divides every value by the maximum in place. All-zero input is left untouched.
func normalize(values []float64) {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return
	}
	for i := range values {
		values[i] /= m
	}
}

// FromPCM reduces one channel of samples to an Envelope: equal blocks of
// len/Samples samples (tail dropped), mean absolute value times gain, normalized.
func FromPCM(samples []float32) (Envelope, error) {
	env := make(Envelope, Samples)
	blockSize := len(samples) / Samples

	if blockSize > 0 {
		for i := 0; i < Samples; i++ {
			start := i * blockSize
			var sum float64
			for _, s := range samples[start : start+blockSize] {
				if s < 0 {
					sum -= float64(s)
				} else {
					sum += float64(s)
				}
			}
			env[i] = sum / float64(blockSize) * gain
		}
	}

	normalize(env)
	if env.IsZero() {
		return env, ErrSilentAudio
	}
	return env, nil
}
