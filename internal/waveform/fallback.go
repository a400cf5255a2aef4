package waveform

import "math/rand"

// Fallback generates a smooth pseudo-random envelope for sources that cannot be
// analyzed. Each value moves 30% of the way from the previous value toward a new
// random target, so adjacent bars never jump by a raw random amount.
func Fallback(rng *rand.Rand) Envelope {
	env := make(Envelope, Samples)
	prev := rng.Float64()

	for i := range env {
		target := rng.Float64()
		value := prev + (target-prev)*smoothing
		env[i] = value
		prev = value
	}

	normalize(env)
	return env
}
