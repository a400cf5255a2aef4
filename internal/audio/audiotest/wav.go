// Package audiotest builds small in-memory audio fixtures for tests.
package audiotest

import (
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// WAV16 encodes interleaved 16-bit samples as a complete WAV file
func WAV16(tb testing.TB, sampleRate, channels int, samples []int) []byte {
	tb.Helper()

	memFS := afero.NewMemMapFs()
	f, err := memFS.Create("/fixture.wav")
	if err != nil {
		tb.Fatalf("failed to create fixture file: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		tb.Fatalf("failed to encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		tb.Fatalf("failed to finalize fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("failed to close fixture: %v", err)
	}

	data, err := afero.ReadFile(memFS, "/fixture.wav")
	if err != nil {
		tb.Fatalf("failed to read fixture: %v", err)
	}
	return data
}

// Sine returns n mono 16-bit samples of a sine wave at the given amplitude (0..1)
func Sine(n, sampleRate int, frequency, amplitude float64) []int {
	out := make([]int, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = int(amplitude * 32767 * math.Sin(2*math.Pi*frequency*t))
	}
	return out
}

// Ramp returns n mono 16-bit samples whose magnitude grows linearly from 0 to full scale
func Ramp(n int) []int {
	out := make([]int, n)
	for i := range out {
		v := int(float64(i+1) / float64(n) * 32767)
		if i%2 == 1 {
			v = -v
		}
		out[i] = v
	}
	return out
}
