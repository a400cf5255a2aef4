package audio

import (
	"errors"
	"io"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// PCM is decoded audio held as planar float32 samples in [-1, 1].
type PCM struct {
	SampleRate int         // Sample rate in Hz
	Channels   [][]float32 // One slice per channel, all the same length
}

// NumChannels returns the number of channels in the buffer
func (p *PCM) NumChannels() int {
	if p == nil {
		return 0
	}
	return len(p.Channels)
}

// Frames returns the number of sample frames (samples per channel)
func (p *PCM) Frames() int {
	if p == nil || len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Duration returns the length of the buffer in seconds
func (p *PCM) Duration() float64 {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Channel returns the samples of channel i, or nil when out of range
func (p *PCM) Channel(i int) []float32 {
	if p == nil || i < 0 || i >= len(p.Channels) {
		return nil
	}
	return p.Channels[i]
}

// Interleaved16 renders the buffer as interleaved signed 16-bit little-endian PCM,
// the layout every output backend consumes.
func (p *PCM) Interleaved16() []byte {
	frames := p.Frames()
	channels := p.NumChannels()
	out := make([]byte, 0, frames*channels*2)

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			v := p.Channels[ch][f]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			s := int16(v * 32767)
			out = append(out, byte(s), byte(s>>8))
		}
	}

	return out
}

// deinterleave splits interleaved samples into planar channels, dropping a trailing partial frame
func deinterleave(data []float32, channels int) [][]float32 {
	if channels <= 0 {
		return nil
	}

	frames := len(data) / channels
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, frames)
	}

	for f := 0; f < frames; f++ {
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			planar[ch][f] = data[base+ch]
		}
	}

	return planar
}

// Decoder interface for audio format decoding
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*PCM, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}
