package audio

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jfreymuth/oggvorbis"
)

// OggDecoder handles Ogg Vorbis decoding
type OggDecoder struct{}

// NewOggDecoder creates a new Ogg Vorbis decoder instance
func NewOggDecoder() *OggDecoder {
	return &OggDecoder{}
}

// Decode reads an Ogg Vorbis stream and returns decoded PCM data
func (d *OggDecoder) Decode(reader io.Reader) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(reader)
	if err != nil {
		slog.Debug("failed to decode Ogg Vorbis stream", "error", err)
		return nil, ErrInvalidData
	}

	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, ErrInvalidData
	}

	if len(samples) == 0 {
		return nil, ErrInvalidData
	}

	pcm := &PCM{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(samples, format.Channels),
	}

	slog.Debug("Ogg Vorbis decode completed",
		"frames", pcm.Frames(),
		"channels", format.Channels,
		"sample_rate", format.SampleRate)

	return pcm, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *OggDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".ogg") || strings.HasSuffix(lower, ".oga")
}

// FormatName returns the name of the format this decoder handles
func (d *OggDecoder) FormatName() string {
	return "OGG"
}
