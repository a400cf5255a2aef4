package audio

import (
	"encoding/binary"
	"io"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder handles MP3 audio format decoding
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance
func NewMp3Decoder() *Mp3Decoder {
	return &Mp3Decoder{}
}

// Decode reads MP3 audio data from reader and returns decoded PCM data
func (d *Mp3Decoder) Decode(reader io.Reader) (*PCM, error) {
	decoder, err := mp3.NewDecoder(reader)
	if err != nil {
		slog.Debug("failed to create MP3 decoder", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		slog.Debug("invalid MP3 sample rate", "sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	var raw []byte
	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		raw = append(raw, buf[:n]...)
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Debug("failed to read MP3 PCM data", "error", err, "bytes_read", len(raw))
			return nil, ErrReadFailure
		}
		if n == 0 {
			break
		}
	}

	if len(raw) < 4 {
		slog.Debug("no audio data found in MP3 stream")
		return nil, ErrInvalidData
	}

	// go-mp3 always produces 16-bit little-endian stereo
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768.0
	}

	pcm := &PCM{
		SampleRate: sampleRate,
		Channels:   deinterleave(samples, 2),
	}

	slog.Debug("MP3 decode completed",
		"frames", pcm.Frames(),
		"sample_rate", sampleRate,
		"duration_s", pcm.Duration())

	return pcm, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")
}

// FormatName returns the name of the format this decoder handles
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
