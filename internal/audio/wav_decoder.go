package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance
func NewWavDecoder() *WavDecoder {
	return &WavDecoder{}
}

// Decode reads WAV audio data from reader and returns decoded PCM data
func (d *WavDecoder) Decode(reader io.Reader) (pcm *PCM, err error) {
	// go-riff panics on truncated chunks
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("malformed WAV data", "panic", r)
			pcm, err = nil, ErrInvalidData
		}
	}()

	// go-wav needs random access to walk the RIFF chunks
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Debug("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}

	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))

	format, err := wavReader.Format()
	if err != nil {
		slog.Debug("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}

	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Debug("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	switch format.BitsPerSample {
	case 16, 24, 32:
	default:
		slog.Debug("unsupported bit depth", "bits", format.BitsPerSample)
		return nil, ErrUnsupportedFormat
	}

	// go-wav carries at most two channel values per sample
	channels := int(format.NumChannels)
	if channels > 2 {
		channels = 2
	}

	scale := float32(int64(1) << (format.BitsPerSample - 1))
	planar := make([][]float32, channels)

	for {
		samples, err := wavReader.ReadSamples()
		for _, sample := range samples {
			for ch := 0; ch < channels; ch++ {
				planar[ch] = append(planar[ch], float32(sample.Values[ch])/scale)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Debug("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		if len(samples) == 0 {
			break
		}
	}

	if len(planar[0]) == 0 {
		slog.Debug("no audio data found in WAV file")
		return nil, ErrInvalidData
	}

	pcm = &PCM{
		SampleRate: int(format.SampleRate),
		Channels:   planar,
	}

	slog.Debug("WAV decode completed",
		"frames", pcm.Frames(),
		"channels", channels,
		"sample_rate", pcm.SampleRate,
		"bits_per_sample", format.BitsPerSample)

	return pcm, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles
func (d *WavDecoder) FormatName() string {
	return "WAV"
}
