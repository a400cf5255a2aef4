package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecoderRegistry manages audio format decoders and provides format detection
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates a new empty decoder registry
func NewDecoderRegistry() *DecoderRegistry {
	slog.Debug("creating new decoder registry")
	return &DecoderRegistry{
		decoders: make([]Decoder, 0),
	}
}

// NewDefaultRegistry creates a registry with WAV, MP3, AIFF and Ogg Vorbis decoders
func NewDefaultRegistry() *DecoderRegistry {
	slog.Debug("creating default decoder registry")

	registry := NewDecoderRegistry()
	registry.Register(NewWavDecoder())
	registry.Register(NewMp3Decoder())
	registry.Register(NewAiffDecoder())
	registry.Register(NewOggDecoder())

	slog.Debug("default decoder registry initialized",
		"supported_formats", registry.GetSupportedFormats())

	return registry
}

// Register adds a decoder to the registry
func (r *DecoderRegistry) Register(decoder Decoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}

	r.decoders = append(r.decoders, decoder)

	slog.Debug("decoder registered",
		"format", decoder.FormatName(),
		"total_decoders", len(r.decoders))
}

// GetDecoders returns all registered decoders
func (r *DecoderRegistry) GetDecoders() []Decoder {
	return r.decoders
}

// GetSupportedFormats returns a list of all supported format names
func (r *DecoderRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, decoder := range r.decoders {
		formats = append(formats, decoder.FormatName())
	}
	return formats
}

// DetectFormat detects the appropriate decoder based on filename extension only
func (r *DecoderRegistry) DetectFormat(filename string) Decoder {
	if filename == "" {
		return nil
	}

	// First registered decoder has priority
	for _, decoder := range r.decoders {
		if decoder.CanDecode(filename) {
			slog.Debug("format detected by extension",
				"filename", filename,
				"format", decoder.FormatName())
			return decoder
		}
	}

	slog.Debug("no decoder found for filename", "filename", filename)
	return nil
}

// DetectFormatWithContent detects format using magic bytes first, fallback to extension
func (r *DecoderRegistry) DetectFormatWithContent(filename string, header []byte) Decoder {
	if len(header) == 0 {
		slog.Debug("empty content, using extension fallback", "filename", filename)
		return r.DetectFormat(filename)
	}

	if len(header) > 3072 {
		header = header[:3072]
	}

	mtype := mimetype.Detect(header)
	mimeStr := strings.ToLower(mtype.String())

	slog.Debug("magic byte detection result",
		"filename", filename,
		"detected_mime", mimeStr,
		"bytes_analyzed", len(header))

	var formatDecoder Decoder
	switch {
	case strings.Contains(mimeStr, "wav") || mimeStr == "audio/vnd.wave":
		formatDecoder = r.findDecoderByFormat("WAV")
	case strings.Contains(mimeStr, "mpeg") || strings.Contains(mimeStr, "mp3"):
		formatDecoder = r.findDecoderByFormat("MP3")
	case strings.Contains(mimeStr, "aiff"):
		formatDecoder = r.findDecoderByFormat("AIFF")
	case strings.Contains(mimeStr, "ogg"):
		formatDecoder = r.findDecoderByFormat("OGG")
	}

	if formatDecoder != nil {
		slog.Debug("format detected by magic bytes",
			"filename", filename,
			"detected_format", formatDecoder.FormatName(),
			"mime_type", mimeStr)
		return formatDecoder
	}

	return r.DetectFormat(filename)
}

// findDecoderByFormat finds a decoder by its format name
func (r *DecoderRegistry) findDecoderByFormat(formatName string) Decoder {
	for _, decoder := range r.decoders {
		if strings.EqualFold(decoder.FormatName(), formatName) {
			return decoder
		}
	}
	return nil
}

// DecodeBytes decodes a complete in-memory audio resource. name is only used as an
// extension hint when magic byte detection is inconclusive.
func (r *DecoderRegistry) DecodeBytes(name string, data []byte) (*PCM, error) {
	slog.Debug("starting decode operation", "name", name, "size_bytes", len(data))

	decoder := r.DetectFormatWithContent(name, data)
	if decoder == nil {
		slog.Debug("no suitable decoder found", "name", name)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	pcm, err := decodeGuarded(decoder, data)
	if err != nil {
		slog.Debug("decode operation failed",
			"name", name,
			"decoder_format", decoder.FormatName(),
			"error", err)
		return nil, err
	}

	slog.Info("decode completed",
		"name", name,
		"decoder_format", decoder.FormatName(),
		"channels", pcm.NumChannels(),
		"sample_rate", pcm.SampleRate,
		"frames", pcm.Frames())

	return pcm, nil
}

// decodeGuarded runs decoder over data. Some third-party parsers panic on truncated
// input; those panics come back as ErrInvalidData.
func decodeGuarded(decoder Decoder, data []byte) (pcm *PCM, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("decoder panicked", "decoder_format", decoder.FormatName(), "panic", r)
			pcm, err = nil, ErrInvalidData
		}
	}()
	return decoder.Decode(bytes.NewReader(data))
}
