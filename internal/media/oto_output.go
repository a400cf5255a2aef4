package media

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

func ensureOtoContext(format Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoErr != nil {
			return
		}
		<-ready
		otoFormat = format
		slog.Debug("oto context initialized",
			"sample_rate", format.SampleRate,
			"channels", format.Channels)
	})

	if otoErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputNotAvailable, otoErr)
	}
	if otoFormat != format {
		return nil, fmt.Errorf("%w: context is %d Hz/%d ch, stream is %d Hz/%d ch",
			ErrOutputFormat, otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
	}
	return otoCtx, nil
}

// OtoOutput plays through github.com/ebitengine/oto/v3
type OtoOutput struct{}

// NewOtoOutput creates an oto-backed output. The device is opened on first use.
func NewOtoOutput() *OtoOutput {
	return &OtoOutput{}
}

// Name returns the output type
func (o *OtoOutput) Name() string {
	return "oto"
}

// Open creates a paused oto player reading from src
func (o *OtoOutput) Open(format Format, src io.ReadSeeker) (Stream, error) {
	ctx, err := ensureOtoContext(format)
	if err != nil {
		return nil, err
	}
	return &otoStream{player: ctx.NewPlayer(src)}, nil
}

type otoStream struct {
	player *oto.Player
}

func (s *otoStream) Play() error {
	s.player.Play()
	return nil
}

func (s *otoStream) Pause() error {
	s.player.Pause()
	return nil
}

func (s *otoStream) SeekTo(offset int64) error {
	_, err := s.player.Seek(offset, io.SeekStart)
	return err
}

func (s *otoStream) Close() error {
	return s.player.Close()
}
