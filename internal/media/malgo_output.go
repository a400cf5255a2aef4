//go:build cgo

package media

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

const malgoAvailable = true

// MalgoOutput plays through miniaudio via github.com/gen2brain/malgo
type MalgoOutput struct{}

func newMalgoOutput() (Output, error) {
	return &MalgoOutput{}, nil
}

// Name returns the output type
func (o *MalgoOutput) Name() string {
	return "malgo"
}

// Open initializes a malgo context and a paused playback device pulling from src
func (o *MalgoOutput) Open(format Format, src io.ReadSeeker) (Stream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputNotAvailable, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		n, _ := io.ReadFull(src, pOutputSample)
		// Anything not filled must be silence or the device plays garbage
		clear(pOutputSample[n:])
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	slog.Debug("malgo stream opened",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	return &malgoStream{ctx: ctx, device: device, src: src}, nil
}

type malgoStream struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	src     io.ReadSeeker
	started bool
}

func (s *malgoStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	s.started = true
	return nil
}

func (s *malgoStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil || !s.started {
		return nil
	}
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	s.started = false
	return nil
}

func (s *malgoStream) SeekTo(offset int64) error {
	_, err := s.src.Seek(offset, io.SeekStart)
	return err
}

func (s *malgoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return nil
	}

	if s.started {
		_ = s.device.Stop()
	}
	s.device.Uninit()
	s.device = nil

	// malgo requires both Uninit() and Free()
	err := s.ctx.Uninit()
	s.ctx.Free()
	if err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
		return err
	}
	return nil
}
