package media

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// NullOutput consumes PCM at real-time speed without producing sound. It keeps
// the playback clock honest for headless rendering and tests.
type NullOutput struct {
	interval time.Duration
}

// NewNullOutput creates a silent output
func NewNullOutput() *NullOutput {
	return &NullOutput{interval: 20 * time.Millisecond}
}

// Name returns the output type
func (o *NullOutput) Name() string {
	return "null"
}

// Open creates a paused silent stream
func (o *NullOutput) Open(format Format, src io.ReadSeeker) (Stream, error) {
	slog.Debug("opening null output stream",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)
	return &nullStream{
		src:      src,
		format:   format,
		interval: o.interval,
	}, nil
}

type nullStream struct {
	mu       sync.Mutex
	src      io.ReadSeeker
	format   Format
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func (s *nullStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.drain(s.stop, s.done)
	return nil
}

// drain discards bytes at the rate the format would play them
func (s *nullStream) drain(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	bytesPerSecond := float64(s.format.SampleRate * s.format.BytesPerFrame())
	last := time.Now()
	var owed float64

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			owed += now.Sub(last).Seconds() * bytesPerSecond
			last = now

			n := int(owed)
			n -= n % s.format.BytesPerFrame()
			if n <= 0 {
				continue
			}
			owed -= float64(n)

			if _, err := io.CopyN(io.Discard, s.src, int64(n)); err != nil {
				if err == io.EOF {
					// Keep the clock running; a seek may rewind the source
					owed = 0
					continue
				}
				slog.Debug("null output drain stopped", "error", err)
				return
			}
		}
	}
}

func (s *nullStream) Pause() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

func (s *nullStream) SeekTo(offset int64) error {
	_, err := s.src.Seek(offset, io.SeekStart)
	return err
}

func (s *nullStream) Close() error {
	return s.Pause()
}
