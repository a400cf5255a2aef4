package media

import (
	"errors"
	"io"
	"sync"
)

// Output errors
var (
	ErrOutputNotAvailable = errors.New("audio output not available")
	ErrOutputFormat       = errors.New("audio output format mismatch")
)

// Format describes interleaved signed 16-bit little-endian PCM handed to an Output
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerFrame returns the size of one interleaved frame
func (f Format) BytesPerFrame() int {
	return f.Channels * 2
}

// Output opens playback streams on an audio device
type Output interface {
	// Open prepares a paused stream that pulls PCM from src
	Open(format Format, src io.ReadSeeker) (Stream, error)
	Name() string
}

// Stream is one open playback stream
type Stream interface {
	Play() error
	Pause() error
	// SeekTo moves to a byte offset in the source and drops any audio already queued
	SeekTo(offset int64) error
	Close() error
}

// Cursor is a concurrency-safe reader over interleaved PCM. The player reads the
// playback position from it while an output's audio thread consumes it.
type Cursor struct {
	mu        sync.Mutex
	data      []byte
	pos       int
	frameSize int
}

// NewCursor wraps data, whose frames are frameSize bytes long
func NewCursor(data []byte, frameSize int) *Cursor {
	if frameSize <= 0 {
		frameSize = 1
	}
	return &Cursor{data: data, frameSize: frameSize}
}

// Read implements io.Reader
func (c *Cursor) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}

// Seek implements io.Seeker. Offsets are clamped to the data and aligned down to a frame.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(c.pos) + offset
	case io.SeekEnd:
		next = int64(len(c.data)) + offset
	default:
		return int64(c.pos), errors.New("invalid whence")
	}

	if next < 0 {
		next = 0
	}
	if next > int64(len(c.data)) {
		next = int64(len(c.data))
	}
	next -= next % int64(c.frameSize)

	c.pos = int(next)
	return next, nil
}

// Frame returns the index of the next frame to be read
func (c *Cursor) Frame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos / c.frameSize
}

// AtEnd reports whether every byte has been consumed
func (c *Cursor) AtEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos >= len(c.data)
}
