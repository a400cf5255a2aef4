package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrCapabilityUnavailable means the host cannot decode audio at all
	ErrCapabilityUnavailable = errors.New("audio decoding capability unavailable")
	// ErrDecodeFailure wraps any rejection while turning bytes into PCM
	ErrDecodeFailure = errors.New("audio decode failed")
	// ErrContextClosed is returned when a released context is used again
	ErrContextClosed = errors.New("decode context is closed")
)

// Context is a single-use decode context. It is acquired at the start of an
// extraction and must be released with Close on every exit path.
type Context struct {
	mu       sync.Mutex
	registry *DecoderRegistry
	used     bool
}

// ContextProvider acquires a fresh decode context
type ContextProvider func() (*Context, error)

// NewContext acquires a decode context backed by registry
func NewContext(registry *DecoderRegistry) (*Context, error) {
	if registry == nil || len(registry.GetDecoders()) == 0 {
		slog.Debug("no decoders available for decode context")
		return nil, ErrCapabilityUnavailable
	}

	slog.Debug("decode context acquired", "formats", registry.GetSupportedFormats())
	return &Context{registry: registry}, nil
}

// DefaultContextProvider returns a provider backed by the default decoder registry
func DefaultContextProvider() ContextProvider {
	registry := NewDefaultRegistry()
	return func() (*Context, error) {
		return NewContext(registry)
	}
}

// Decode decodes data once. A second call, or a call after Close, fails with ErrContextClosed.
func (c *Context) Decode(ctx context.Context, name string, data []byte) (*PCM, error) {
	c.mu.Lock()
	if c.registry == nil || c.used {
		c.mu.Unlock()
		return nil, ErrContextClosed
	}
	c.used = true
	registry := c.registry
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pcm, err := registry.DecodeBytes(name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	// A cancelled caller must not receive a late result
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return pcm, nil
}

// Close releases the context. Safe to call more than once.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry == nil {
		return nil
	}

	c.registry = nil
	slog.Debug("decode context released")
	return nil
}

// IsValid reports whether the context has not been released yet
func (c *Context) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry != nil
}
