package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"waveseek.click/internal/audio/audiotest"
)

func TestContextLifecycle(t *testing.T) {
	ctx, err := NewContext(NewDefaultRegistry())
	require.NoError(t, err)
	assert.True(t, ctx.IsValid())

	require.NoError(t, ctx.Close())
	assert.False(t, ctx.IsValid())

	// Double close is fine
	require.NoError(t, ctx.Close())
}

func TestContextCapabilityUnavailable(t *testing.T) {
	_, err := NewContext(nil)
	assert.True(t, errors.Is(err, ErrCapabilityUnavailable))

	_, err = NewContext(NewDecoderRegistry())
	assert.True(t, errors.Is(err, ErrCapabilityUnavailable))
}

func TestContextDecodeIsSingleUse(t *testing.T) {
	dc, err := NewContext(NewDefaultRegistry())
	require.NoError(t, err)
	defer dc.Close()

	data := audiotest.WAV16(t, 8000, 1, audiotest.Ramp(256))

	pcm, err := dc.Decode(context.Background(), "a.wav", data)
	require.NoError(t, err)
	assert.Equal(t, 256, pcm.Frames())

	_, err = dc.Decode(context.Background(), "a.wav", data)
	assert.True(t, errors.Is(err, ErrContextClosed))
}

func TestContextDecodeAfterClose(t *testing.T) {
	dc, err := NewContext(NewDefaultRegistry())
	require.NoError(t, err)
	require.NoError(t, dc.Close())

	_, err = dc.Decode(context.Background(), "a.wav", []byte("RIFF"))
	assert.True(t, errors.Is(err, ErrContextClosed))
}

func TestContextDecodeFailureIsWrapped(t *testing.T) {
	dc, err := NewContext(NewDefaultRegistry())
	require.NoError(t, err)
	defer dc.Close()

	_, err = dc.Decode(context.Background(), "a.wav", []byte("not a wav file at all"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecodeFailure))
}

func TestContextDecodeCancelled(t *testing.T) {
	dc, err := NewContext(NewDefaultRegistry())
	require.NoError(t, err)
	defer dc.Close()

	cctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = dc.Decode(cctx, "a.wav", audiotest.WAV16(t, 8000, 1, audiotest.Ramp(64)))
	assert.True(t, errors.Is(err, context.Canceled))
}
