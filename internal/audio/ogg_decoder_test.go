package audio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOggDecoderCanDecode(t *testing.T) {
	decoder := NewOggDecoder()
	assert.Equal(t, "OGG", decoder.FormatName())
	assert.True(t, decoder.CanDecode("voice.ogg"))
	assert.True(t, decoder.CanDecode("voice.OGA"))
	assert.False(t, decoder.CanDecode("voice.opus"))
}

func TestOggDecoderRejectsGarbage(t *testing.T) {
	pcm, err := NewOggDecoder().Decode(bytes.NewReader([]byte("OggS but not really")))
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Nil(t, pcm)
}
