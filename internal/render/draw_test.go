package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"waveseek.click/internal/playback"
	"waveseek.click/internal/waveform"
)

type rect struct {
	x, y, w, h, radius float64
	c                  color.Color
}

// recordingCanvas captures drawing calls
type recordingCanvas struct {
	width, height float64
	clears        int
	rects         []rect
}

func (c *recordingCanvas) Size() (float64, float64) { return c.width, c.height }
func (c *recordingCanvas) Clear() {
	c.clears++
	c.rects = nil
}
func (c *recordingCanvas) FillRect(x, y, w, h float64, col color.Color) {
	c.rects = append(c.rects, rect{x: x, y: y, w: w, h: h, c: col})
}

type roundCanvas struct {
	recordingCanvas
	rounded int
}

func (c *roundCanvas) FillRoundRect(x, y, w, h, radius float64, col color.Color) {
	c.rounded++
	c.rects = append(c.rects, rect{x: x, y: y, w: w, h: h, radius: radius, c: col})
}

func flatEnvelope(n int, v float64) waveform.Envelope {
	env := make(waveform.Envelope, n)
	for i := range env {
		env[i] = v
	}
	return env
}

func TestDrawGeometry(t *testing.T) {
	canvas := &recordingCanvas{width: 700, height: 40}
	env := waveform.Envelope{1, 0.5, 0}

	Draw(canvas, env, playback.State{}, 0, Light)

	require.Len(t, canvas.rects, 3)
	barWidth := 700.0 / 3

	assert.InDelta(t, 0, canvas.rects[0].x, 1e-9)
	assert.InDelta(t, 0, canvas.rects[0].y, 1e-9)
	assert.InDelta(t, 40, canvas.rects[0].h, 1e-9)
	assert.InDelta(t, barWidth*0.5, canvas.rects[0].w, 1e-9)

	assert.InDelta(t, barWidth, canvas.rects[1].x, 1e-9)
	assert.InDelta(t, 10, canvas.rects[1].y, 1e-9)
	assert.InDelta(t, 20, canvas.rects[1].h, 1e-9)

	assert.InDelta(t, 2*barWidth, canvas.rects[2].x, 1e-9)
	assert.InDelta(t, 20, canvas.rects[2].y, 1e-9)
	assert.InDelta(t, 0, canvas.rects[2].h, 1e-9)
}

func TestDrawClearsBeforeEachRedraw(t *testing.T) {
	canvas := &recordingCanvas{width: 70, height: 10}
	env := flatEnvelope(waveform.Samples, 1)

	Draw(canvas, env, playback.State{}, 0, Light)
	Draw(canvas, env, playback.State{}, 0, Light)

	assert.Equal(t, 2, canvas.clears)
	assert.Len(t, canvas.rects, waveform.Samples)
}

func TestDrawEmptyEnvelopeOnlyClears(t *testing.T) {
	canvas := &recordingCanvas{width: 70, height: 10}
	Draw(canvas, nil, playback.State{}, 0, Dark)
	assert.Equal(t, 1, canvas.clears)
	assert.Empty(t, canvas.rects)
}

func TestDrawColorPriority(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 10}
	env := flatEnvelope(10, 1)
	// 10 bars, 10 units wide, 10s long: one bar per second
	state := playback.State{CurrentTime: 3, Duration: 10}

	for _, theme := range []Theme{Light, Dark} {
		t.Run(theme.String(), func(t *testing.T) {
			p := theme.Palette()
			Draw(canvas, env, state, 6, theme)

			require.Len(t, canvas.rects, 10)
			for i, r := range canvas.rects {
				switch {
				case i <= 3:
					assert.Equal(t, p.Played, r.c, "bar %d", i)
				case i <= 6:
					assert.Equal(t, p.Hover, r.c, "bar %d", i)
				default:
					assert.Equal(t, p.Unplayed, r.c, "bar %d", i)
				}
			}
		})
	}
}

func TestDrawPlayedWinsOverHover(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 10}
	state := playback.State{CurrentTime: 5, Duration: 10}

	Draw(canvas, flatEnvelope(10, 1), state, 2, Light)

	for i := 0; i <= 5; i++ {
		assert.Equal(t, Light.Palette().Played, canvas.rects[i].c)
	}
	assert.Equal(t, Light.Palette().Unplayed, canvas.rects[6].c)
}

func TestDrawZeroDuration(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 10}

	Draw(canvas, flatEnvelope(10, 1), playback.State{CurrentTime: 4}, -1, Light)

	assert.Equal(t, Light.Palette().Played, canvas.rects[0].c)
	for _, r := range canvas.rects[1:] {
		assert.Equal(t, Light.Palette().Unplayed, r.c)
	}
}

func TestDrawUsesRoundedRectsWhenSupported(t *testing.T) {
	canvas := &roundCanvas{recordingCanvas: recordingCanvas{width: 140, height: 20}}

	Draw(canvas, flatEnvelope(waveform.Samples, 0.5), playback.State{}, 0, Light)

	assert.Equal(t, waveform.Samples, canvas.rounded)
	for _, r := range canvas.rects {
		assert.Equal(t, 2.0, r.radius)
	}
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{"", Light, false},
		{"DARK", Dark, false},
		{" dark ", Dark, false},
		{"solarized", Light, true},
	}
	for _, tt := range tests {
		got, err := ParseTheme(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTheme)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.NotEqual(t, Light.Palette(), Dark.Palette())
	assert.Equal(t, Light.Palette(), Theme(9).Palette())
}
