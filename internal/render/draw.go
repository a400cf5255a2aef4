// Package render draws an amplitude envelope as a bar waveform colored by
// playback and hover position.
package render

import (
	"image/color"

	"waveseek.click/internal/playback"
	"waveseek.click/internal/waveform"
)

// Bar geometry
const (
	barFill   = 0.5
	barRadius = 2.0
)

// Canvas is a 2D drawing surface measured in its own units (pixels or cells)
type Canvas interface {
	Size() (width, height float64)
	Clear()
	FillRect(x, y, w, h float64, c color.Color)
}

// RoundRecter is implemented by canvases that can draw rounded rectangles
type RoundRecter interface {
	FillRoundRect(x, y, w, h, radius float64, c color.Color)
}

// Draw clears canvas and paints one bar per envelope value. It holds no state and
// may be called on every change.
func Draw(canvas Canvas, env waveform.Envelope, state playback.State, hoverTime float64, theme Theme) {
	canvas.Clear()

	n := len(env)
	if n == 0 {
		return
	}

	width, height := canvas.Size()
	palette := theme.Palette()
	barWidth := width / float64(n)

	playedWidth := 0.0
	if state.Duration > 0 {
		playedWidth = state.CurrentTime / state.Duration * width
	}

	rounded, canRound := canvas.(RoundRecter)

	for i, value := range env {
		left := float64(i) * barWidth

		c := palette.Unplayed
		switch {
		case left <= playedWidth:
			c = palette.Played
		case left/width*state.Duration <= hoverTime:
			c = palette.Hover
		}

		h := value * height
		y := (height - h) / 2
		w := barWidth * barFill

		if canRound {
			rounded.FillRoundRect(left, y, w, h, barRadius, c)
		} else {
			canvas.FillRect(left, y, w, h, c)
		}
	}
}
