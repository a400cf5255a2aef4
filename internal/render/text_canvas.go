package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TextCanvas draws into a grid of terminal cells, one unit per cell. It has no
// rounded corners, so Draw falls back to plain rectangles.
type TextCanvas struct {
	cols  int
	rows  int
	cells [][]color.Color
	glyph string
}

// NewTextCanvas creates a cols x rows cell grid
func NewTextCanvas(cols, rows int) *TextCanvas {
	c := &TextCanvas{cols: cols, rows: rows, glyph: "█"}
	c.Clear()
	return c
}

// Size returns the grid size in cells
func (c *TextCanvas) Size() (float64, float64) {
	return float64(c.cols), float64(c.rows)
}

// Clear empties every cell
func (c *TextCanvas) Clear() {
	c.cells = make([][]color.Color, c.rows)
	for row := range c.cells {
		c.cells[row] = make([]color.Color, c.cols)
	}
}

// FillRect colors every cell the rectangle covers at least half of, in both directions
func (c *TextCanvas) FillRect(x, y, w, h float64, col color.Color) {
	for row := 0; row < c.rows; row++ {
		if overlap(y, y+h, float64(row)) < 0.5 {
			continue
		}
		for colIdx := 0; colIdx < c.cols; colIdx++ {
			if overlap(x, x+w, float64(colIdx)) < 0.5 {
				continue
			}
			c.cells[row][colIdx] = col
		}
	}
}

// overlap returns how much of the unit cell starting at start lies in [from, to)
func overlap(from, to, start float64) float64 {
	lo := max(from, start)
	hi := min(to, start+1)
	if hi <= lo {
		return 0
	}
	// Absorb float error from barWidth*0.5 style arithmetic
	return hi - lo + 1e-9
}

// At returns the color of a cell, or nil when it is empty or out of range
func (c *TextCanvas) At(col, row int) color.Color {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return nil
	}
	return c.cells[row][col]
}

// Render returns the grid as styled terminal text, one line per row
func (c *TextCanvas) Render() string {
	lines := make([]string, c.rows)
	for row, cells := range c.cells {
		var b strings.Builder
		for col := 0; col < len(cells); {
			run := 1
			for col+run < len(cells) && sameColor(cells[col], cells[col+run]) {
				run++
			}
			if cells[col] == nil {
				b.WriteString(strings.Repeat(" ", run))
			} else {
				style := lipgloss.NewStyle().Foreground(lipglossColor(cells[col]))
				b.WriteString(style.Render(strings.Repeat(c.glyph, run)))
			}
			col += run
		}
		lines[row] = b.String()
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func lipglossColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8))
}
