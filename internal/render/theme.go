package render

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// ErrInvalidTheme is returned by ParseTheme for unknown names
var ErrInvalidTheme = errors.New("invalid theme")

// Theme selects a bar palette
type Theme int

const (
	Light Theme = iota
	Dark
)

// Palette holds the three bar colors
type Palette struct {
	Played   color.RGBA
	Hover    color.RGBA
	Unplayed color.RGBA
}

var palettes = map[Theme]Palette{
	Light: {
		Played:   color.RGBA{R: 0x15, G: 0x5A, B: 0xEF, A: 0xFF},
		Hover:    color.RGBA{R: 0x84, G: 0xAB, B: 0xFF, A: 0xFF},
		Unplayed: color.RGBA{R: 0xD0, G: 0xD5, B: 0xDD, A: 0xFF},
	},
	Dark: {
		Played:   color.RGBA{R: 0x52, G: 0x89, B: 0xFF, A: 0xFF},
		Hover:    color.RGBA{R: 0x3D, G: 0x5A, B: 0x99, A: 0xFF},
		Unplayed: color.RGBA{R: 0x4B, G: 0x55, B: 0x63, A: 0xFF},
	},
}

// Palette returns the colors for t; unknown themes use Light
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[Light]
}

func (t Theme) String() string {
	switch t {
	case Light:
		return "light"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("theme(%d)", int(t))
	}
}

// ParseTheme maps "light" or "dark" to a Theme
func ParseTheme(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "light":
		return Light, nil
	case "dark":
		return Dark, nil
	default:
		return Light, fmt.Errorf("%w: %q", ErrInvalidTheme, name)
	}
}
