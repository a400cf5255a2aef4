package player

import (
	"fmt"
	"math"
)

// Source is one logical audio resource: a primary URL and alternate encodings of it
type Source struct {
	URL        string
	Alternates []string
}

// Primary returns the URL used for waveform analysis: URL, else the first alternate
func (s Source) Primary() string {
	if s.URL != "" {
		return s.URL
	}
	for _, alt := range s.Alternates {
		if alt != "" {
			return alt
		}
	}
	return ""
}

// All returns every non-empty URL in priority order without duplicates
func (s Source) All() []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range append([]string{s.URL}, s.Alternates...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// FormatDuration renders seconds as m:ss with whole seconds
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
