// Package media provides the media element the player engine drives: a source of
// playback events with play, pause and seek controls.
package media

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Common errors for Element implementations
var (
	ErrPlayback = errors.New("media playback error")
	ErrNotReady = errors.New("media metadata not loaded")
	ErrClosed   = errors.New("media element is closed")
)

// EventType names a media element event
type EventType string

// Events emitted by an Element
const (
	EventLoadedMetadata EventType = "loadedmetadata"
	EventProgress       EventType = "progress"
	EventTimeUpdate     EventType = "timeupdate"
	EventEnded          EventType = "ended"
	EventError          EventType = "error"
)

// Event is delivered to listeners. Err is set for EventError.
type Event struct {
	Type EventType
	Err  error
}

// Listener receives events
type Listener func(Event)

// Element is a single playable resource with transport controls, the Go
// counterpart of an HTML media element.
type Element interface {
	// Sources returns the primary and alternate source URLs in priority order
	Sources() []string
	// Load starts fetching metadata and media; progress is reported through events
	Load(ctx context.Context)
	Play(ctx context.Context) error
	Pause() error
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	Duration() float64
	Buffered() TimeRanges
	// AddEventListener registers l and returns the function that removes it
	AddEventListener(t EventType, l Listener) (remove func())
	Close() error
}

// TimeRange is a half-open interval of media time in seconds
type TimeRange struct {
	Start float64
	End   float64
}

// TimeRanges is an ordered set of buffered intervals
type TimeRanges []TimeRange

// Contains reports whether t lies within any range (inclusive of both ends)
func (r TimeRanges) Contains(t float64) bool {
	for _, tr := range r {
		if t >= tr.Start && t <= tr.End {
			return true
		}
	}
	return false
}

// LastEnd returns the end of the last range
func (r TimeRanges) LastEnd() (float64, bool) {
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1].End, true
}

// Add merges tr into the set and keeps it sorted
func (r TimeRanges) Add(tr TimeRange) TimeRanges {
	if tr.End < tr.Start {
		return r
	}
	merged := append(TimeRanges{}, r...)
	merged = append(merged, tr)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	out := merged[:1]
	for _, next := range merged[1:] {
		last := &out[len(out)-1]
		if next.Start <= last.End {
			if next.End > last.End {
				last.End = next.End
			}
			continue
		}
		out = append(out, next)
	}
	return out
}

// Emitter is a listener registry shared by Element implementations
type Emitter struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventType]map[int]Listener
}

// AddEventListener registers l for t. The returned function is idempotent.
func (e *Emitter) AddEventListener(t EventType, l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[EventType]map[int]Listener)
	}
	if e.listeners[t] == nil {
		e.listeners[t] = make(map[int]Listener)
	}

	id := e.nextID
	e.nextID++
	e.listeners[t][id] = l

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners[t], id)
	}
}

// ListenerCount returns how many listeners are registered for t
func (e *Emitter) ListenerCount(t EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[t])
}

// Emit calls every listener registered for the event type in registration order.
// Listeners run outside the registry lock and may remove themselves.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.listeners[ev.Type]))
	for id := range e.listeners[ev.Type] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	calls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		calls = append(calls, e.listeners[ev.Type][id])
	}
	e.mu.Unlock()

	for _, l := range calls {
		l(ev)
	}
}
