// Package playback mirrors a media element's transport state through its events.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"waveseek.click/internal/media"
)

// ErrUnavailable is returned by transport calls once the source is known to be unusable
var ErrUnavailable = errors.New("playback unavailable")

// Phase is the tracker's position in the transport state machine
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Playing
	Paused
	Ended
	Errored
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the element's transport state
type State struct {
	IsPlaying   bool
	CurrentTime float64
	Duration    float64
	BufferedEnd float64
	IsAvailable bool
	Phase       Phase
}

// Tracker follows one media element. It is safe for concurrent use; element
// events may arrive on any goroutine.
type Tracker struct {
	element media.Element

	mu        sync.Mutex
	state     State
	err       error
	removers  []func()
	nextID    int
	observers map[int]func(State)
}

// NewTracker creates an idle tracker for element
func NewTracker(element media.Element) *Tracker {
	return &Tracker{
		element:   element,
		state:     State{IsAvailable: true, Phase: Idle},
		observers: make(map[int]func(State)),
	}
}

// Bind subscribes to the element's events and asks it to load. Calling Bind on a
// bound tracker does nothing.
func (t *Tracker) Bind(ctx context.Context) {
	t.mu.Lock()
	if t.removers != nil {
		t.mu.Unlock()
		return
	}
	t.removers = []func(){
		t.element.AddEventListener(media.EventLoadedMetadata, t.onLoadedMetadata),
		t.element.AddEventListener(media.EventProgress, t.onProgress),
		t.element.AddEventListener(media.EventTimeUpdate, t.onTimeUpdate),
		t.element.AddEventListener(media.EventEnded, t.onEnded),
		t.element.AddEventListener(media.EventError, t.onError),
	}
	if t.state.Phase == Idle {
		t.state.Phase = Loading
	}
	t.mu.Unlock()

	slog.Debug("playback tracker bound", "sources", t.element.Sources())
	t.notify()

	t.element.Load(ctx)
}

// Close removes every listener Bind registered. Safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	removers := t.removers
	t.removers = nil
	t.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	if removers != nil {
		slog.Debug("playback tracker unbound")
	}
}

// Toggle pauses when playing and plays otherwise. A rejected play is logged and
// returned without changing state.
func (t *Tracker) Toggle(ctx context.Context) error {
	t.mu.Lock()
	playing := t.state.IsPlaying
	t.mu.Unlock()

	if playing {
		return t.Pause()
	}
	return t.Play(ctx)
}

// Play starts playback unless it is already running
func (t *Tracker) Play(ctx context.Context) error {
	t.mu.Lock()
	if !t.state.IsAvailable {
		t.mu.Unlock()
		return ErrUnavailable
	}
	if t.state.IsPlaying {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.element.Play(ctx); err != nil {
		slog.Warn("play request rejected", "error", err)
		return err
	}

	t.mu.Lock()
	// An error event may have landed while play was in flight
	if t.state.Phase == Errored {
		t.mu.Unlock()
		return ErrUnavailable
	}
	t.state.IsPlaying = true
	t.state.Phase = Playing
	t.mu.Unlock()

	slog.Debug("playback playing")
	t.notify()
	return nil
}

// Pause stops playback
func (t *Tracker) Pause() error {
	if err := t.element.Pause(); err != nil {
		slog.Warn("pause request failed", "error", err)
		return err
	}

	t.mu.Lock()
	if t.state.Phase == Errored || !t.state.IsPlaying {
		t.mu.Unlock()
		return nil
	}
	t.state.IsPlaying = false
	t.state.Phase = Paused
	t.mu.Unlock()

	slog.Debug("playback paused")
	t.notify()
	return nil
}

// MarkUnavailable disables playback for good without entering the errored phase
func (t *Tracker) MarkUnavailable() {
	t.mu.Lock()
	if !t.state.IsAvailable {
		t.mu.Unlock()
		return
	}
	t.state.IsAvailable = false
	t.mu.Unlock()

	slog.Info("playback marked unavailable")
	t.notify()
}

// State returns the current snapshot
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error delivered by the element's error event, if any
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// OnChange registers fn to run after every state change and returns its remover
func (t *Tracker) OnChange(fn func(State)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.observers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// notify runs observers with a fresh snapshot, outside the lock
func (t *Tracker) notify() {
	t.mu.Lock()
	state := t.state
	fns := make([]func(State), 0, len(t.observers))
	for id := 0; id < t.nextID; id++ {
		if fn, ok := t.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (t *Tracker) onLoadedMetadata(media.Event) {
	duration := t.element.Duration()

	t.mu.Lock()
	if t.state.Phase == Errored {
		t.mu.Unlock()
		return
	}
	t.state.Duration = duration
	if t.state.Phase == Idle || t.state.Phase == Loading {
		t.state.Phase = Ready
	}
	t.mu.Unlock()

	slog.Debug("media metadata loaded", "duration_s", duration)
	t.notify()
}

func (t *Tracker) onProgress(media.Event) {
	end, ok := t.element.Buffered().LastEnd()
	if !ok {
		return
	}

	t.mu.Lock()
	if t.state.Phase == Errored {
		t.mu.Unlock()
		return
	}
	t.state.BufferedEnd = end
	t.mu.Unlock()

	t.notify()
}

func (t *Tracker) onTimeUpdate(media.Event) {
	current := t.element.CurrentTime()

	t.mu.Lock()
	t.state.CurrentTime = current
	t.mu.Unlock()

	t.notify()
}

func (t *Tracker) onEnded(media.Event) {
	current := t.element.CurrentTime()

	t.mu.Lock()
	if t.state.Phase == Errored {
		t.mu.Unlock()
		return
	}
	t.state.IsPlaying = false
	t.state.CurrentTime = current
	t.state.Phase = Ended
	t.mu.Unlock()

	slog.Debug("playback ended", "position_s", current)
	t.notify()
}

func (t *Tracker) onError(ev media.Event) {
	t.mu.Lock()
	if t.state.Phase == Errored {
		t.mu.Unlock()
		return
	}
	t.state.Phase = Errored
	t.state.IsPlaying = false
	t.state.IsAvailable = false
	t.err = ev.Err
	t.mu.Unlock()

	slog.Error("media element error", "error", ev.Err)
	t.notify()
}
