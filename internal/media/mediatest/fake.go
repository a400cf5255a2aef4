// Package mediatest provides an in-memory media.Element driven by the test.
package mediatest

import (
	"context"
	"sync"

	"waveseek.click/internal/media"
)

// FakeElement is a media.Element whose events are fired explicitly by the test
type FakeElement struct {
	media.Emitter

	mu          sync.Mutex
	sources     []string
	paused      bool
	currentTime float64
	duration    float64
	buffered    media.TimeRanges
	playErr     error
	loads       int
	plays       int
	pauses      int
	seeks       []float64
	closed      bool
}

// NewFakeElement creates a paused element with the given sources
func NewFakeElement(sources ...string) *FakeElement {
	return &FakeElement{sources: sources, paused: true}
}

func (f *FakeElement) Sources() []string {
	return append([]string(nil), f.sources...)
}

func (f *FakeElement) Load(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
}

func (f *FakeElement) Play(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	if f.playErr != nil {
		return f.playErr
	}
	f.paused = false
	return nil
}

func (f *FakeElement) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	f.paused = true
	return nil
}

func (f *FakeElement) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *FakeElement) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime
}

// SetCurrentTime records the seek and emits timeupdate like a real element
func (f *FakeElement) SetCurrentTime(seconds float64) error {
	f.mu.Lock()
	f.seeks = append(f.seeks, seconds)
	f.currentTime = seconds
	f.mu.Unlock()

	f.Emit(media.Event{Type: media.EventTimeUpdate})
	return nil
}

func (f *FakeElement) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *FakeElement) Buffered() media.TimeRanges {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(media.TimeRanges(nil), f.buffered...)
}

func (f *FakeElement) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// SetPlayError makes every following Play call fail with err
func (f *FakeElement) SetPlayError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playErr = err
}

// FireLoadedMetadata sets the duration and emits loadedmetadata
func (f *FakeElement) FireLoadedMetadata(duration float64) {
	f.mu.Lock()
	f.duration = duration
	f.mu.Unlock()
	f.Emit(media.Event{Type: media.EventLoadedMetadata})
}

// FireProgress replaces the buffered ranges and emits progress
func (f *FakeElement) FireProgress(ranges ...media.TimeRange) {
	f.mu.Lock()
	f.buffered = append(media.TimeRanges(nil), ranges...)
	f.mu.Unlock()
	f.Emit(media.Event{Type: media.EventProgress})
}

// FireTimeUpdate moves the position and emits timeupdate
func (f *FakeElement) FireTimeUpdate(seconds float64) {
	f.mu.Lock()
	f.currentTime = seconds
	f.mu.Unlock()
	f.Emit(media.Event{Type: media.EventTimeUpdate})
}

// FireEnded parks the position at the duration and emits ended
func (f *FakeElement) FireEnded() {
	f.mu.Lock()
	f.paused = true
	f.currentTime = f.duration
	f.mu.Unlock()
	f.Emit(media.Event{Type: media.EventEnded})
}

// FireError emits an error event
func (f *FakeElement) FireError(err error) {
	f.Emit(media.Event{Type: media.EventError, Err: err})
}

// Loads returns how many times Load was called
func (f *FakeElement) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

// Plays returns how many times Play was called
func (f *FakeElement) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

// Seeks returns every time passed to SetCurrentTime
func (f *FakeElement) Seeks() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.seeks...)
}

// Closed reports whether Close was called
func (f *FakeElement) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var _ media.Element = (*FakeElement)(nil)
