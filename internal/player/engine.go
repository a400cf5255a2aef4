// Package player composes extraction, playback tracking, rendering and seeking
// into one audio player.
package player

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"waveseek.click/internal/audio"
	"waveseek.click/internal/media"
	"waveseek.click/internal/notify"
	"waveseek.click/internal/playback"
	"waveseek.click/internal/render"
	"waveseek.click/internal/seek"
	"waveseek.click/internal/waveform"
)

// Engine errors
var (
	ErrNotMounted  = errors.New("player is not mounted")
	ErrUnavailable = playback.ErrUnavailable
)

// DefaultSettleDelay is the pause between mount and waveform analysis
const DefaultSettleDelay = time.Second

// UnavailableMessage replaces the waveform when the source cannot be played
const UnavailableMessage = "source unavailable"

// Origin says where the current envelope came from
type Origin int

const (
	OriginPending Origin = iota
	OriginDecoded
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginDecoded:
		return "decoded"
	case OriginFallback:
		return "fallback"
	default:
		return "pending"
	}
}

// ElementFactory creates the media element for a list of sources
type ElementFactory func(sources []string) media.Element

// Extractor produces an envelope for a URL
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (waveform.Envelope, error)
}

// View is what a host needs to lay out the player
type View struct {
	Available     bool
	PlayDisabled  bool
	Playing       bool
	DurationLabel string
	Message       string
	Sources       []string
}

// Option configures an Engine
type Option func(*Engine)

// WithExtractor replaces the default extractor
func WithExtractor(x Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithRand sets the random source for fallback envelopes
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithSettleDelay sets the pause between mount and analysis
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.settle = d
		}
	}
}

// WithNotifier sets where user-facing messages go
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// Engine is one audio player instance. Its methods are safe for concurrent use.
type Engine struct {
	factory   ElementFactory
	extractor Extractor
	settle    time.Duration
	notifier  notify.Notifier

	rngMu sync.Mutex
	rng   *rand.Rand

	mu         sync.Mutex
	source     Source
	mounted    bool
	generation uint64
	element    media.Element
	tracker    *playback.Tracker
	seeker     *seek.Controller
	envelope   waveform.Envelope
	origin     Origin
	hover      float64
	timer      *time.Timer
	cancel     context.CancelFunc
	unobserve  func()
	nextID     int
	observers  map[int]func()
}

// New creates an unmounted engine for src. factory builds the media element on every mount.
func New(src Source, factory ElementFactory, opts ...Option) *Engine {
	e := &Engine{
		factory:   factory,
		settle:    DefaultSettleDelay,
		notifier:  notify.LogNotifier{},
		source:    src,
		observers: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.extractor == nil {
		e.extractor = waveform.NewExtractor()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Mount creates the media element, binds the tracker and schedules analysis of the
// primary source after the settling delay. A primary source that cannot be fetched
// over http(s) marks the player unavailable at once and gets a fallback envelope.
func (e *Engine) Mount(ctx context.Context) {
	e.mu.Lock()
	if e.mounted {
		e.mu.Unlock()
		return
	}
	e.mounted = true
	e.generation++
	gen := e.generation
	src := e.source

	e.element = e.factory(src.All())
	e.tracker = playback.NewTracker(e.element)
	e.seeker = seek.NewController(e.element, e.tracker, e.notifier)
	e.envelope = nil
	e.origin = OriginPending
	e.hover = 0
	tracker := e.tracker
	var errored atomic.Bool
	e.unobserve = tracker.OnChange(func(state playback.State) {
		if state.Phase == playback.Errored && errored.CompareAndSwap(false, true) {
			e.notifier.Notify(notify.Notification{
				Level:   notify.Error,
				Message: "Playback failed",
				Err:     tracker.Err(),
			})
		}
		e.changed()
	})
	e.mu.Unlock()

	slog.Info("player mounted", "sources", src.All(), "generation", gen)

	tracker.Bind(ctx)

	e.mu.Lock()
	stale := e.generation != gen
	e.mu.Unlock()
	if stale {
		// Unmount ran before Bind registered its listeners
		tracker.Close()
		return
	}

	primary := src.Primary()
	if !waveform.IsAnalyzable(primary) {
		slog.Debug("primary source is not analyzable", "url", primary)
		tracker.MarkUnavailable()
		e.applyEnvelope(gen, e.fallback(), OriginFallback)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		cancel()
		return
	}
	e.cancel = cancel
	e.timer = time.AfterFunc(e.settle, func() {
		e.extract(runCtx, gen, primary)
	})
	e.mu.Unlock()
}

func (e *Engine) extract(ctx context.Context, gen uint64, url string) {
	env, err := e.extractor.Extract(ctx, url)
	if ctx.Err() != nil {
		slog.Debug("discarding cancelled extraction", "url", url, "generation", gen)
		return
	}

	origin := OriginDecoded
	if err != nil {
		if errors.Is(err, audio.ErrCapabilityUnavailable) {
			e.notifier.Notify(notify.Notification{
				Level:   notify.Warning,
				Message: "Audio decoding is not supported here; showing an approximate waveform",
				Err:     err,
			})
		} else {
			slog.Debug("waveform analysis failed, using fallback", "url", url, "error", err)
		}
		env = e.fallback()
		origin = OriginFallback
	}

	e.applyEnvelope(gen, env, origin)
}

func (e *Engine) fallback() waveform.Envelope {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return waveform.Fallback(e.rng)
}

// applyEnvelope installs env unless the engine moved on to another generation
func (e *Engine) applyEnvelope(gen uint64, env waveform.Envelope, origin Origin) {
	e.mu.Lock()
	if !e.mounted || e.generation != gen {
		e.mu.Unlock()
		slog.Debug("dropping stale envelope", "generation", gen)
		return
	}
	e.envelope = env
	e.origin = origin
	e.mu.Unlock()

	slog.Debug("envelope ready", "origin", origin.String(), "generation", gen)
	e.changed()
}

// Unmount cancels pending analysis, unbinds the tracker and closes the element
func (e *Engine) Unmount() {
	e.mu.Lock()
	if !e.mounted {
		e.mu.Unlock()
		return
	}
	e.mounted = false
	e.generation++

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	element, tracker, unobserve := e.element, e.tracker, e.unobserve
	e.element, e.tracker, e.seeker, e.unobserve = nil, nil, nil, nil
	e.envelope = nil
	e.origin = OriginPending
	e.mu.Unlock()

	unobserve()
	tracker.Close()
	if err := element.Close(); err != nil {
		slog.Warn("failed to close media element", "error", err)
	}

	slog.Info("player unmounted")
}

// SetSource replaces the source and reruns the whole pipeline when mounted
func (e *Engine) SetSource(ctx context.Context, src Source) {
	e.mu.Lock()
	wasMounted := e.mounted
	e.mu.Unlock()

	e.Unmount()

	e.mu.Lock()
	e.source = src
	e.mu.Unlock()

	if wasMounted {
		e.Mount(ctx)
	}
}

func (e *Engine) parts() (*playback.Tracker, *seek.Controller, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mounted {
		return nil, nil, ErrNotMounted
	}
	return e.tracker, e.seeker, nil
}

// TogglePlay plays or pauses. It fails with ErrUnavailable while the control is disabled.
func (e *Engine) TogglePlay(ctx context.Context) error {
	tracker, _, err := e.parts()
	if err != nil {
		return err
	}
	if !tracker.State().IsAvailable {
		return ErrUnavailable
	}
	return tracker.Toggle(ctx)
}

// Click seeks to the pointer position and starts playback
func (e *Engine) Click(ctx context.Context, clientX float64, rect seek.Rect) error {
	return e.interact(ctx, clientX, rect)
}

// Press handles a mouse-down or touch-start at clientX
func (e *Engine) Press(ctx context.Context, clientX float64, rect seek.Rect) error {
	return e.interact(ctx, clientX, rect)
}

// Drag handles pointer movement while pressed
func (e *Engine) Drag(ctx context.Context, clientX float64, rect seek.Rect) error {
	return e.interact(ctx, clientX, rect)
}

func (e *Engine) interact(ctx context.Context, clientX float64, rect seek.Rect) error {
	_, seeker, err := e.parts()
	if err != nil {
		return err
	}
	return seeker.Interact(ctx, clientX, rect)
}

// Hover updates the hover time when clientX maps into buffered media
func (e *Engine) Hover(clientX float64, rect seek.Rect) {
	_, seeker, err := e.parts()
	if err != nil {
		return
	}

	e.mu.Lock()
	current := e.hover
	e.mu.Unlock()

	next := seeker.Hover(clientX, rect, current)
	if next == current {
		return
	}

	e.mu.Lock()
	e.hover = next
	e.mu.Unlock()
	e.changed()
}

// HoverTime returns the last committed hover time
func (e *Engine) HoverTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hover
}

// State returns the tracker snapshot, or a zero state when unmounted
func (e *Engine) State() playback.State {
	tracker, _, err := e.parts()
	if err != nil {
		return playback.State{}
	}
	return tracker.State()
}

// Envelope returns the current envelope and where it came from
func (e *Engine) Envelope() (waveform.Envelope, Origin) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.envelope, e.origin
}

// Draw renders the waveform. Until an envelope exists the canvas is only cleared.
func (e *Engine) Draw(canvas render.Canvas, theme render.Theme) {
	env, _ := e.Envelope()
	if env == nil {
		canvas.Clear()
		return
	}
	render.Draw(canvas, env, e.State(), e.HoverTime(), theme)
}

// View summarizes the player for layout
func (e *Engine) View() View {
	state := e.State()

	e.mu.Lock()
	mounted := e.mounted
	sources := e.source.All()
	e.mu.Unlock()

	available := mounted && state.IsAvailable
	v := View{
		Available:     available,
		PlayDisabled:  !available,
		Playing:       state.IsPlaying,
		DurationLabel: FormatDuration(state.Duration),
		Sources:       sources,
	}
	if !available {
		v.Message = UnavailableMessage
	}
	return v
}

// OnChange registers fn to run after any change that needs a repaint
func (e *Engine) OnChange(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *Engine) changed() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.observers))
	for id := 0; id < e.nextID; id++ {
		if fn, ok := e.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
