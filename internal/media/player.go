package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/spf13/afero"
	"waveseek.click/internal/audio"
)

// ErrUnsupportedScheme is returned when a source cannot be fetched at all
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// Player is an Element that fetches the first decodable source, decodes it fully
// and plays it through an Output. Events are emitted from the player's own goroutines.
type Player struct {
	Emitter

	sources  []string
	output   Output
	client   *http.Client
	fs       afero.Fs
	registry *audio.DecoderRegistry
	tick     time.Duration
	volume   float64

	mu         sync.Mutex
	format     Format
	cursor     *Cursor
	stream     Stream
	duration   float64
	buffered   TimeRanges
	loaded     bool
	failed     bool
	closed     bool
	paused     bool
	pending    float64
	stopTick   chan struct{}
	cancelLoad context.CancelFunc
}

// PlayerOption configures a Player
type PlayerOption func(*Player)

// WithHTTPClient sets the client used for http and https sources
func WithHTTPClient(client *http.Client) PlayerOption {
	return func(p *Player) {
		p.client = client
	}
}

// WithFilesystem sets the filesystem used for file:// URLs and bare paths
func WithFilesystem(fs afero.Fs) PlayerOption {
	return func(p *Player) {
		p.fs = fs
	}
}

// WithRegistry sets the decoder registry
func WithRegistry(registry *audio.DecoderRegistry) PlayerOption {
	return func(p *Player) {
		p.registry = registry
	}
}

// WithTickInterval sets how often timeupdate fires while playing
func WithTickInterval(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d > 0 {
			p.tick = d
		}
	}
}

// WithVolume scales decoded samples, 0.0 to 1.0
func WithVolume(volume float64) PlayerOption {
	return func(p *Player) {
		if volume >= 0 && volume <= 1 {
			p.volume = volume
		}
	}
}

// NewPlayer creates a paused player for sources in priority order
func NewPlayer(sources []string, output Output, opts ...PlayerOption) *Player {
	p := &Player{
		sources: append([]string(nil), sources...),
		output:  output,
		client:  http.DefaultClient,
		fs:      afero.NewOsFs(),
		tick:    250 * time.Millisecond,
		volume:  1.0,
		paused:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = audio.NewDefaultRegistry()
	}

	slog.Debug("media player created",
		"sources", p.sources,
		"output", output.Name())

	return p
}

// Sources returns the sources in priority order
func (p *Player) Sources() []string {
	return append([]string(nil), p.sources...)
}

// Load fetches and decodes in the background. It emits loadedmetadata and progress
// on success, or error when no source could be played.
func (p *Player) Load(ctx context.Context) {
	p.mu.Lock()
	if p.closed || p.cancelLoad != nil {
		p.mu.Unlock()
		return
	}
	loadCtx, cancel := context.WithCancel(ctx)
	p.cancelLoad = cancel
	p.mu.Unlock()

	go p.load(loadCtx)
}

func (p *Player) load(ctx context.Context) {
	var lastErr error

	for _, src := range p.sources {
		pcm, err := p.fetchAndDecode(ctx, src)
		if ctx.Err() != nil {
			slog.Debug("media load cancelled", "source", src)
			return
		}
		if err != nil {
			slog.Debug("source not playable", "source", src, "error", err)
			lastErr = err
			continue
		}

		if !p.install(pcm) {
			return
		}

		slog.Info("media loaded",
			"source", src,
			"duration_s", pcm.Duration(),
			"sample_rate", pcm.SampleRate,
			"channels", pcm.NumChannels())

		p.Emit(Event{Type: EventLoadedMetadata})
		p.Emit(Event{Type: EventProgress})
		return
	}

	if lastErr == nil {
		lastErr = errors.New("no sources")
	}

	p.mu.Lock()
	p.failed = true
	p.mu.Unlock()

	slog.Error("no playable source", "sources", p.sources, "error", lastErr)
	p.Emit(Event{Type: EventError, Err: fmt.Errorf("%w: %w", ErrPlayback, lastErr)})
}

// install makes pcm the playable buffer. It reports false when the player closed meanwhile.
func (p *Player) install(pcm *audio.PCM) bool {
	scaled := pcm
	if p.volume != 1.0 {
		scaled = scalePCM(pcm, float32(p.volume))
	}

	format := Format{SampleRate: pcm.SampleRate, Channels: pcm.NumChannels()}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.format = format
	p.cursor = NewCursor(scaled.Interleaved16(), format.BytesPerFrame())
	p.duration = pcm.Duration()
	p.buffered = p.buffered.Add(TimeRange{Start: 0, End: p.duration})
	p.loaded = true

	if p.pending > 0 {
		start := p.pending
		if start > p.duration {
			start = p.duration
		}
		p.pending = 0
		if _, err := p.cursor.Seek(int64(start*float64(format.SampleRate))*int64(format.BytesPerFrame()), io.SeekStart); err != nil {
			slog.Warn("failed to apply start position", "position_s", start, "error", err)
		}
	}
	return true
}

func (p *Player) fetchAndDecode(ctx context.Context, src string) (*audio.PCM, error) {
	data, name, err := p.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.registry.DecodeBytes(name, data)
}

// fetch reads src over HTTP or from the filesystem and returns its bytes and a
// name whose extension hints the format
func (p *Player) fetch(ctx context.Context, src string) ([]byte, string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, "", fmt.Errorf("invalid source URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		return data, path.Base(u.Path), nil
	case "file":
		data, err := afero.ReadFile(p.fs, u.Path)
		return data, u.Path, err
	case "":
		data, err := afero.ReadFile(p.fs, src)
		return data, src, err
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func scalePCM(pcm *audio.PCM, gain float32) *audio.PCM {
	out := &audio.PCM{SampleRate: pcm.SampleRate, Channels: make([][]float32, len(pcm.Channels))}
	for ch, samples := range pcm.Channels {
		scaled := make([]float32, len(samples))
		for i, v := range samples {
			scaled[i] = v * gain
		}
		out.Channels[ch] = scaled
	}
	return out
}

// Play starts playback. Playing past the end restarts from the beginning.
func (p *Player) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return ErrClosed
	case p.failed:
		return ErrPlayback
	case !p.loaded:
		return ErrNotReady
	case !p.paused:
		return nil
	}

	if p.cursor.AtEnd() {
		if err := p.seekLocked(0); err != nil {
			return fmt.Errorf("%w: %w", ErrPlayback, err)
		}
	}

	if p.stream == nil {
		stream, err := p.output.Open(p.format, p.cursor)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPlayback, err)
		}
		p.stream = stream
	}

	if err := p.stream.Play(); err != nil {
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	p.paused = false
	p.stopTick = make(chan struct{})
	go p.ticker(p.stopTick)

	slog.Debug("playback started", "output", p.output.Name(), "position_s", p.currentTimeLocked())
	return nil
}

// ticker emits timeupdate while playing and ended once the cursor runs out
func (p *Player) ticker(stop chan struct{}) {
	t := time.NewTicker(p.tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		p.mu.Lock()
		if p.stopTick != stop {
			p.mu.Unlock()
			return
		}
		ended := p.cursor.AtEnd()
		if ended {
			p.pauseLocked()
		}
		p.mu.Unlock()

		p.Emit(Event{Type: EventTimeUpdate})
		if ended {
			slog.Debug("playback ended")
			p.Emit(Event{Type: EventEnded})
			return
		}
	}
}

// Pause stops playback and keeps the position
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	return p.pauseLocked()
}

func (p *Player) pauseLocked() error {
	if p.paused {
		return nil
	}
	p.paused = true
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
	if p.stream != nil {
		return p.stream.Pause()
	}
	return nil
}

// Paused reports whether playback is stopped
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// CurrentTime returns the playback position in seconds
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTimeLocked()
}

func (p *Player) currentTimeLocked() float64 {
	if !p.loaded || p.format.SampleRate <= 0 {
		return p.pending
	}
	return float64(p.cursor.Frame()) / float64(p.format.SampleRate)
}

// SetCurrentTime moves the playback position, clamped to [0, duration]. Before
// metadata is loaded the time is kept and applied as the start position.
func (p *Player) SetCurrentTime(seconds float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if !p.loaded {
		p.pending = seconds
		p.mu.Unlock()
		slog.Debug("start position stored", "position_s", seconds)
		return nil
	}
	if seconds > p.duration {
		seconds = p.duration
	}
	err := p.seekLocked(seconds)
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	p.Emit(Event{Type: EventTimeUpdate})
	return nil
}

func (p *Player) seekLocked(seconds float64) error {
	offset := int64(seconds*float64(p.format.SampleRate)) * int64(p.format.BytesPerFrame())
	if p.stream != nil {
		return p.stream.SeekTo(offset)
	}
	_, err := p.cursor.Seek(offset, io.SeekStart)
	return err
}

// Duration returns the media length in seconds, 0 until metadata is loaded
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Buffered returns a copy of the buffered ranges
func (p *Player) Buffered() TimeRanges {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(TimeRanges(nil), p.buffered...)
}

// Close stops loading and playback and releases the output stream
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	_ = p.pauseLocked()

	if p.stream != nil {
		err := p.stream.Close()
		p.stream = nil
		if err != nil {
			slog.Error("failed to close output stream", "error", err)
			return err
		}
	}

	slog.Debug("media player closed")
	return nil
}
