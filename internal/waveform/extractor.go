package waveform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"waveseek.click/internal/audio"
)

// ErrUnanalyzableSource means the URL cannot be fetched over HTTP(S)
var ErrUnanalyzableSource = errors.New("source is not fetchable over http(s)")

// FetchError reports a non-OK response for the audio bytes
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsAnalyzable reports whether rawURL uses the http or https scheme
func IsAnalyzable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Extractor fetches remote audio and reduces it to an Envelope
type Extractor struct {
	client   *http.Client
	contexts audio.ContextProvider
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithHTTPClient overrides the client used to fetch audio bytes
func WithHTTPClient(client *http.Client) ExtractorOption {
	return func(x *Extractor) {
		x.client = client
	}
}

// WithContextProvider overrides how decode contexts are acquired. A nil provider
// means the host has no decoding capability.
func WithContextProvider(provider audio.ContextProvider) ExtractorOption {
	return func(x *Extractor) {
		x.contexts = provider
	}
}

// NewExtractor creates an Extractor using http.DefaultClient and the default decoders
func NewExtractor(opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		client:   http.DefaultClient,
		contexts: audio.DefaultContextProvider(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract fetches rawURL, decodes it and returns its envelope. Failures are one of
// audio.ErrCapabilityUnavailable, ErrUnanalyzableSource, *FetchError,
// audio.ErrDecodeFailure, ErrSilentAudio or a context error. Nothing is retried.
func (x *Extractor) Extract(ctx context.Context, rawURL string) (Envelope, error) {
	if x.contexts == nil {
		return nil, audio.ErrCapabilityUnavailable
	}

	dc, err := x.contexts()
	if err != nil {
		slog.Debug("decode context unavailable", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %w", audio.ErrCapabilityUnavailable, err)
	}
	defer dc.Close()

	if !IsAnalyzable(rawURL) {
		slog.Debug("skipping analysis of non-http source", "url", rawURL)
		return nil, ErrUnanalyzableSource
	}

	data, err := x.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	pcm, err := dc.Decode(ctx, sourceName(rawURL), data)
	if err != nil {
		return nil, err
	}

	env, err := FromPCM(pcm.Channel(0))
	if err != nil {
		return nil, err
	}

	slog.Debug("envelope extracted",
		"url", rawURL,
		"frames", pcm.Frames(),
		"sample_rate", pcm.SampleRate)

	return env, nil
}

func (x *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Sec-Fetch-Mode", "cors")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}

	slog.Debug("audio fetched", "url", rawURL, "bytes", len(data))
	return data, nil
}

// sourceName returns the URL path, used as the extension hint for format detection
func sourceName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
