package waveform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"waveseek.click/internal/audio"
	"waveseek.click/internal/audio/audiotest"
)

// trackingProvider records every decode context it hands out
type trackingProvider struct {
	contexts []*audio.Context
}

func (p *trackingProvider) provide() (*audio.Context, error) {
	dc, err := audio.NewContext(audio.NewDefaultRegistry())
	if err != nil {
		return nil, err
	}
	p.contexts = append(p.contexts, dc)
	return dc, nil
}

func (p *trackingProvider) assertReleased(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, p.contexts)
	for _, dc := range p.contexts {
		assert.False(t, dc.IsValid(), "decode context must be released")
	}
}

func audioServer(t *testing.T, status int, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "cors", r.Header.Get("Sec-Fetch-Mode"))
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestExtractDecodesWav(t *testing.T) {
	srv, hits := audioServer(t, http.StatusOK, audiotest.WAV16(t, 8000, 1, audiotest.Ramp(512)))
	provider := &trackingProvider{}
	x := NewExtractor(WithHTTPClient(srv.Client()), WithContextProvider(provider.provide))

	env, err := x.Extract(context.Background(), srv.URL+"/a.wav")
	require.NoError(t, err)

	assertNormalized(t, env)
	assert.Equal(t, int32(1), hits.Load())
	provider.assertReleased(t)

	// A ramp grows, so the last bar is the loudest
	assert.Equal(t, 1.0, env[Samples-1])
	assert.Less(t, env[0], env[Samples-1])
}

func TestExtractNotFound(t *testing.T) {
	srv, _ := audioServer(t, http.StatusNotFound, nil)
	provider := &trackingProvider{}
	x := NewExtractor(WithHTTPClient(srv.Client()), WithContextProvider(provider.provide))

	env, err := x.Extract(context.Background(), srv.URL+"/missing.mp3")
	assert.Nil(t, env)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	provider.assertReleased(t)
}

func TestExtractDecodeFailure(t *testing.T) {
	srv, _ := audioServer(t, http.StatusOK, []byte("this is not audio"))
	provider := &trackingProvider{}
	x := NewExtractor(WithHTTPClient(srv.Client()), WithContextProvider(provider.provide))

	_, err := x.Extract(context.Background(), srv.URL+"/a.wav")
	assert.True(t, errors.Is(err, audio.ErrDecodeFailure))
	provider.assertReleased(t)
}

func TestExtractTruncatedWav(t *testing.T) {
	srv, _ := audioServer(t, http.StatusOK, []byte("RIFF....WAVEjunk"))
	provider := &trackingProvider{}
	x := NewExtractor(WithHTTPClient(srv.Client()), WithContextProvider(provider.provide))

	var env Envelope
	var err error
	require.NotPanics(t, func() {
		env, err = x.Extract(context.Background(), srv.URL+"/a.wav")
	})
	assert.Nil(t, env)
	assert.True(t, errors.Is(err, audio.ErrDecodeFailure))
	provider.assertReleased(t)
}

func TestExtractSilentAudio(t *testing.T) {
	srv, _ := audioServer(t, http.StatusOK, audiotest.WAV16(t, 8000, 1, make([]int, 700)))
	x := NewExtractor(WithHTTPClient(srv.Client()))

	_, err := x.Extract(context.Background(), srv.URL+"/quiet.wav")
	assert.True(t, errors.Is(err, ErrSilentAudio))
}

func TestExtractNonHTTPSchemesNeverFetch(t *testing.T) {
	x := NewExtractor(WithHTTPClient(&http.Client{Transport: failingTransport{t}}))

	for _, u := range []string{
		"blob:https://x/123e4567",
		"data:audio/wav;base64,UklGRg==",
		"file:///tmp/a.wav",
		"/local/a.mp3",
		"ftp://x/a.mp3",
	} {
		_, err := x.Extract(context.Background(), u)
		assert.True(t, errors.Is(err, ErrUnanalyzableSource), u)
	}
}

func TestExtractCapabilityUnavailable(t *testing.T) {
	x := NewExtractor(WithContextProvider(nil))
	_, err := x.Extract(context.Background(), "https://x/a.mp3")
	assert.True(t, errors.Is(err, audio.ErrCapabilityUnavailable))

	x = NewExtractor(WithContextProvider(func() (*audio.Context, error) {
		return audio.NewContext(audio.NewDecoderRegistry())
	}))
	_, err = x.Extract(context.Background(), "https://x/a.mp3")
	assert.True(t, errors.Is(err, audio.ErrCapabilityUnavailable))
}

func TestExtractCancelled(t *testing.T) {
	srv, _ := audioServer(t, http.StatusOK, audiotest.WAV16(t, 8000, 1, audiotest.Ramp(512)))
	provider := &trackingProvider{}
	x := NewExtractor(WithHTTPClient(srv.Client()), WithContextProvider(provider.provide))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := x.Extract(ctx, srv.URL+"/a.wav")
	assert.True(t, errors.Is(err, context.Canceled))
	provider.assertReleased(t)
}

func TestIsAnalyzable(t *testing.T) {
	assert.True(t, IsAnalyzable("http://x/a.mp3"))
	assert.True(t, IsAnalyzable("HTTPS://x/a.mp3"))
	assert.False(t, IsAnalyzable("blob:https://x/1"))
	assert.False(t, IsAnalyzable(""))
	assert.False(t, IsAnalyzable("::bad"))
}

type failingTransport struct {
	t *testing.T
}

func (f failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.t.Errorf("unexpected request to %s", r.URL)
	return nil, errors.New("no network")
}
