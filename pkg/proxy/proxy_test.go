package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardCopiesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "q=1", r.URL.RawQuery)
		assert.Equal(t, `{"in":true}`, string(body))
		assert.NotEmpty(t, r.Header.Get("X-Forwarded-For"))

		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("brewed"))
	}))
	defer upstream.Close()

	f, err := NewForwarder(Config{Target: upstream.URL, ServerID: "srv"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/things?q=1", strings.NewReader(""))
	rec := httptest.NewRecorder()
	status := f.Forward(rec, req, []byte(`{"in":true}`))

	assert.Equal(t, http.StatusTeapot, status)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "brewed", rec.Body.String())
	assert.Equal(t, "yes", rec.Header().Get("X-Upstream"))
}

func TestForwardUpstreamFailure(t *testing.T) {
	// Unroutable port on localhost.
	f, err := NewForwarder(Config{Target: "http://127.0.0.1:1"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/x", nil)
	rec := httptest.NewRecorder()
	status := f.Forward(rec, req, nil)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, rec.Body.String(), "upstream_failure")
}

func TestForwardCapturesRecording(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	f, err := NewForwarder(Config{Target: upstream.URL, Capture: true, ServerID: "srv-7"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/captured", nil)
	f.Forward(httptest.NewRecorder(), req, nil)

	recs := f.Recordings().List()
	require.Len(t, recs, 1)
	assert.Equal(t, "srv-7", recs[0].ServerID)
	assert.Equal(t, "GET", recs[0].Method)
	assert.Equal(t, "/captured", recs[0].Path)
	assert.Equal(t, 200, recs[0].Status)
	assert.Equal(t, `{"ok":true}`, recs[0].ResponseBody)
}

func TestForwardNoCaptureByDefault(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	f, err := NewForwarder(Config{Target: upstream.URL})
	require.NoError(t, err)

	f.Forward(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil), nil)
	assert.Equal(t, 0, f.Recordings().Len())
}

// firstWriteSignal closes ch the first time the response body is written,
// so a test can gate the upstream on the client having received data.
type firstWriteSignal struct {
	http.ResponseWriter
	once sync.Once
	ch   chan struct{}
}

func (w *firstWriteSignal) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.ch) })
	return w.ResponseWriter.Write(p)
}

func TestForwardStreamsResponseBody(t *testing.T) {
	// The upstream sends a first chunk, then waits until that chunk has
	// reached the client before finishing. Only a streaming relay can
	// complete this exchange; buffering the whole body would stall.
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first,"))
		w.(http.Flusher).Flush()
		<-release
		_, _ = w.Write([]byte("second"))
	}))
	defer upstream.Close()

	f, err := NewForwarder(Config{Target: upstream.URL, Timeout: 3 * time.Second})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	w := &firstWriteSignal{ResponseWriter: rec, ch: release}

	done := make(chan int, 1)
	go func() {
		done <- f.Forward(w, httptest.NewRequest("GET", "/stream", nil), nil)
	}()

	select {
	case status := <-done:
		assert.Equal(t, http.StatusOK, status)
	case <-time.After(5 * time.Second):
		t.Fatal("forward buffered the response instead of streaming it")
	}
	assert.Equal(t, "first,second", rec.Body.String())
}

func TestNewForwarderRejectsBadTarget(t *testing.T) {
	_, err := NewForwarder(Config{Target: "ftp://example.com"})
	assert.Error(t, err)

	_, err = NewForwarder(Config{Target: "://bad"})
	assert.Error(t, err)
}

func TestHopByHopHeadersStripped(t *testing.T) {
	var seen http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
	}))
	defer upstream.Close()

	f, err := NewForwarder(Config{Target: upstream.URL})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Proxy-Authorization", "secret")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("X-Custom", "kept")
	f.Forward(httptest.NewRecorder(), req, nil)

	assert.Empty(t, seen.Get("Proxy-Authorization"))
	assert.Empty(t, seen.Get("Upgrade"))
	assert.Equal(t, "kept", seen.Get("X-Custom"))
}
