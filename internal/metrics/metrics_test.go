package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promo2video/internal/logging"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Start(701)
	assert.Equal(t, 701.0, testutil.ToFloat64(r.totalFrames))

	done := r.RenderStarted()
	other := r.RenderStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.inFlight))

	done("hook")
	other("hook")
	r.RenderStarted()("cta")
	r.FrameWritten(3 * time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(r.inFlight))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.framesRendered.WithLabelValues("hook")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesRendered.WithLabelValues("cta")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.writeDuration))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.RenderStarted()("hook")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `promo2video_frames_rendered_total{scene="hook"} 1`)
	assert.Contains(t, string(body), "promo2video_frame_render_seconds_count 1")
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewRecorder().Serve(ctx, "127.0.0.1:0", logging.NewNop()) }()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
