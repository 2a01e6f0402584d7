// Package metrics exposes render progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects per-frame render metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	framesRendered *prometheus.CounterVec
	renderDuration prometheus.Histogram
	writeDuration  prometheus.Histogram
	inFlight       prometheus.Gauge
	totalFrames    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		framesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promo2video_frames_rendered_total",
				Help: "Frames rendered, by the scene on top.",
			},
			[]string{"scene"},
		),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promo2video_frame_render_seconds",
			Help:    "Time to render one composition frame.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promo2video_frame_write_seconds",
			Help:    "Time to hand one frame to the encoder.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promo2video_frames_in_flight",
			Help: "Frames being rendered right now.",
		}),
		totalFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promo2video_composition_frames",
			Help: "Frames in the composition being rendered.",
		}),
	}
	r.registry.MustRegister(r.framesRendered, r.renderDuration, r.writeDuration, r.inFlight, r.totalFrames)
	return r
}

// Start records the size of a new render.
func (r *Recorder) Start(totalFrames int) {
	r.totalFrames.Set(float64(totalFrames))
}

// RenderStarted marks a frame as in flight and returns the callback that
// records its completion.
func (r *Recorder) RenderStarted() func(scene string) {
	r.inFlight.Inc()
	start := time.Now()
	return func(scene string) {
		r.inFlight.Dec()
		r.renderDuration.Observe(time.Since(start).Seconds())
		r.framesRendered.WithLabelValues(scene).Inc()
	}
}

// FrameWritten records the time spent in the encoder for one frame.
func (r *Recorder) FrameWritten(d time.Duration) {
	r.writeDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn("metrics server shutdown", "err", err)
		}
	}()

	log.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
