// Package engine renders a composition frame by frame into an encoder.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promo2video/internal/logging"
	"github.com/ivlev/promo2video/internal/metrics"
	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/timeline"
	"github.com/ivlev/promo2video/internal/video"
)

// framesPerWorker is how many frames each worker renders ahead of the
// encoder.
const framesPerWorker = 2

// Project renders one composition to one video file.
type Project struct {
	Composition *timeline.Composition
	Encoder     video.VideoEncoder
	Output      string
	// Params carry the encoder settings; size and rate come from the
	// composition.
	Params video.Params
	// Workers renders frames in parallel; 0 picks a value from the CPU
	// count and free memory.
	Workers int
	// From and To select an inclusive frame range. To < 0 means the last
	// frame.
	From, To int
	// Artifacts writes requested stills next to Output.
	Artifacts bool

	Metrics *metrics.Recorder
	Log     *slog.Logger
}

// Report summarises a finished render.
type Report struct {
	Frames    int
	Artifacts []string
	Total     time.Duration
	Render    time.Duration
	Encode    time.Duration
}

// EffectiveFPS is frames per second of wall time.
func (r Report) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

func (r Report) String() string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		r.Frames, r.Total.Seconds(), r.Render.Seconds(), r.Encode.Seconds(), r.EffectiveFPS())
}

// frameRange clamps the requested range to the composition.
func (p *Project) frameRange() (int, int, error) {
	total := p.Composition.Metadata().TotalFrames
	from, to := p.From, p.To
	if to < 0 || to >= total {
		to = total - 1
	}
	if from < 0 || from > to {
		return 0, 0, fmt.Errorf("%w: range %d..%d of %d frames", timeline.ErrFrameOutOfRange, p.From, p.To, total)
	}
	return from, to, nil
}

func (p *Project) workers(meta timeline.Metadata) int {
	if p.Workers > 0 {
		return p.Workers
	}
	return system.RecommendedWorkers(meta.Width * meta.Height * 4)
}

// Run renders the frame range in batches of parallel work and writes each
// batch to the encoder in frame order.
func (p *Project) Run(ctx context.Context) (Report, error) {
	log := p.Log
	if log == nil {
		log = logging.NewNop()
	}
	start := time.Now()
	var report Report

	meta := p.Composition.Metadata()
	from, to, err := p.frameRange()
	if err != nil {
		return report, err
	}
	workers := p.workers(meta)
	if p.Metrics != nil {
		p.Metrics.Start(to - from + 1)
	}

	if err := os.MkdirAll(filepath.Dir(p.Output), 0755); err != nil {
		return report, err
	}
	params := p.Params
	params.Width, params.Height, params.FPS = meta.Width, meta.Height, meta.FrameRate
	out, err := p.Encoder.Open(ctx, p.Output, params)
	if err != nil {
		return report, err
	}

	log.Info("rendering",
		"output", p.Output,
		"size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"fps", meta.FrameRate,
		"frames", fmt.Sprintf("%d..%d", from, to),
		"workers", workers,
		"encoder", params.Encoder,
	)

	batch := make([]*image.RGBA, workers*framesPerWorker)
	release := func() {
		for i, img := range batch {
			if img != nil {
				renderer.Release(img)
				batch[i] = nil
			}
		}
	}

	runErr := func() error {
		defer release()
		for first := from; first <= to; first += len(batch) {
			n := min(len(batch), to-first+1)

			renderStart := time.Now()
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			for i := 0; i < n; i++ {
				frame := first + i
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					img, err := p.renderFrame(frame)
					if err != nil {
						return err
					}
					batch[i] = img
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			report.Render += time.Since(renderStart)

			for i := 0; i < n; i++ {
				frame := first + i
				if p.Artifacts {
					written, err := p.writeArtifacts(frame, batch[i])
					if err != nil {
						return err
					}
					report.Artifacts = append(report.Artifacts, written...)
				}
				writeStart := time.Now()
				if err := out.WriteFrame(batch[i]); err != nil {
					return fmt.Errorf("frame %d: %w", frame, err)
				}
				d := time.Since(writeStart)
				report.Encode += d
				if p.Metrics != nil {
					p.Metrics.FrameWritten(d)
				}
				report.Frames++
			}
			release()
			log.Debug("batch written", "last", first+n-1, "of", to)
		}
		return nil
	}()

	closeStart := time.Now()
	closeErr := out.Close()
	report.Encode += time.Since(closeStart)
	report.Total = time.Since(start)
	if runErr != nil {
		return report, runErr
	}
	if closeErr != nil {
		return report, closeErr
	}
	log.Info("render finished", "frames", report.Frames, "seconds", report.Total.Seconds(), "fps", report.EffectiveFPS())
	return report, nil
}

func (p *Project) renderFrame(frame int) (*image.RGBA, error) {
	var done func(string)
	if p.Metrics != nil {
		done = p.Metrics.RenderStarted()
	}
	img, err := p.Composition.RenderAt(frame)
	if done != nil {
		scene := "unknown"
		if res, rerr := p.Composition.Resolve(frame); rerr == nil {
			scene = res.Primary.Scene.ID()
		}
		done(scene)
	}
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	return img, nil
}

func (p *Project) writeArtifacts(frame int, img *image.RGBA) ([]string, error) {
	var written []string
	for _, a := range p.Composition.Artifacts(frame) {
		path := filepath.Join(filepath.Dir(p.Output), a.Filename)
		if err := video.WriteStill(path, img); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// RenderStill renders one frame of comp to a PNG or JPEG file.
func RenderStill(comp *timeline.Composition, frame int, path string) error {
	img, err := comp.RenderAt(frame)
	if err != nil {
		return err
	}
	defer renderer.Release(img)
	return video.WriteStill(path, img)
}

// AppendBenchmark adds one line for the run to a log file.
func AppendBenchmark(path, build, input string, r Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		r.Frames,
		r.Total.Seconds(),
		r.Render.Seconds(),
		r.Encode.Seconds(),
		r.EffectiveFPS(),
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
