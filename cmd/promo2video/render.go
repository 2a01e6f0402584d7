package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/director"
	"github.com/ivlev/promo2video/internal/engine"
	"github.com/ivlev/promo2video/internal/metrics"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/video"
)

var (
	renderCfg  = config.Default()
	audioSync  bool
	outputDir  string
	statsFile  string
	noArtifact bool
)

var renderCmd = &cobra.Command{
	Use:   "render [storyboard.yaml]",
	Short: "Render a storyboard to an MP4",
	Long: `Render compiles the storyboard (by default the newest one in storyboards/)
and streams every frame into ffmpeg. A soundtrack, given on the command line,
in the storyboard or found in input/audio/, is muxed under the video.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runRender(ctx, args)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderCfg.OutputVideo, "output", "o", "", "video path (default: output/<storyboard>_<time>.mp4)")
	f.StringVar(&outputDir, "output-dir", "output", "folder for generated video names")
	f.IntVar(&renderCfg.Width, "width", 0, "override the composition width")
	f.IntVar(&renderCfg.Height, "height", 0, "override the composition height")
	f.Float64Var(&renderCfg.FPS, "fps", 0, "override the composition frame rate")
	f.StringVar(&renderCfg.Preset, "preset", "", "format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram), 1:1")
	f.IntVar(&renderCfg.From, "from", 0, "first frame to render")
	f.IntVar(&renderCfg.To, "to", -1, "last frame to render, -1 for the end")
	f.IntVar(&renderCfg.Workers, "workers", 0, "render workers (0: from CPU count and free memory)")
	f.StringVar(&renderCfg.VideoEncoder, "encoder", "auto", "ffmpeg video encoder, auto picks hardware when available")
	f.IntVar(&renderCfg.Quality, "quality", 0, "0 auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s")
	f.StringVar(&renderCfg.EncoderPreset, "x264-preset", "medium", "libx264 speed preset")
	f.StringVar(&renderCfg.AudioPath, "audio", "", "soundtrack (default: storyboard audio, then newest file in input/audio/)")
	f.BoolVar(&audioSync, "audio-sync", false, "stretch scene durations to the soundtrack length")
	f.BoolVar(&noArtifact, "no-artifacts", false, "skip thumbnails and other artifacts")
	f.StringVar(&renderCfg.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while rendering")
	f.BoolVar(&renderCfg.ShowStats, "stats", false, "print a performance report and append it to the stats file")
	f.StringVar(&statsFile, "stats-file", "benchmark.log", "where --stats appends its line")
	rootCmd.AddCommand(renderCmd)
}

func runRender(ctx context.Context, args []string) error {
	cfg := renderCfg
	cfg.BuildVersion = version
	cfg.LogLevel = logLevel
	cfg.Artifacts = !noArtifact

	path, err := storyboardArg(args)
	if err != nil {
		return err
	}
	cfg.StoryboardPath = path
	if err := cfg.ApplyPreset(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sb, err := director.ReadStoryboard(path)
	if err != nil {
		return err
	}
	canvas{cfg.Width, cfg.Height, cfg.FPS}.apply(sb)

	audio, err := pickAudio(ctx, &cfg, sb, audioSync)
	if err != nil {
		return err
	}

	comp, err := compile(ctx, sb, path, log)
	if err != nil {
		return err
	}

	if cfg.OutputVideo == "" {
		cfg.OutputVideo = config.DefaultOutput(outputDir, path, time.Now())
	}
	if cfg.VideoEncoder == "" || cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		if cfg.VideoEncoder != "libx264" {
			log.Info("hardware encoder detected", "encoder", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = video.DefaultQuality(cfg.VideoEncoder)
	}

	var rec *metrics.Recorder
	if cfg.MetricsAddr != "" {
		rec = metrics.NewRecorder()
		go func() {
			if err := rec.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	project := &engine.Project{
		Composition: comp,
		Encoder:     &video.FFmpegEncoder{Log: log},
		Output:      cfg.OutputVideo,
		Params: video.Params{
			Encoder: cfg.VideoEncoder,
			Quality: cfg.Quality,
			Preset:  cfg.EncoderPreset,
			Audio:   audio,
		},
		Workers:   cfg.Workers,
		From:      cfg.From,
		To:        cfg.To,
		Artifacts: cfg.Artifacts,
		Metrics:   rec,
		Log:       log,
	}
	report, err := project.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.ShowStats {
		fmt.Printf("Build: %s\n%s", cfg.BuildVersion, report)
		if err := engine.AppendBenchmark(statsFile, cfg.BuildVersion, path, report); err != nil {
			log.Warn("cannot write stats file", "path", statsFile, "error", err)
		}
	}
	for _, a := range report.Artifacts {
		log.Info("artifact written", "path", a)
	}
	fmt.Printf("Done: %s\n", cfg.OutputVideo)
	return nil
}

// pickAudio resolves the soundtrack and, with sync, fits the storyboard to
// its length.
func pickAudio(ctx context.Context, cfg *config.Config, sb *director.Storyboard, sync bool) (*video.Audio, error) {
	audio := &video.Audio{Path: cfg.AudioPath}
	if spec := sb.Composition.Audio; spec != nil {
		if audio.Path == "" && spec.Path != "" {
			audio.Path = spec.Path
			if !filepath.IsAbs(audio.Path) {
				audio.Path = filepath.Join(filepath.Dir(cfg.StoryboardPath), audio.Path)
			}
		}
		sb.ApplyDefaults()
		audio.Offset = spec.Offset.Frames(sb.Composition.FPS) / sb.Composition.FPS
		audio.Volume = spec.Volume
	}
	if audio.Path == "" {
		if latest, err := system.FindLatestAudio("input/audio"); err == nil {
			audio.Path = latest
			log.Info("using latest audio", "path", latest)
		}
	}
	if audio.Path == "" {
		return nil, nil
	}
	if !sync {
		return audio, nil
	}

	seconds, err := system.GetAudioDuration(ctx, audio.Path)
	if err != nil {
		log.Warn("cannot read audio duration, keeping storyboard timing", "error", err)
		return audio, nil
	}
	if err := sb.FitTo(seconds - audio.Offset); err != nil {
		return nil, err
	}
	log.Info("storyboard fitted to audio", "seconds", seconds)
	return audio, nil
}
