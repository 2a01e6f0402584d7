// Package video streams rendered frames into an encoder.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/ivlev/promo2video/internal/logging"
)

// ErrFrameSize reports a frame whose size differs from the stream's.
var ErrFrameSize = errors.New("video: frame size mismatch")

// Audio is a soundtrack muxed under the video.
type Audio struct {
	Path string
	// Offset delays the audio, in seconds.
	Offset float64
	// Volume scales the audio; 0 leaves it untouched.
	Volume float64
}

// Params describe one output stream.
type Params struct {
	Width, Height int
	FPS           float64
	Encoder       string
	Quality       int
	// Preset applies to libx264 only. Empty means medium.
	Preset string
	Audio  *Audio
}

// DefaultQuality picks a quality value that suits encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// FrameWriter accepts frames in presentation order.
type FrameWriter interface {
	WriteFrame(img *image.RGBA) error
	// Close finishes the file. It must be called even after a failed
	// WriteFrame.
	Close() error
}

type VideoEncoder interface {
	Open(ctx context.Context, path string, p Params) (FrameWriter, error)
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg" on PATH.
	Binary string
	Log    *slog.Logger
}

func (e *FFmpegEncoder) Open(ctx context.Context, path string, p Params) (FrameWriter, error) {
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 {
		return nil, fmt.Errorf("video: invalid stream %dx%d@%g", p.Width, p.Height, p.FPS)
	}
	if p.Encoder == "" {
		p.Encoder = "libx264"
	}
	if p.Quality == 0 {
		p.Quality = DefaultQuality(p.Encoder)
	}
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	log := e.Log
	if log == nil {
		log = logging.NewNop()
	}

	args := buildFFmpegArgs(path, p)
	log.Debug("starting ffmpeg", "args", args)

	cmd := exec.CommandContext(ctx, bin, args...)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return &ffmpegWriter{
		rawWriter: rawWriter{w: stdin, width: p.Width, height: p.Height},
		stdin:     stdin,
		cmd:       cmd,
		out:       out,
	}, nil
}

// buildFFmpegArgs reads rawvideo from stdin at the stream's rate and
// encodes it with the chosen encoder.
func buildFFmpegArgs(path string, p Params) []string {
	rate := strconv.FormatFloat(p.FPS, 'f', -1, 64)
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", rate,
		"-i", "-",
	}

	a := p.Audio
	if a != nil && a.Path != "" {
		if a.Offset != 0 {
			args = append(args, "-itsoffset", strconv.FormatFloat(a.Offset, 'f', 3, 64))
		}
		args = append(args, "-i", a.Path, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
		if a.Volume > 0 && a.Volume != 1 {
			args = append(args, "-af", "volume="+strconv.FormatFloat(a.Volume, 'f', -1, 64))
		}
	}

	args = append(args,
		"-r", rate,
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	)
	args = append(args, qualityArgs(p.Encoder, p.Quality, p.Preset)...)
	return append(args, "-movflags", "+faststart", path)
}

// qualityArgs maps one quality number onto each encoder's own knob.
func qualityArgs(encoder string, quality int, preset string) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some versions; use a bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default:
		if preset == "" {
			preset = "medium"
		}
		return []string{"-crf", strconv.Itoa(quality), "-preset", preset}
	}
}

// rawWriter writes tightly packed RGBA rows.
type rawWriter struct {
	w             io.Writer
	width, height int
	frames        int
}

func (r *rawWriter) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != r.width || b.Dy() != r.height {
		return fmt.Errorf("%w: got %dx%d, stream is %dx%d", ErrFrameSize, b.Dx(), b.Dy(), r.width, r.height)
	}
	row := r.width * 4
	if img.Stride == row {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		if _, err := r.w.Write(img.Pix[start : start+row*r.height]); err != nil {
			return fmt.Errorf("write raw error: %w", err)
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			start := img.PixOffset(b.Min.X, y)
			if _, err := r.w.Write(img.Pix[start : start+row]); err != nil {
				return fmt.Errorf("write raw error: %w", err)
			}
		}
	}
	r.frames++
	return nil
}

type ffmpegWriter struct {
	rawWriter
	stdin io.WriteCloser
	cmd   *exec.Cmd
	out   *bytes.Buffer
}

func (f *ffmpegWriter) Close() error {
	f.stdin.Close()
	if err := f.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error after %d frames: %w, output: %s", f.frames, err, f.out.String())
	}
	return nil
}
