package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		quality []string
	}{
		{"libx264", Params{Encoder: "libx264", Quality: 23}, []string{"-crf", "23", "-preset", "medium"}},
		{"libx264 preset", Params{Encoder: "libx264", Quality: 18, Preset: "slow"}, []string{"-crf", "18", "-preset", "slow"}},
		{"videotoolbox", Params{Encoder: "h264_videotoolbox", Quality: 75}, []string{"-b:v", "7500k"}},
		{"nvenc", Params{Encoder: "h264_nvenc", Quality: 28}, []string{"-cq", "28"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			p.Width, p.Height, p.FPS = 1280, 720, 30
			args := buildFFmpegArgs("out.mp4", p)

			assert.Equal(t, []string{"-y", "-f", "rawvideo", "-pixel_format", "rgba", "-video_size", "1280x720", "-framerate", "30", "-i", "-"}, args[:11])
			assert.Subset(t, args, tt.quality)
			assert.Equal(t, "out.mp4", args[len(args)-1])
			assert.NotContains(t, args, "-shortest")
		})
	}
}

func TestBuildFFmpegArgsAudio(t *testing.T) {
	p := Params{Width: 720, Height: 1280, FPS: 29.97, Encoder: "libx264", Quality: 23,
		Audio: &Audio{Path: "track.mp3", Offset: 0.5, Volume: 0.8}}
	args := buildFFmpegArgs("out.mp4", p)

	assert.Contains(t, args, "29.97")
	i := indexOf(args, "-itsoffset")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, []string{"-itsoffset", "0.500", "-i", "track.mp3"}, args[i:i+4])
	assert.Contains(t, args, "-shortest")
	assert.Contains(t, args, "volume=0.8")

	p.Audio = &Audio{Path: "track.mp3", Volume: 1}
	args = buildFFmpegArgs("out.mp4", p)
	assert.NotContains(t, args, "-itsoffset")
	assert.NotContains(t, args, "-af")
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestDefaultQuality(t *testing.T) {
	assert.Equal(t, 75, DefaultQuality("h264_videotoolbox"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestRawWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &rawWriter{w: &buf, width: 2, height: 2}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, color.RGBA{1, 2, 3, 255})
	require.NoError(t, w.WriteFrame(img))
	assert.Equal(t, 16, buf.Len())
	assert.Equal(t, []byte{1, 2, 3, 255}, buf.Bytes()[12:16])

	// A sub-image has a wider stride and is written row by row.
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	big.SetRGBA(2, 2, color.RGBA{9, 9, 9, 255})
	buf.Reset()
	require.NoError(t, w.WriteFrame(big.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)))
	assert.Equal(t, 16, buf.Len())
	assert.Equal(t, []byte{9, 9, 9, 255}, buf.Bytes()[12:16])
	assert.Equal(t, 2, w.frames)

	err := w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	assert.ErrorIs(t, err, ErrFrameSize)
}

func TestOpenRejectsBadParams(t *testing.T) {
	e := &FFmpegEncoder{}
	_, err := e.Open(context.Background(), "out.mp4", Params{Width: 0, Height: 720, FPS: 30})
	assert.Error(t, err)

	e.Binary = filepath.Join(t.TempDir(), "no-ffmpeg")
	_, err = e.Open(context.Background(), "out.mp4", Params{Width: 2, Height: 2, FPS: 30})
	assert.Error(t, err)
}

func TestWriteStill(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}

	jpg := filepath.Join(dir, "nested", "thumbnail.jpg")
	require.NoError(t, WriteStill(jpg, img))
	f, err := os.Open(jpg)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	require.NoError(t, WriteStill(filepath.Join(dir, "frame.PNG"), img))
	assert.FileExists(t, filepath.Join(dir, "frame.PNG"))

	bad := filepath.Join(dir, "frame.gif")
	assert.Error(t, WriteStill(bad, img))
	assert.NoFileExists(t, bad)
}
