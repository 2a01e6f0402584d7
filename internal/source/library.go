package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/errgroup"
)

// ErrAssetNotFound reports an id or reference that resolves to nothing.
var ErrAssetNotFound = errors.New("source: asset not found")

// DefaultDPI rasterises PDF pages when the manifest leaves it unset.
const DefaultDPI = 150

var builtinFonts = map[string][]byte{
	"go:regular": goregular.TTF,
	"go:bold":    gobold.TTF,
	"go:medium":  gomedium.TTF,
	"go:italic":  goitalic.TTF,
	"go:mono":    gomono.TTF,
}

// BuiltinFonts lists the font references that need no file.
func BuiltinFonts() []string {
	out := make([]string, 0, len(builtinFonts))
	for k := range builtinFonts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Manifest maps asset ids to references. Font references are "go:<name>"
// or a TTF/OTF path. Image references are a PNG/JPEG path, "doc.pdf#N"
// for page N of a document, or "folder#N" for the N-th image of a folder.
// Relative paths resolve against BaseDir.
type Manifest struct {
	BaseDir string
	Fonts   map[string]string
	Images  map[string]string
	DPI     int
}

// Library holds decoded assets. It is read-only once loaded and safe for
// concurrent use.
type Library struct {
	fonts  map[string]*opentype.Font
	images map[string]*image.RGBA
}

// Load resolves every asset in the manifest up front so rendering never
// touches the filesystem.
func Load(ctx context.Context, m Manifest, log *slog.Logger) (*Library, error) {
	lib := &Library{
		fonts:  make(map[string]*opentype.Font, len(m.Fonts)),
		images: make(map[string]*image.RGBA, len(m.Images)),
	}
	for id, ref := range m.Fonts {
		f, err := LoadFont(ref, m.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("font %q: %w", id, err)
		}
		lib.fonts[id] = f
	}

	dpi := m.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for id, ref := range m.Images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := LoadImage(ref, m.BaseDir, dpi)
			if err != nil {
				return fmt.Errorf("image %q: %w", id, err)
			}
			mu.Lock()
			lib.images[id] = img
			mu.Unlock()
			log.Debug("asset loaded", "id", id, "ref", ref, "size", img.Rect.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lib, nil
}

// Font returns a loaded font. An unknown id that names a built-in font
// resolves to it, so storyboards can use "go:bold" directly.
func (l *Library) Font(id string) (*opentype.Font, error) {
	if f, ok := l.fonts[id]; ok {
		return f, nil
	}
	if _, ok := builtinFonts[id]; ok {
		return LoadFont(id, "")
	}
	return nil, fmt.Errorf("%w: font %q", ErrAssetNotFound, id)
}

func (l *Library) Image(id string) (*image.RGBA, error) {
	if img, ok := l.images[id]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("%w: image %q", ErrAssetNotFound, id)
}

// LoadFont parses a built-in Go font or a font file.
func LoadFont(ref, baseDir string) (*opentype.Font, error) {
	data, ok := builtinFonts[ref]
	if !ok {
		if strings.HasPrefix(ref, "go:") {
			return nil, fmt.Errorf("%w: built-in font %q", ErrAssetNotFound, ref)
		}
		var err error
		data, err = os.ReadFile(resolve(baseDir, ref))
		if err != nil {
			return nil, notFound(err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", ref, err)
	}
	return f, nil
}

// LoadImage decodes an image reference into an RGBA frame with its origin
// at (0, 0).
func LoadImage(ref, baseDir string, dpi int) (*image.RGBA, error) {
	path, page, err := splitPage(ref)
	if err != nil {
		return nil, err
	}
	path = resolve(baseDir, path)

	var src Source
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		src, err = NewFitzPDFSource(path)
	} else {
		src, err = NewImageSource(path)
	}
	if err != nil {
		return nil, notFound(err)
	}
	defer src.Close()

	img, err := src.RenderPage(page, dpi)
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// splitPage cuts "path#N" into the path and a zero-based page index.
func splitPage(ref string) (string, int, error) {
	i := strings.LastIndexByte(ref, '#')
	if i < 0 {
		return ref, 0, nil
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("bad page in %q: pages count from 1", ref)
	}
	return ref[:i], n - 1, nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrAssetNotFound, err)
	}
	return err
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}
