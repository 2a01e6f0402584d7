package director

import (
	"fmt"
	"math"

	"github.com/ivlev/promo2video/internal/analyzer"
	"github.com/ivlev/promo2video/internal/source"
)

// ScaffoldOptions tunes Scaffold. Zero values take the defaults noted on
// each field.
type ScaffoldOptions struct {
	Width, Height int     // 1280x720
	FPS           float64 // 30
	PageDuration  Time    // 3s
	Transition    string  // fade
	Overlap       Time    // 0.5s
	// Zoom is the slow push-in reached at the end of each page; 1.08.
	Zoom float64
	// Title, when set, streams in over the first page.
	Title string
	// Detector, when set, aims each push-in at the page's content instead
	// of its centre.
	Detector analyzer.Detector
}

func (o *ScaffoldOptions) defaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.PageDuration.IsZero() {
		o.PageDuration = Seconds(3)
	}
	if o.Transition == "" {
		o.Transition = "fade"
	}
	if o.Overlap.IsZero() {
		o.Overlap = Seconds(0.5)
	}
	if o.Zoom == 0 {
		o.Zoom = 1.08
	}
}

// viewportPadding is the share of the canvas a page may cover.
const viewportPadding = 0.9

// analysisDPI is enough resolution to find blocks of content.
const analysisDPI = 48

// Scaffold drafts a slideshow storyboard from a paged source: one scene per
// page, the page fitted inside the canvas under a slow camera push-in, and
// the same transition between all pages. ref is how the storyboard will
// refer to the source, such as "deck.pdf" or "shots".
func Scaffold(src source.Source, ref string, opts ScaffoldOptions) (*Storyboard, error) {
	opts.defaults()
	pages := src.PageCount()
	if pages == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", ErrStoryboard, ref)
	}

	sb := &Storyboard{
		Version: "1",
		Composition: CompositionSpec{
			Width:  opts.Width,
			Height: opts.Height,
			FPS:    opts.FPS,
		},
		Palette: map[string]string{
			"background": "#09090B",
			"text":       "#FAFAFA",
			"primary":    "#F56B3D",
		},
		Fonts:  map[string]string{"headline": "go:bold"},
		Images: make(map[string]string, pages),
	}

	duration := opts.PageDuration.Frames(opts.FPS)
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	for i := 0; i < pages; i++ {
		pw, ph, err := src.GetPageDimensions(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		id := fmt.Sprintf("page-%d", i+1)
		sb.Images[id] = fmt.Sprintf("%s#%d", ref, i+1)

		w, h := fitSize(pw, ph, opts.Width, opts.Height)
		fx, fy, err := focusPoint(src, i, opts, w, h)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		picture, err := NewLayer(PictureSpec{Element: Element{Type: "picture"}, Image: id, Width: w, Height: h, Fit: "contain", Radius: 12})
		if err != nil {
			return nil, err
		}
		camera, err := NewLayer(CameraSpec{
			Element: Element{Type: "camera"},
			Keyframes: []CameraKeyframe{
				{At: Frames(0), X: cx, Y: cy, Zoom: 1},
				{At: Frames(duration), X: fx, Y: fy, Zoom: opts.Zoom},
			},
			Layers: []LayerSpec{picture},
		})
		if err != nil {
			return nil, err
		}

		s := SceneSpec{ID: id, Duration: opts.PageDuration, Background: "$background", Layers: []LayerSpec{camera}}
		if i == 0 && opts.Title != "" {
			title, err := NewLayer(TextSpec{
				Element: Element{Type: "text"},
				Text:    opts.Title,
				Font:    "headline",
				Size:    64,
				Color:   "$text",
				Reveal: &RevealSpec{
					Style:    "stream",
					Stagger:  Seconds(0.08),
					Duration: Seconds(0.5),
					Easing:   "outBack(1.7)",
					From:     &FromSpec{Y: 40},
				},
			})
			if err != nil {
				return nil, err
			}
			s.Layers = append(s.Layers, title)
		}
		if i < pages-1 {
			s.Transition = &TransitionSpec{Presentation: opts.Transition, Timing: DefaultTiming, Duration: opts.Overlap}
		}
		sb.Scenes = append(sb.Scenes, s)
	}
	return sb, nil
}

// focusPoint is where the push-in on page i ends, in canvas pixels. The
// pan is limited so the zoomed page never slides further than the zoom
// itself uncovers.
func focusPoint(src source.Source, i int, opts ScaffoldOptions, w, h int) (float64, float64, error) {
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	if opts.Detector == nil {
		return cx, cy, nil
	}
	img, err := src.RenderPage(i, analysisDPI)
	if err != nil {
		return 0, 0, err
	}
	blocks, err := opts.Detector.Detect(img)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	if b.Empty() {
		return cx, cy, nil
	}
	px, py := analyzer.Focus(blocks, b)
	fx := cx + ((px-float64(b.Min.X))/float64(b.Dx())-0.5)*float64(w)
	fy := cy + ((py-float64(b.Min.Y))/float64(b.Dy())-0.5)*float64(h)

	slack := math.Max(0, (1-1/opts.Zoom)/2)
	maxX, maxY := float64(opts.Width)*slack, float64(opts.Height)*slack
	return cx + math.Max(-maxX, math.Min(maxX, fx-cx)), cy + math.Max(-maxY, math.Min(maxY, fy-cy)), nil
}

// fitSize scales a page to cover at most viewportPadding of the canvas,
// keeping its aspect ratio.
func fitSize(pw, ph float64, vw, vh int) (int, int) {
	if pw <= 0 || ph <= 0 {
		return int(float64(vw) * viewportPadding), int(float64(vh) * viewportPadding)
	}
	scale := math.Min(float64(vw)*viewportPadding/pw, float64(vh)*viewportPadding/ph)
	return max(1, int(math.Round(pw*scale))), max(1, int(math.Round(ph*scale)))
}
