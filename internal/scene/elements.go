package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/opentype"

	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/textfx"
)

// Sprite is a prebuilt picture placed with its centre at an offset from
// the frame centre. Picture, Mockup, QRCode and Card all end up as one.
type Sprite struct {
	Image            *image.RGBA
	OffsetX, OffsetY float64
}

func (s *Sprite) origin(w, h int) (float64, float64) {
	return float64(w)/2 + s.OffsetX - float64(s.Image.Rect.Dx())/2,
		float64(h)/2 + s.OffsetY - float64(s.Image.Rect.Dy())/2
}

func (s *Sprite) Draw(dst *image.RGBA, _ int) {
	x, y := s.origin(dst.Rect.Dx(), dst.Rect.Dy())
	pt := image.Pt(int(math.Round(x)), int(math.Round(y))).Add(dst.Rect.Min)
	renderer.DrawOver(dst, s.Image, pt, 1)
}

func (s *Sprite) Anchor(w, h int) (float64, float64) {
	return float64(w)/2 + s.OffsetX, float64(h)/2 + s.OffsetY
}

// Size is the sprite's pixel size.
func (s *Sprite) Size() (int, int) { return s.Image.Rect.Dx(), s.Image.Rect.Dy() }

// PictureConfig places an image asset.
type PictureConfig struct {
	Image         image.Image
	Width, Height int
	Fit           string
	Radius        float64
}

// NewPicture resamples the image once into a w×h sprite with rounded
// corners.
func NewPicture(cfg PictureConfig, offsetX, offsetY float64) (*Sprite, error) {
	if cfg.Image == nil {
		return nil, errors.New("picture has no image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("picture size %dx%d", cfg.Width, cfg.Height)
	}
	fit := cfg.Fit
	if fit == "" {
		fit = renderer.FitCover
	}
	switch fit {
	case renderer.FitCover, renderer.FitContain, renderer.FitFill:
	default:
		return nil, fmt.Errorf("unknown fit %q", cfg.Fit)
	}
	img := renderer.ScaleInto(cfg.Image, cfg.Width, cfg.Height, fit)
	if cfg.Radius > 0 {
		renderer.MaskAlpha(img, renderer.RoundedRect(cfg.Width, cfg.Height, cfg.Radius))
	}
	return &Sprite{Image: img, OffsetX: offsetX, OffsetY: offsetY}, nil
}

var (
	chromeBar  = color.NRGBA{0x27, 0x27, 0x2A, 0xff}
	chromeURL  = color.NRGBA{0x3F, 0x3F, 0x46, 0xff}
	chromeDots = [3]color.NRGBA{{0xFF, 0x5F, 0x57, 0xff}, {0xFE, 0xBC, 0x2E, 0xff}, {0x28, 0xC8, 0x40, 0xff}}
)

const chromeHeight = 36

// NewMockup wraps a screenshot in a browser window of the given width.
// The window height follows the screenshot's aspect ratio.
func NewMockup(screenshot image.Image, width int, offsetX, offsetY float64) (*Sprite, error) {
	if screenshot == nil || screenshot.Bounds().Empty() {
		return nil, errors.New("mockup has no screenshot")
	}
	if width <= 2*chromeHeight {
		return nil, fmt.Errorf("mockup width %d is too small", width)
	}
	sb := screenshot.Bounds()
	contentH := int(math.Round(float64(width) * float64(sb.Dy()) / float64(sb.Dx())))
	h := contentH + chromeHeight

	win := image.NewRGBA(image.Rect(0, 0, width, h))
	renderer.Fill(win, chromeBar)
	for i, c := range chromeDots {
		cx := 20 + float64(i)*20
		renderer.FillMask(win, renderer.Circle(width, chromeHeight, cx, chromeHeight/2, 6), image.Point{}, c)
	}
	url := renderer.RoundedRect(width/2, 22, 11)
	renderer.FillMask(win, url, image.Pt(width/4, (chromeHeight-22)/2), chromeURL)

	content := image.Rect(0, chromeHeight, width, h)
	draw.CatmullRom.Scale(win, content, screenshot, sb, draw.Src, nil)
	renderer.MaskAlpha(win, renderer.RoundedRect(width, h, 12))
	return &Sprite{Image: win, OffsetX: offsetX, OffsetY: offsetY}, nil
}

// QRConfig is a QR code drawn as a square sprite.
type QRConfig struct {
	Content    string
	Size       int
	Foreground color.Color
	Background color.Color
	// Level is one of low, medium, high, highest; default medium.
	Level string
}

var qrLevels = map[string]qrcode.RecoveryLevel{
	"":        qrcode.Medium,
	"low":     qrcode.Low,
	"medium":  qrcode.Medium,
	"high":    qrcode.High,
	"highest": qrcode.Highest,
}

func NewQRCode(cfg QRConfig, offsetX, offsetY float64) (*Sprite, error) {
	level, ok := qrLevels[cfg.Level]
	if !ok {
		return nil, fmt.Errorf("unknown QR recovery level %q", cfg.Level)
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("QR size must be positive, got %d", cfg.Size)
	}
	q, err := qrcode.New(cfg.Content, level)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	if cfg.Foreground != nil {
		q.ForegroundColor = cfg.Foreground
	}
	if cfg.Background != nil {
		q.BackgroundColor = cfg.Background
	}
	src := q.Image(cfg.Size)
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size))
	draw.NearestNeighbor.Scale(img, img.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Sprite{Image: img, OffsetX: offsetX, OffsetY: offsetY}, nil
}

// Card layouts.
const (
	CardRow    = "row"
	CardColumn = "column"
	CardCenter = "center"
)

// CardConfig is a rounded panel with an optional icon, a title and an
// optional body line.
type CardConfig struct {
	Width, Height int
	Radius        float64
	Fill          color.Color
	Border        color.Color
	BorderWidth   int
	Layout        string
	Padding       int

	Icon     image.Image
	IconSize int

	Title     []textfx.Span
	TitleFont *opentype.Font
	TitleSize float64
	Body      []textfx.Span
	BodyFont  *opentype.Font
	BodySize  float64
	TextColor color.Color
	BodyColor color.Color
}

// NewCard renders the card once.
func NewCard(cfg CardConfig, offsetX, offsetY float64) (*Sprite, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("card size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TitleFont == nil || cfg.TitleSize <= 0 {
		return nil, errors.New("card needs a title font and size")
	}
	if len(cfg.Body) > 0 && (cfg.BodyFont == nil || cfg.BodySize <= 0) {
		return nil, errors.New("card body needs a font and size")
	}
	if 2*cfg.BorderWidth >= min(cfg.Width, cfg.Height) {
		return nil, fmt.Errorf("card border %d does not fit %dx%d", cfg.BorderWidth, cfg.Width, cfg.Height)
	}
	if cfg.Layout == "" {
		cfg.Layout = CardColumn
	}
	if cfg.Padding == 0 {
		cfg.Padding = 24
	}
	if cfg.IconSize == 0 {
		cfg.IconSize = 48
	}
	if cfg.TextColor == nil {
		cfg.TextColor = color.White
	}
	if cfg.BodyColor == nil {
		cfg.BodyColor = cfg.TextColor
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	outer := renderer.RoundedRect(cfg.Width, cfg.Height, cfg.Radius)
	if cfg.Border != nil && cfg.BorderWidth > 0 {
		bw := cfg.BorderWidth
		inner := renderer.RoundedRect(cfg.Width-2*bw, cfg.Height-2*bw, math.Max(0, cfg.Radius-float64(bw)))
		if cfg.Fill != nil {
			renderer.FillMask(img, inner, image.Pt(bw, bw), cfg.Fill)
		}
		renderer.FillMask(img, ring(outer, inner, bw), image.Point{}, cfg.Border)
	} else if cfg.Fill != nil {
		renderer.FillMask(img, outer, image.Point{}, cfg.Fill)
	}

	title, err := textfx.NewFace(cfg.TitleFont, cfg.TitleSize)
	if err != nil {
		return nil, err
	}
	defer title.Close()
	titleW := textfx.Measure(title, cfg.Title)
	titleAscent := float64(title.Metrics().Ascent.Ceil())
	titleH := float64(title.Metrics().Height.Ceil())

	pad := float64(cfg.Padding)
	icon := float64(cfg.IconSize)
	switch cfg.Layout {
	case CardRow:
		x := pad
		if cfg.Icon != nil {
			drawIcon(img, cfg.Icon, int(pad), int((float64(cfg.Height)-icon)/2), cfg.IconSize)
			x += icon + pad/2
		}
		y := (float64(cfg.Height)-titleH)/2 + titleAscent
		textfx.DrawSpans(img, title, cfg.Title, x, y, cfg.TextColor)
	case CardColumn:
		y := pad
		if cfg.Icon != nil {
			drawIcon(img, cfg.Icon, int(pad), int(pad), cfg.IconSize)
			y += icon + pad/2
		}
		textfx.DrawSpans(img, title, cfg.Title, pad, y+titleAscent, cfg.TextColor)
		y += titleH
		if len(cfg.Body) > 0 {
			body, err := textfx.NewFace(cfg.BodyFont, cfg.BodySize)
			if err != nil {
				return nil, err
			}
			textfx.DrawSpans(img, body, cfg.Body, pad, y+pad/4+float64(body.Metrics().Ascent.Ceil()), cfg.BodyColor)
			body.Close()
		}
	case CardCenter:
		x := (float64(cfg.Width) - titleW) / 2
		y := (float64(cfg.Height)-titleH)/2 + titleAscent
		textfx.DrawSpans(img, title, cfg.Title, x, y, cfg.TextColor)
	default:
		return nil, fmt.Errorf("unknown card layout %q", cfg.Layout)
	}
	return &Sprite{Image: img, OffsetX: offsetX, OffsetY: offsetY}, nil
}

// ring is outer minus inner, with inner inset by bw on every side.
func ring(outer, inner *image.Alpha, bw int) *image.Alpha {
	out := image.NewAlpha(outer.Rect)
	copy(out.Pix, outer.Pix)
	for y := 0; y < inner.Rect.Dy(); y++ {
		for x := 0; x < inner.Rect.Dx(); x++ {
			i := out.PixOffset(x+bw, y+bw)
			out.Pix[i] = uint8(max(0, int(out.Pix[i])-int(inner.Pix[inner.PixOffset(x, y)])))
		}
	}
	return out
}

func drawIcon(dst *image.RGBA, icon image.Image, x, y, size int) {
	scaled := renderer.ScaleInto(icon, size, size, renderer.FitContain)
	draw.Draw(dst, image.Rect(x, y, x+size, y+size), scaled, image.Point{}, draw.Over)
}

// NewText is a static block of coloured text, word-wrapped and centred at
// an offset from the frame centre.
func NewText(f *opentype.Font, size float64, spans []textfx.Span, c color.Color, offsetX, offsetY float64) (*textfx.TextLayer, error) {
	chunks, err := textfx.SplitSpans(spans, textfx.Words)
	if err != nil {
		return nil, err
	}
	return textfx.NewTextLayer(textfx.TextConfig{
		Font:      f,
		Size:      size,
		Color:     c,
		Chunks:    chunks,
		Separator: textfx.Words.Separator(),
		OffsetX:   offsetX,
		OffsetY:   offsetY,
	})
}
