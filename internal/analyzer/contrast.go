package analyzer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector finds blocks of dense edges with a Sobel filter. Pages
// are analysed at WorkWidth pixels wide and blocks scaled back.
type ContrastDetector struct {
	// MinBlockArea is in analysis pixels².
	MinBlockArea  int
	EdgeThreshold float64
	WorkWidth     int
	// Dilate joins edges this many pixels apart into one block.
	Dilate int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  120,
		EdgeThreshold: 30,
		WorkWidth:     320,
		Dilate:        3,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	scale := 1.0
	if d.WorkWidth > 0 && b.Dx() > d.WorkWidth {
		scale = float64(d.WorkWidth) / float64(b.Dx())
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Rect, img, b, draw.Src, nil)

	edges := sobel(gray, d.EdgeThreshold)
	mask := dilate(edges, w, h, d.Dilate)

	var blocks []Block
	for _, c := range components(mask, w, h) {
		if c.rect.Dx()*c.rect.Dy() < d.MinBlockArea {
			continue
		}
		edgeCount := 0
		for y := c.rect.Min.Y; y < c.rect.Max.Y; y++ {
			for x := c.rect.Min.X; x < c.rect.Max.X; x++ {
				if edges[y*w+x] {
					edgeCount++
				}
			}
		}
		blocks = append(blocks, Block{
			Rect:   unscale(c.rect, scale, b.Min),
			Weight: float64(edgeCount) / float64(c.rect.Dx()*c.rect.Dy()),
		})
	}
	return blocks, nil
}

func unscale(r image.Rectangle, scale float64, origin image.Point) image.Rectangle {
	f := func(v int) int { return int(math.Round(float64(v) / scale)) }
	return image.Rect(f(r.Min.X), f(r.Min.Y), f(r.Max.X), f(r.Max.Y)).Add(origin)
}

// sobel marks pixels whose gradient magnitude exceeds threshold.
func sobel(g *image.Gray, threshold float64) []bool {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := make([]bool, w*h)
	at := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	t2 := threshold * threshold
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			out[y*w+x] = gx*gx+gy*gy > t2
		}
	}
	return out
}

// dilate grows the mask by r in both axes, one axis at a time.
func dilate(mask []bool, w, h, r int) []bool {
	if r <= 0 {
		return mask
	}
	tmp := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, x-r); k <= min(w-1, x+r); k++ {
				if mask[y*w+k] {
					tmp[y*w+x] = true
					break
				}
			}
		}
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, y-r); k <= min(h-1, y+r); k++ {
				if tmp[k*w+x] {
					out[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

type component struct {
	rect image.Rectangle
}

// components returns the bounding boxes of 4-connected regions.
func components(mask []bool, w, h int) []component {
	seen := make([]bool, len(mask))
	var out []component
	var stack []int
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		minX, minY, maxX, maxY := w, h, -1, -1
		stack = append(stack[:0], start)
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= len(mask) || seen[n] || !mask[n] {
					continue
				}
				if (n == i-1 && x == 0) || (n == i+1 && x == w-1) {
					continue
				}
				seen[n] = true
				stack = append(stack, n)
			}
		}
		out = append(out, component{rect: image.Rect(minX, minY, maxX+1, maxY+1)})
	}
	return out
}
