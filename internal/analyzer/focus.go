package analyzer

import (
	"image"
	"sort"
)

// focusBlocks is how many of the largest blocks pull on the focus point.
const focusBlocks = 3

// Focus is the point the camera should aim at: the centre of the largest
// blocks weighted by area and edge density, or the page centre when
// there are none.
func Focus(blocks []Block, page image.Rectangle) (float64, float64) {
	cx := float64(page.Min.X+page.Max.X) / 2
	cy := float64(page.Min.Y+page.Max.Y) / 2

	// Blocks covering most of the page are the page itself.
	pageArea := page.Dx() * page.Dy()
	var useful []Block
	for _, b := range blocks {
		if b.Area() > 0 && b.Area()*10 < pageArea*9 {
			useful = append(useful, b)
		}
	}
	if len(useful) == 0 {
		return cx, cy
	}
	sort.SliceStable(useful, func(i, j int) bool { return useful[i].Area() > useful[j].Area() })
	if len(useful) > focusBlocks {
		useful = useful[:focusBlocks]
	}

	var sx, sy, sw float64
	for _, b := range useful {
		wgt := float64(b.Area()) * (0.5 + b.Weight)
		sx += wgt * float64(b.Rect.Min.X+b.Rect.Max.X) / 2
		sy += wgt * float64(b.Rect.Min.Y+b.Rect.Max.Y) / 2
		sw += wgt
	}
	return sx / sw, sy / sw
}
