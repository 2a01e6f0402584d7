// Package analyzer finds where the content sits on a page so the camera
// can aim at it.
package analyzer

import (
	"fmt"
	"image"
)

// Block is a region of interest in page pixels.
type Block struct {
	Rect image.Rectangle
	// Weight is the share of edge pixels inside Rect, 0..1.
	Weight float64
}

func (b Block) Area() int { return b.Rect.Dx() * b.Rect.Dy() }

// Detector is an image analysis strategy.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector creates a detector by name. "none" returns nil: no
// analysis, every page is framed on its centre.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
