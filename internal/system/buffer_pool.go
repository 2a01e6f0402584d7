package system

import (
	"image"
	"sync"
)

// ImagePool recycles *image.RGBA frames so that rendering hundreds of
// same-sized frames does not churn the GC. There is one pool per frame
// size.
type ImagePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

// NewImagePool returns an empty pool.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage returns a cleared (transparent) frame from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns a frame to the shared pool. The frame must not be used
// afterwards.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// Get returns a fully transparent image with bounds rect.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put hands img back. Images of a size never requested through Get, or
// sub-images sharing a parent's buffer, are left to the GC.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || len(img.Pix) != 4*img.Rect.Dx()*img.Rect.Dy() {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
