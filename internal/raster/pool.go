package raster

import (
	"image"
	"sync"
)

// Pool recycles *image.RGBA scratch buffers by size, to keep per-element
// scaling from churning the GC on long animations.
type Pool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{pools: make(map[image.Point]*sync.Pool)}
}

// Get returns a zero-origin w×h buffer. Its contents are undefined; callers
// must overwrite every pixel (ScaleInto does).
func (p *Pool) Get(w, h int) *image.RGBA {
	key := image.Point{X: w, Y: h}
	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[key]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(image.Rect(0, 0, key.X, key.Y))
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

// Put hands img back for reuse.
func (p *Pool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.Size()
	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}
