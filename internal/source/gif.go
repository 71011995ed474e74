package source

import (
	"fmt"
	"image"
	"image/gif"
	"os"

	xdraw "golang.org/x/image/draw"
)

// GIFSource decodes a GIF and coalesces its frames onto the logical screen,
// so every frame is a complete picture regardless of how the file was
// optimised.
type GIFSource struct {
	gif    *gif.GIF
	frames []*image.RGBA
}

func NewGIFSource(path string) (*GIFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return newGIFSource(g), nil
}

func newGIFSource(g *gif.GIF) *GIFSource {
	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	for _, img := range g.Image {
		screen = screen.Union(img.Bounds())
	}

	canvas := image.NewRGBA(screen)
	frames := make([]*image.RGBA, len(g.Image))
	for i, img := range g.Image {
		var restore *image.RGBA
		disposal := disposalAt(g, i)
		if disposal == gif.DisposalPrevious {
			restore = clone(canvas)
		}

		xdraw.Draw(canvas, img.Bounds(), img, img.Bounds().Min, xdraw.Over)
		frames[i] = clone(canvas)

		switch disposal {
		case gif.DisposalBackground:
			xdraw.Draw(canvas, img.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}
	return &GIFSource{gif: g, frames: frames}
}

func (s *GIFSource) FrameCount() int {
	return len(s.frames)
}

func (s *GIFSource) Frame(index int) (Frame, error) {
	if index < 0 || index >= len(s.frames) {
		return Frame{}, fmt.Errorf("gif frame %d out of range [0,%d)", index, len(s.frames))
	}
	f := Frame{Image: s.frames[index], Palette: s.gif.Image[index].Palette}
	if index < len(s.gif.Delay) {
		f.Delay = s.gif.Delay[index]
	}
	f.Disposal = disposalAt(s.gif, index)
	return f, nil
}

func (s *GIFSource) Close() error {
	return nil
}

func disposalAt(g *gif.GIF, i int) byte {
	if i < len(g.Disposal) {
		return g.Disposal[i]
	}
	return 0
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}
