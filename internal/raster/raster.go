// Package raster holds the bitmap primitives the compositor is built on:
// crop, nearest-neighbour scale and blit.
package raster

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the w×h region of img at (x, y), relative to the image origin.
// A rectangle without positive width and height returns img unchanged. The
// result is always w×h; whatever part of the rectangle lies outside img is
// transparent.
func Crop(img image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	b := img.Bounds()
	r := image.Rect(x, y, x+w, y+h).Add(b.Min)
	if si, ok := img.(subImager); ok && r.In(b) {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if in := r.Intersect(b); !in.Empty() {
		xdraw.Draw(dst, in.Sub(r.Min), img, in.Min, xdraw.Src)
	}
	return dst
}

// ScaledSize returns the size of a w×h image after scaling by factor.
func ScaledSize(w, h int, factor float64) (int, int) {
	return int(math.Round(float64(w) * factor)), int(math.Round(float64(h) * factor))
}

// ScaleInto resamples src into dst with nearest-neighbour, covering all of
// dst's bounds.
func ScaleInto(dst *image.RGBA, src image.Image) {
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// NewCanvas allocates a transparent w×h canvas.
func NewCanvas(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Blit paints src over dst with its top-left corner at (x, y). Transparent
// source pixels leave dst untouched; anything outside dst is clipped.
func Blit(dst *image.RGBA, src image.Image, x, y int) {
	sb := src.Bounds()
	r := image.Rect(x, y, x+sb.Dx(), y+sb.Dy())
	xdraw.Draw(dst, r, src, sb.Min, xdraw.Over)
}
