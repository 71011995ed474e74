// Package output persists composited animations and stills.
package output

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/gifrecipe/internal/source"
)

var ErrUnsupportedFormat = errors.New("output: unsupported format")

// Writer is the output collaborator of the pipeline.
type Writer interface {
	WriteAnimation(ctx context.Context, path string, anim *source.Animation) error
	WriteStill(ctx context.Context, path string, img image.Image) error
}

// FileWriter writes to the local filesystem. Files appear complete or not at
// all: data goes to a temp file in the target directory that is renamed once
// encoding succeeds.
type FileWriter struct{}

func (w *FileWriter) WriteAnimation(ctx context.Context, path string, anim *source.Animation) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".gif" {
		return fmt.Errorf("%w: animation as %q", ErrUnsupportedFormat, ext)
	}
	g, err := EncodeGIF(anim)
	if err != nil {
		return err
	}
	return writeAtomic(ctx, path, func(f io.Writer) error {
		return gif.EncodeAll(f, g)
	})
}

func (w *FileWriter) WriteStill(ctx context.Context, path string, img image.Image) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return writeAtomic(ctx, path, func(f io.Writer) error {
			return png.Encode(f, img)
		})
	case ".gif":
		p := toPaletted(img, nil)
		return writeAtomic(ctx, path, func(f io.Writer) error {
			return gif.Encode(f, p, nil)
		})
	default:
		return fmt.Errorf("%w: still as %q", ErrUnsupportedFormat, ext)
	}
}

// EncodeGIF converts anim into a gif.GIF. Each frame gets an exact palette
// when it has at most 256 colours; otherwise its own palette hint, then the
// global palette, then a web-safe fallback.
func EncodeGIF(anim *source.Animation) (*gif.GIF, error) {
	if anim.FrameCount() == 0 {
		return nil, errors.New("output: animation has no frames")
	}
	g := &gif.GIF{
		Image:           make([]*image.Paletted, len(anim.Frames)),
		Delay:           make([]int, len(anim.Frames)),
		Disposal:        make([]byte, len(anim.Frames)),
		LoopCount:       anim.LoopCount,
		BackgroundIndex: anim.BackgroundIndex,
	}
	width, height := 0, 0
	for _, f := range anim.Frames {
		width, height = max(width, f.Image.Bounds().Max.X), max(height, f.Image.Bounds().Max.Y)
	}
	screen := image.Rect(0, 0, width, height)
	for i, f := range anim.Frames {
		hint := f.Palette
		if len(hint) == 0 {
			hint = anim.Palette
		}
		g.Image[i] = toPaletted(padTo(f.Image, screen), hint)
		g.Delay[i] = f.Delay
		g.Disposal[i] = f.Disposal
	}
	g.Config = image.Config{Width: width, Height: height}
	if len(anim.Palette) > 0 && len(anim.Palette) <= 256 {
		g.Config.ColorModel = anim.Palette
	} else if g.BackgroundIndex != 0 {
		// A background index is meaningless without a global table.
		g.BackgroundIndex = 0
	}
	return g, nil
}

// padTo places img on a transparent canvas covering screen, so every frame
// spans the logical screen.
func padTo(img image.Image, screen image.Rectangle) image.Image {
	if img.Bounds() == screen {
		return img
	}
	dst := image.NewRGBA(screen)
	xdraw.Draw(dst, img.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return dst
}

func toPaletted(img image.Image, hint color.Palette) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	pal := exactPalette(img)
	if pal == nil {
		pal = hint
	}
	if len(pal) == 0 || len(pal) > 256 {
		pal = fallbackPalette()
	}
	b := img.Bounds()
	p := image.NewPaletted(b, pal)
	xdraw.Draw(p, b, img, b.Min, xdraw.Src)
	return p
}

// exactPalette lists the distinct colours of img, or nil past 256.
func exactPalette(img image.Image) color.Palette {
	seen := make(map[color.RGBA]struct{})
	var pal color.Palette
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c.A == 0 {
				c = color.RGBA{}
			}
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == 256 {
				return nil
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal
}

func fallbackPalette() color.Palette {
	pal := make(color.Palette, 0, len(palette.WebSafe)+1)
	pal = append(pal, color.RGBA{})
	return append(pal, palette.WebSafe...)
}

func writeAtomic(ctx context.Context, path string, encode func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
