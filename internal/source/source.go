// Package source reads the animations recipes are applied to.
package source

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

var ErrUnsupported = errors.New("source: unsupported input")

// Frame is one frame of an animation. Delay (1/100 s), Disposal and Palette
// are carried through untouched when the frame is picked as a main image.
type Frame struct {
	Image    image.Image
	Delay    int
	Disposal byte
	Palette  color.Palette
}

// Animation is an ordered, read-only sequence of frames plus global settings.
type Animation struct {
	Frames          []Frame
	LoopCount       int
	BackgroundIndex byte
	Palette         color.Palette
}

// FrameCount returns len(a.Frames).
func (a *Animation) FrameCount() int {
	return len(a.Frames)
}

// Source yields frames by index.
type Source interface {
	FrameCount() int
	Frame(index int) (Frame, error)
	Close() error
}

// Options tune how non-animated inputs are turned into frames.
type Options struct {
	DPI   int // PDF rasterisation
	Delay int // delay for inputs without timing, in 1/100 s
}

// Open picks a Source implementation by path.
func Open(path string, opts Options) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return NewGIFSource(path)
	case ".pdf":
		return NewFitzPDFSource(path, opts)
	case ".png", ".jpg", ".jpeg", "":
		return NewImageSource(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// ReadAll materialises every frame of src.
func ReadAll(src Source) (*Animation, error) {
	n := src.FrameCount()
	if n == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrUnsupported)
	}
	anim := &Animation{Frames: make([]Frame, n)}
	for i := 0; i < n; i++ {
		f, err := src.Frame(i)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		anim.Frames[i] = f
	}
	if g, ok := src.(*GIFSource); ok {
		anim.LoopCount = g.gif.LoopCount
		anim.BackgroundIndex = g.gif.BackgroundIndex
		if p, ok := g.gif.Config.ColorModel.(color.Palette); ok {
			anim.Palette = p
		}
	}
	return anim, nil
}

// FitzPDFSource exposes PDF pages as frames.
type FitzPDFSource struct {
	doc  *fitz.Document
	opts Options
}

func NewFitzPDFSource(path string, opts Options) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if opts.DPI <= 0 {
		opts.DPI = 72
	}
	return &FitzPDFSource{doc: doc, opts: opts}, nil
}

func (f *FitzPDFSource) FrameCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) Frame(index int) (Frame, error) {
	img, err := f.doc.ImageDPI(index, float64(f.opts.DPI))
	if err != nil {
		return Frame{}, err
	}
	return Frame{Image: img, Delay: f.opts.Delay}, nil
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
