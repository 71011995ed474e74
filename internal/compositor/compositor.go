// Package compositor renders normalized recipes against a source animation.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/charmbracelet/log"

	"github.com/ivlev/gifrecipe/internal/raster"
	"github.com/ivlev/gifrecipe/internal/recipe"
	"github.com/ivlev/gifrecipe/internal/source"
)

var ErrEmptyCanvas = errors.New("compositor: composited frame has no area")

// Compositor crops, scales and stacks source frames as a plan describes.
// It holds no per-call state, so one Compositor serves concurrent jobs.
type Compositor struct {
	logger *log.Logger
	pool   *raster.Pool
}

// New returns a Compositor logging to logger; nil means log.Default().
func New(logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.Default()
	}
	return &Compositor{logger: logger, pool: raster.NewPool()}
}

// Composite applies r to anim and returns a new animation with one frame per
// plan entry. Each frame keeps the timing and palette of its main source
// frame; overlay metadata is dropped.
func (c *Compositor) Composite(anim *source.Animation, r *recipe.Recipe) (*source.Animation, error) {
	plan, err := recipe.Normalize(r, anim.FrameCount())
	if err != nil {
		return nil, err
	}
	return c.Render(anim, plan)
}

// Render paints an already normalized plan.
func (c *Compositor) Render(anim *source.Animation, plan recipe.Plan) (*source.Animation, error) {
	out := &source.Animation{
		Frames:          make([]source.Frame, len(plan.Frames)),
		LoopCount:       anim.LoopCount,
		BackgroundIndex: anim.BackgroundIndex,
		Palette:         anim.Palette,
	}
	for i, pf := range plan.Frames {
		layers, err := c.layers(anim, pf.Images)
		if err != nil {
			return nil, fmt.Errorf("output frame %d: %w", i, err)
		}
		w, h := boundingBox(layers)
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("output frame %d: %w", i, ErrEmptyCanvas)
		}
		canvas := raster.NewCanvas(w, h)
		c.paint(canvas, layers)

		main := anim.Frames[pf.Main().Frame]
		out.Frames[i] = source.Frame{
			Image:    canvas,
			Delay:    main.Delay,
			Disposal: main.Disposal,
			Palette:  main.Palette,
		}
		c.logger.Debug("composited frame", "index", i, "source", pf.Main().Frame, "layers", len(layers), "size", fmt.Sprintf("%dx%d", w, h))
	}
	return out, nil
}

// RenderStill resolves r for a single image. The canvas is the root element's
// cropped and scaled size; overlays reaching past it are clipped.
func (c *Compositor) RenderStill(anim *source.Animation, r *recipe.Recipe) (*image.RGBA, error) {
	images, err := recipe.ResolveStill(r, anim.FrameCount())
	if err != nil {
		return nil, err
	}
	layers, err := c.layers(anim, images)
	if err != nil {
		return nil, err
	}
	root := layers[0]
	w, h := root.Bounds().Dx(), root.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}
	// The still is drawn in the root's own space.
	for i := range layers {
		layers[i].at = layers[i].at.Sub(root.at)
	}
	canvas := raster.NewCanvas(w, h)
	c.paint(canvas, layers)
	return canvas, nil
}

// layer is a cropped source region waiting to be scaled and painted.
type layer struct {
	src   image.Image
	scale float64
	at    image.Point
	size  image.Point // after scaling
}

func (l layer) Bounds() image.Rectangle {
	return image.Rectangle{Min: l.at, Max: l.at.Add(l.size)}
}

func (c *Compositor) layers(anim *source.Animation, images []recipe.Element) ([]layer, error) {
	out := make([]layer, 0, len(images))
	for _, e := range images {
		if e.Frame < 0 || e.Frame >= len(anim.Frames) {
			return nil, fmt.Errorf("source frame %d missing (have %d)", e.Frame, len(anim.Frames))
		}
		img := anim.Frames[e.Frame].Image
		if e.HasCrop() {
			img = raster.Crop(img, e.X, e.Y, e.W, e.H)
		}
		w, h := raster.ScaledSize(img.Bounds().Dx(), img.Bounds().Dy(), e.Scale)
		out = append(out, layer{
			src:   img,
			scale: e.Scale,
			at:    image.Pt(int(math.Round(e.PosX)), int(math.Round(e.PosY))),
			size:  image.Pt(w, h),
		})
	}
	return out, nil
}

// boundingBox is the canvas needed to hold every layer, measured from the
// origin.
func boundingBox(layers []layer) (int, int) {
	w, h := 0, 0
	for _, l := range layers {
		b := l.Bounds()
		if b.Max.X > w {
			w = b.Max.X
		}
		if b.Max.Y > h {
			h = b.Max.Y
		}
	}
	return w, h
}

// paint draws layers in order, so later layers cover earlier ones.
func (c *Compositor) paint(canvas *image.RGBA, layers []layer) {
	for _, l := range layers {
		if l.size.X <= 0 || l.size.Y <= 0 {
			continue
		}
		if l.scale == 1 {
			raster.Blit(canvas, l.src, l.at.X, l.at.Y)
			continue
		}
		buf := c.pool.Get(l.size.X, l.size.Y)
		raster.ScaleInto(buf, l.src)
		raster.Blit(canvas, buf, l.at.X, l.at.Y)
		c.pool.Put(buf)
	}
}
