package compositor

import (
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/gifrecipe/internal/recipe"
	"github.com/ivlev/gifrecipe/internal/source"
)

// tint returns a solid w×h frame whose red channel identifies it.
func tint(w, h int, id uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: id, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	return img
}

func testAnimation(n, w, h int) *source.Animation {
	anim := &source.Animation{LoopCount: 3, BackgroundIndex: 1}
	for i := 0; i < n; i++ {
		anim.Frames = append(anim.Frames, source.Frame{
			Image:    tint(w, h, uint8(10*(i+1))),
			Delay:    5 * (i + 1),
			Disposal: gif.DisposalBackground,
		})
	}
	return anim
}

func frameID(img image.Image, x, y int) uint8 {
	return img.(*image.RGBA).RGBAAt(x, y).R
}

func TestComposite(t *testing.T) {
	c := New(nil)

	t.Run("Should crop and scale every frame", func(t *testing.T) {
		anim := testAnimation(3, 10, 10)
		r := &recipe.Recipe{X: recipe.Int(0), Y: recipe.Int(0), W: recipe.Int(4), H: recipe.Int(4), Scale: recipe.Float(2)}
		out, err := c.Composite(anim, r)
		require.NoError(t, err)
		require.Equal(t, 3, out.FrameCount())
		assert.Equal(t, 3, out.LoopCount)
		assert.Equal(t, byte(1), out.BackgroundIndex)
		for i, f := range out.Frames {
			assert.Equal(t, image.Rect(0, 0, 8, 8), f.Image.Bounds())
			assert.Equal(t, anim.Frames[i].Delay, f.Delay)
			assert.Equal(t, anim.Frames[i].Disposal, f.Disposal)
			assert.Equal(t, uint8(10*(i+1)), frameID(f.Image, 7, 7))
			// pixel (7,7) of the output samples source pixel (3,3)
			assert.Equal(t, uint8(3), f.Image.(*image.RGBA).RGBAAt(7, 7).G)
		}
	})

	t.Run("Should follow useFrames", func(t *testing.T) {
		anim := testAnimation(3, 2, 2)
		r := &recipe.Recipe{
			Frame: recipe.Int(0),
			UseFrames: []recipe.FrameRef{
				recipe.FrameIndex(0), recipe.FrameIndex(1), recipe.FrameIndex(2),
				recipe.FrameIndex(0), recipe.FrameIndex(1),
			},
		}
		out, err := c.Composite(anim, r)
		require.NoError(t, err)
		require.Equal(t, 5, out.FrameCount())
		got := make([]uint8, 5)
		delays := make([]int, 5)
		for i, f := range out.Frames {
			got[i] = frameID(f.Image, 0, 0)
			delays[i] = f.Delay
		}
		assert.Equal(t, []uint8{10, 20, 30, 10, 20}, got)
		assert.Equal(t, []int{5, 10, 15, 5, 10}, delays)
	})

	t.Run("Should size the canvas to the bounding box", func(t *testing.T) {
		anim := testAnimation(2, 20, 20)
		r := &recipe.Recipe{
			W: recipe.Int(10), H: recipe.Int(10),
			BlitImages: []recipe.Recipe{{
				W: recipe.Int(5), H: recipe.Int(5),
				Frame: recipe.Int(1),
				PosX:  recipe.Float(8), PosY: recipe.Float(8),
			}},
		}
		out, err := c.Composite(anim, r)
		require.NoError(t, err)
		for _, f := range out.Frames {
			assert.Equal(t, image.Rect(0, 0, 13, 13), f.Image.Bounds())
			// overlay covers the main image where they overlap
			assert.Equal(t, uint8(20), frameID(f.Image, 9, 9))
			assert.Equal(t, uint8(0), f.Image.(*image.RGBA).RGBAAt(12, 0).A)
		}
		assert.Equal(t, uint8(10), frameID(out.Frames[0].Image, 0, 0))
		assert.Equal(t, uint8(20), frameID(out.Frames[1].Image, 0, 0))
	})

	t.Run("Should use the full frame for empty crops", func(t *testing.T) {
		anim := testAnimation(1, 6, 3)
		out, err := c.Composite(anim, &recipe.Recipe{W: recipe.Int(4), H: recipe.Int(0)})
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 6, 3), out.Frames[0].Image.Bounds())
	})

	t.Run("Should keep the requested size for crops past the edge", func(t *testing.T) {
		anim := testAnimation(1, 10, 10)
		r := &recipe.Recipe{X: recipe.Int(8), W: recipe.Int(4), H: recipe.Int(4), Scale: recipe.Float(2)}
		out, err := c.Composite(anim, r)
		require.NoError(t, err)
		img := out.Frames[0].Image.(*image.RGBA)
		require.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
		// source pixel (9,0) is the last column inside the crop
		assert.Equal(t, color.RGBA{R: 10, G: 9, A: 255}, img.RGBAAt(3, 1))
		assert.Equal(t, uint8(0), img.RGBAAt(4, 0).A)
		assert.Equal(t, uint8(0), img.RGBAAt(7, 7).A)
	})

	t.Run("Should render crops outside the source as transparent", func(t *testing.T) {
		anim := testAnimation(1, 10, 10)
		out, err := c.Composite(anim, &recipe.Recipe{X: recipe.Int(20), W: recipe.Int(4), H: recipe.Int(4)})
		require.NoError(t, err)
		img := out.Frames[0].Image.(*image.RGBA)
		require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
		assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
	})

	t.Run("Should take metadata from the main frame only", func(t *testing.T) {
		anim := testAnimation(3, 4, 4)
		r := &recipe.Recipe{
			Frame:      recipe.Int(2),
			BlitImages: []recipe.Recipe{{Frame: recipe.Int(0)}},
		}
		out, err := c.Composite(anim, r)
		require.NoError(t, err)
		for _, f := range out.Frames {
			assert.Equal(t, 15, f.Delay)
			assert.Equal(t, uint8(10), frameID(f.Image, 0, 0))
		}
	})

	t.Run("Should reject empty canvases", func(t *testing.T) {
		anim := testAnimation(1, 4, 4)
		_, err := c.Composite(anim, &recipe.Recipe{Scale: recipe.Float(0)})
		assert.ErrorIs(t, err, ErrEmptyCanvas)
	})

	t.Run("Should fail without frames", func(t *testing.T) {
		_, err := c.Composite(&source.Animation{}, &recipe.Recipe{})
		assert.ErrorIs(t, err, recipe.ErrNoFrames)
	})
}

func TestRenderMissingFrame(t *testing.T) {
	c := New(nil)
	anim := testAnimation(3, 4, 4)

	tests := []struct {
		name  string
		frame int
	}{
		{"Should reject a frame past the end", 3},
		{"Should reject a negative frame", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := recipe.Plan{Frames: []recipe.PlanFrame{
				{Images: []recipe.Element{{Frame: 0, Scale: 1}}},
				{Images: []recipe.Element{{Frame: 0, Scale: 1}, {Frame: tt.frame, Scale: 1}}},
			}}
			_, err := c.Render(anim, plan)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "output frame 1")
			assert.Contains(t, err.Error(), "missing")
		})
	}
}

func TestRenderStill(t *testing.T) {
	c := New(nil)
	anim := testAnimation(3, 16, 16)

	t.Run("Should render the root size and clip overlays", func(t *testing.T) {
		r := &recipe.Recipe{
			W: recipe.Int(4), H: recipe.Int(4),
			Scale: recipe.Float(2),
			BlitImages: []recipe.Recipe{{
				Frame: recipe.Int(2),
				W:     recipe.Int(4), H: recipe.Int(4),
				PosX: recipe.Float(2), PosY: recipe.Float(2),
			}},
		}
		img, err := c.RenderStill(anim, r)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
		assert.Equal(t, uint8(10), img.RGBAAt(0, 0).R)
		assert.Equal(t, uint8(30), img.RGBAAt(4, 4).R)
		assert.Equal(t, uint8(30), img.RGBAAt(7, 7).R)
	})

	t.Run("Should ignore useFrames", func(t *testing.T) {
		r := &recipe.Recipe{UseFrames: []recipe.FrameRef{recipe.FrameIndex(2)}}
		img, err := c.RenderStill(anim, r)
		require.NoError(t, err)
		assert.Equal(t, uint8(10), img.RGBAAt(0, 0).R)
	})

	t.Run("Should draw relative to a positioned root", func(t *testing.T) {
		r := &recipe.Recipe{
			Frame: recipe.Int(1),
			PosX:  recipe.Float(5), PosY: recipe.Float(5),
			W: recipe.Int(2), H: recipe.Int(2),
		}
		img, err := c.RenderStill(anim, r)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
		assert.Equal(t, uint8(20), img.RGBAAt(1, 1).R)
	})
}
