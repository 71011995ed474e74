package output

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/gifrecipe/internal/source"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestWriteAnimation(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	anim := &source.Animation{
		Frames: []source.Frame{
			{Image: solid(4, 4, red), Delay: 12, Disposal: gif.DisposalBackground},
			{Image: solid(6, 2, blue), Delay: 7, Disposal: gif.DisposalNone},
		},
		LoopCount: 0,
	}
	path := filepath.Join(t.TempDir(), "nested", "out.gif")

	w := &FileWriter{}
	require.NoError(t, w.WriteAnimation(context.Background(), path, anim))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{12, 7}, g.Delay)
	assert.Equal(t, []byte{gif.DisposalBackground, gif.DisposalNone}, g.Disposal)
	assert.Equal(t, 6, g.Config.Width)
	assert.Equal(t, 4, g.Config.Height)
	assert.Equal(t, red, color.RGBAModel.Convert(g.Image[0].At(1, 1)))
	assert.Equal(t, blue, color.RGBAModel.Convert(g.Image[1].At(5, 1)))

	// every frame spans the logical screen; uncovered pixels are transparent
	for _, img := range g.Image {
		assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	}
	assert.Equal(t, uint32(0), alphaAt(g.Image[0], 5, 0))
	assert.Equal(t, uint32(0), alphaAt(g.Image[1], 0, 3))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestWriteAnimationRejectsFormat(t *testing.T) {
	w := &FileWriter{}
	anim := &source.Animation{Frames: []source.Frame{{Image: solid(1, 1, color.RGBA{A: 255})}}}
	path := filepath.Join(t.TempDir(), "out.mp4")
	err := w.WriteAnimation(context.Background(), path, anim)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteStill(t *testing.T) {
	w := &FileWriter{}
	img := solid(3, 3, color.RGBA{G: 200, A: 255})

	t.Run("Should write png", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "still.png")
		require.NoError(t, w.WriteStill(context.Background(), path, img))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		decoded, err := png.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 3, 3), decoded.Bounds())
	})

	t.Run("Should write gif", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "still.gif")
		require.NoError(t, w.WriteStill(context.Background(), path, img))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		decoded, err := gif.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{G: 200, A: 255}, color.RGBAModel.Convert(decoded.At(0, 0)))
	})

	t.Run("Should honour a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := filepath.Join(t.TempDir(), "still.png")
		assert.ErrorIs(t, w.WriteStill(ctx, path, img), context.Canceled)
	})
}

func TestExactPalette(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	assert.Nil(t, exactPalette(img), "400 colours do not fit")
	assert.Len(t, exactPalette(solid(5, 5, color.RGBA{A: 255})), 1)

	p := toPaletted(img, nil)
	assert.Len(t, p.Palette, len(fallbackPalette()))
}
