package recipe

import (
	"errors"
	"fmt"
)

// MaxDepth bounds overlay nesting. Recipes can reference themselves through
// override bundles; the bound turns that into an error.
const MaxDepth = 64

var (
	ErrNoFrames      = errors.New("recipe: source has no frames")
	ErrRecipeTooDeep = errors.New("recipe: overlay nesting too deep")
)

// OutputFrameCount returns how many frames a recipe produces for a source of
// frameCount frames: the longest of the source, the root useFrames and the
// useFrames of each direct overlay. Deeper overlays do not extend it.
func OutputFrameCount(r *Recipe, frameCount int) int {
	n := frameCount
	if r == nil {
		return n
	}
	if len(r.UseFrames) > n {
		n = len(r.UseFrames)
	}
	for _, b := range r.BlitImages {
		if len(b.UseFrames) > n {
			n = len(b.UseFrames)
		}
	}
	return n
}

// Normalize resolves r into one PlanFrame per output frame.
func Normalize(r *Recipe, frameCount int) (Plan, error) {
	if frameCount <= 0 {
		return Plan{}, ErrNoFrames
	}
	if r == nil {
		r = &Recipe{}
	}
	res := resolver{frameCount: frameCount, cycle: true}
	n := OutputFrameCount(r, frameCount)
	plan := Plan{Frames: make([]PlanFrame, n)}
	for i := 0; i < n; i++ {
		images, err := res.resolve(r, i, 0)
		if err != nil {
			return Plan{}, fmt.Errorf("output frame %d: %w", i, err)
		}
		plan.Frames[i] = PlanFrame{Images: images}
	}
	return plan, nil
}

// ResolveFrame resolves output frame index of r. Normalize calls it for every
// index in [0, OutputFrameCount).
func ResolveFrame(r *Recipe, index, frameCount int) ([]Element, error) {
	if frameCount <= 0 {
		return nil, ErrNoFrames
	}
	res := resolver{frameCount: frameCount, cycle: true}
	return res.resolve(r, index, 0)
}

// ResolveStill resolves r for a single output image. useFrames entries are
// ignored at every level, so each element takes its frame from the recipe
// chain or defaults to source frame 0.
func ResolveStill(r *Recipe, frameCount int) ([]Element, error) {
	if frameCount <= 0 {
		return nil, ErrNoFrames
	}
	res := resolver{frameCount: frameCount}
	return res.resolve(r, 0, 0)
}

type resolver struct {
	frameCount int
	cycle      bool // apply useFrames
}

func (res resolver) resolve(r *Recipe, index, depth int) ([]Element, error) {
	if depth > MaxDepth {
		return nil, ErrRecipeTooDeep
	}
	if r == nil {
		r = &Recipe{}
	}

	var current *FrameRef
	if res.cycle && len(r.UseFrames) > 0 {
		current = &r.UseFrames[wrap(index, len(r.UseFrames))]
	}
	var override *Recipe
	if current != nil {
		override = current.Override
	}

	fixed := index
	switch {
	case current != nil && current.Index != nil:
		fixed = *current.Index
	case override != nil && override.Frame != nil:
		fixed = *override.Frame
	case r.Frame != nil:
		fixed = *r.Frame
	}
	fixed = wrap(fixed, res.frameCount)

	main := Merge(Defaults(), r.Layer(), override.Layer(), Layer{Frame: &fixed})

	overlays := r.BlitImages
	if override != nil && len(override.BlitImages) > 0 {
		overlays = make([]Recipe, 0, len(r.BlitImages)+len(override.BlitImages))
		overlays = append(overlays, r.BlitImages...)
		overlays = append(overlays, override.BlitImages...)
	}

	out := []Element{main}
	for _, ov := range overlays {
		child := inherit(main, ov)
		inner, err := res.resolve(&child, index, depth+1)
		if err != nil {
			return nil, err
		}
		offX, offY := deref(ov.PosX), deref(ov.PosY)
		for _, e := range inner {
			e.Scale *= main.Scale
			e.PosX = main.PosX + (offX+e.PosX)*main.Scale
			e.PosY = main.PosY + (offY+e.PosY)*main.Scale
			out = append(out, e)
		}
	}
	return out, nil
}

// wrap reduces i into [0, n) for n > 0.
func wrap(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
