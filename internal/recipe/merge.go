package recipe

// Layer is the part of a Recipe that takes part in field merging.
// Name, UseFrames and BlitImages never appear here.
type Layer struct {
	X, Y, W, H *int
	Frame      *int
	Scale      *float64
	PosX, PosY *float64
}

// Defaults is the bottom layer of every merge.
func Defaults() Element {
	return Element{Scale: 1}
}

// Layer extracts the mergeable scalar fields of r.
func (r *Recipe) Layer() Layer {
	if r == nil {
		return Layer{}
	}
	return Layer{
		X: r.X, Y: r.Y, W: r.W, H: r.H,
		Frame: r.Frame,
		Scale: r.Scale,
		PosX:  r.PosX, PosY: r.PosY,
	}
}

// Merge applies layers over defaults in order; a set field in a later layer
// wins over the same field in an earlier one.
func Merge(defaults Element, layers ...Layer) Element {
	out := defaults
	for _, l := range layers {
		if l.X != nil {
			out.X = *l.X
		}
		if l.Y != nil {
			out.Y = *l.Y
		}
		if l.W != nil {
			out.W = *l.W
		}
		if l.H != nil {
			out.H = *l.H
		}
		if l.Frame != nil {
			out.Frame = *l.Frame
		}
		if l.Scale != nil {
			out.Scale = *l.Scale
		}
		if l.PosX != nil {
			out.PosX = *l.PosX
		}
		if l.PosY != nil {
			out.PosY = *l.PosY
		}
	}
	return out
}

// inherit builds the recipe an overlay is resolved with: the parent's crop
// and frame fill in whatever the overlay leaves unset. Scale and position are
// not inherited; the caller composes them after resolution.
func inherit(parent Element, overlay Recipe) Recipe {
	child := overlay
	if child.X == nil {
		child.X = Int(parent.X)
	}
	if child.Y == nil {
		child.Y = Int(parent.Y)
	}
	if child.W == nil {
		child.W = Int(parent.W)
	}
	if child.H == nil {
		child.H = Int(parent.H)
	}
	if child.Frame == nil {
		child.Frame = Int(parent.Frame)
	}
	child.PosX, child.PosY = nil, nil
	return child
}
