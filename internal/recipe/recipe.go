// Package recipe turns a sparse, nestable manipulation recipe into a flat
// per-output-frame composite plan.
package recipe

// Recipe describes how to crop, scale, position and overlay source frames.
// Every scalar field is optional; unset fields inherit from the layer below.
type Recipe struct {
	Name  string   `yaml:"name,omitempty" toml:"name,omitempty"` // display only, never merged
	X     *int     `yaml:"x,omitempty" toml:"x,omitempty"`
	Y     *int     `yaml:"y,omitempty" toml:"y,omitempty"`
	W     *int     `yaml:"w,omitempty" toml:"w,omitempty"`
	H     *int     `yaml:"h,omitempty" toml:"h,omitempty"`
	Scale *float64 `yaml:"scale,omitempty" toml:"scale,omitempty"`
	Frame *int     `yaml:"frame,omitempty" toml:"frame,omitempty"`

	// PosX and PosY are the offset of an overlay inside its parent, in the
	// parent's unscaled pixels. On the root recipe they place the main image.
	PosX *float64 `yaml:"posX,omitempty" toml:"posX,omitempty"`
	PosY *float64 `yaml:"posY,omitempty" toml:"posY,omitempty"`

	UseFrames  []FrameRef `yaml:"useFrames,omitempty" toml:"useFrames,omitempty"`
	BlitImages []Recipe   `yaml:"blitImages,omitempty" toml:"blitImages,omitempty"`
}

// FrameRef is one entry of Recipe.UseFrames: either a bare source frame
// index or an override bundle applied for that output frame.
type FrameRef struct {
	Index    *int
	Override *Recipe
}

// FrameIndex returns a FrameRef selecting source frame i.
func FrameIndex(i int) FrameRef {
	return FrameRef{Index: &i}
}

// Bundle returns a FrameRef applying r as an override.
func Bundle(r Recipe) FrameRef {
	return FrameRef{Override: &r}
}

// Element is a fully resolved composite instruction.
type Element struct {
	Frame int     `yaml:"frame"`
	X     int     `yaml:"x"`
	Y     int     `yaml:"y"`
	W     int     `yaml:"w"`
	H     int     `yaml:"h"`
	Scale float64 `yaml:"scale"`
	PosX  float64 `yaml:"posX"`
	PosY  float64 `yaml:"posY"`
}

// HasCrop reports whether the element requests a crop. A rectangle with a
// zero or negative side means "use the full frame".
func (e Element) HasCrop() bool {
	return e.W > 0 && e.H > 0
}

// PlanFrame holds the elements of one output frame. Images[0] is the main
// image, the rest are overlays in paint order.
type PlanFrame struct {
	Images []Element `yaml:"images"`
}

// Main returns the base element of the frame.
func (f PlanFrame) Main() Element {
	return f.Images[0]
}

// Plan is the normalized form of a recipe.
type Plan struct {
	Frames []PlanFrame `yaml:"frames"`
}

// Int returns a pointer to v, for building recipes in code.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
