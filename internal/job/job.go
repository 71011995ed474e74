// Package job describes one render: a source, a recipe and where the result
// goes.
package job

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ivlev/gifrecipe/internal/recipe"
)

const (
	ModeAnimation = "animation"
	ModeStill     = "still"
)

// Job is the unit the engine runs.
type Job struct {
	Name   string        `yaml:"name,omitempty" toml:"name,omitempty"`
	Source string        `yaml:"source" toml:"source" validate:"required"`
	Output string        `yaml:"output" toml:"output" validate:"required"`
	Mode   string        `yaml:"mode,omitempty" toml:"mode,omitempty" validate:"omitempty,oneof=animation still"`
	Recipe recipe.Recipe `yaml:"recipe" toml:"recipe"`
}

// IsStill reports whether the job renders a single image.
func (j *Job) IsStill() bool {
	return j.Mode == ModeStill
}

// Label names the job in logs.
func (j *Job) Label() string {
	if j.Name != "" {
		return j.Name
	}
	if j.Recipe.Name != "" {
		return j.Recipe.Name
	}
	return filepath.Base(j.Output)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(outputMatchesMode, Job{})
	})
	return validate
}

// outputMatchesMode rejects output extensions the writer cannot produce for
// the job's mode.
func outputMatchesMode(sl validator.StructLevel) {
	j := sl.Current().Interface().(Job)
	ext := strings.ToLower(filepath.Ext(j.Output))
	switch {
	case j.IsStill() && ext != ".png" && ext != ".gif":
		sl.ReportError(j.Output, "Output", "output", "stillext", ext)
	case !j.IsStill() && ext != ".gif":
		sl.ReportError(j.Output, "Output", "output", "gifext", ext)
	}
}

// Validate checks required fields, the mode and the output extension.
func (j *Job) Validate() error {
	err := validatorInstance().Struct(j)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("mode %q is not one of animation, still", fe.Value()))
		case "stillext":
			msgs = append(msgs, fmt.Sprintf("still output must be .png or .gif, got %q", fe.Param()))
		case "gifext":
			msgs = append(msgs, fmt.Sprintf("animation output must be .gif, got %q", fe.Param()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("job %s: %s", j.Label(), strings.Join(msgs, "; "))
}
