package recipe

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either an integer or a mapping.
func (f *FrameRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var i int
		if err := value.Decode(&i); err != nil {
			return fmt.Errorf("useFrames entry at line %d: %w", value.Line, err)
		}
		*f = FrameRef{Index: &i}
		return nil
	case yaml.MappingNode:
		var r Recipe
		if err := value.Decode(&r); err != nil {
			return err
		}
		*f = FrameRef{Override: &r}
		return nil
	default:
		return fmt.Errorf("useFrames entry at line %d: expected frame index or mapping", value.Line)
	}
}

// MarshalYAML writes the index or the override bundle.
func (f FrameRef) MarshalYAML() (interface{}, error) {
	if f.Index != nil {
		return *f.Index, nil
	}
	if f.Override != nil {
		return f.Override, nil
	}
	return nil, nil
}

// UnmarshalTOML accepts an integer or an inline table.
func (f *FrameRef) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case int64:
		i := int(v)
		*f = FrameRef{Index: &i}
		return nil
	case map[string]interface{}:
		// Re-encode the table so nested useFrames go through this method too.
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return err
		}
		var r Recipe
		if _, err := toml.Decode(buf.String(), &r); err != nil {
			return err
		}
		*f = FrameRef{Override: &r}
		return nil
	default:
		return fmt.Errorf("useFrames entry: expected frame index or table, got %T", data)
	}
}

// DecodeYAML parses a recipe document.
func DecodeYAML(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DecodeTOML parses a recipe document.
func DecodeTOML(data []byte) (*Recipe, error) {
	var r Recipe
	if _, err := toml.Decode(string(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadFile decodes a bare recipe document, picking the format by extension.
func ReadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r *Recipe
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		r, err = DecodeYAML(data)
	case ".toml":
		r, err = DecodeTOML(data)
	default:
		return nil, fmt.Errorf("recipe file %s: unknown extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

// EncodePlan renders a plan as YAML for inspection.
func EncodePlan(p Plan) ([]byte, error) {
	return yaml.Marshal(p)
}
