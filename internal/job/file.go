package job

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ReadJob reads a job from a YAML or TOML file. Relative source and output
// paths are resolved against the file's directory.
func ReadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var j Job
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &j); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &j); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("job file %s: unknown extension %q", path, ext)
	}

	dir := filepath.Dir(path)
	j.Source = resolve(dir, j.Source)
	j.Output = resolve(dir, j.Output)
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// WriteJob writes j as YAML or TOML depending on the extension of path.
func WriteJob(j *Job, path string) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		out, err := yaml.Marshal(j)
		if err != nil {
			return err
		}
		data = out
	case ".toml":
		out, err := encodeTOML(j)
		if err != nil {
			return err
		}
		data = out
	default:
		return fmt.Errorf("job file %s: unknown extension %q", path, ext)
	}
	return os.WriteFile(path, data, 0644)
}

// encodeTOML goes through the YAML form so useFrames entries, which mix
// integers and tables, reach the TOML encoder as plain values.
func encodeTOML(j *Job) ([]byte, error) {
	y, err := yaml.Marshal(j)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(y, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
