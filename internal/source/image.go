package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageSource treats a single still, or every PNG/JPEG in a directory sorted
// by name, as frames.
type ImageSource struct {
	paths []string
	delay int
}

func NewImageSource(path string, opts Options) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".png", ".jpg", ".jpeg":
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths, delay: opts.Delay}, nil
}

func (s *ImageSource) FrameCount() int {
	return len(s.paths)
}

func (s *ImageSource) Frame(index int) (Frame, error) {
	if index < 0 || index >= len(s.paths) {
		return Frame{}, fmt.Errorf("image frame %d out of range [0,%d)", index, len(s.paths))
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", s.paths[index], err)
	}
	return Frame{Image: img, Delay: s.delay}, nil
}

func (s *ImageSource) Close() error {
	return nil
}
