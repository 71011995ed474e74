package source

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Loader opens and decodes sources, keeping recently used animations in an
// LRU cache. Animations are never mutated after decoding, so cached values
// are shared between concurrent jobs.
type Loader struct {
	opts  Options
	cache *lru.Cache[string, *Animation]
	group singleflight.Group
}

// NewLoader returns a Loader caching up to size animations. size <= 0
// disables caching.
func NewLoader(opts Options, size int) (*Loader, error) {
	l := &Loader{opts: opts}
	if size > 0 {
		c, err := lru.New[string, *Animation](size)
		if err != nil {
			return nil, err
		}
		l.cache = c
	}
	return l, nil
}

// Load returns the decoded animation at path.
func (l *Loader) Load(path string) (*Animation, error) {
	key, err := l.key(path)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		if anim, ok := l.cache.Get(key); ok {
			return anim, nil
		}
	}

	// Jobs sharing a source decode it once.
	v, err, _ := l.group.Do(key, func() (any, error) {
		src, err := Open(path, l.opts)
		if err != nil {
			return nil, err
		}
		defer src.Close()

		anim, err := ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if l.cache != nil {
			l.cache.Add(key, anim)
		}
		return anim, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Animation), nil
}

// Cached reports how many animations are held.
func (l *Loader) Cached() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

func (l *Loader) key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|dpi=%d|delay=%d", abs, l.opts.DPI, l.opts.Delay), nil
}
