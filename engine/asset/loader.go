// Package asset loads and caches immutable animation archives: the versioned
// binary blobs — clip samples, tag/marker metadata, table layouts — produced
// by the authoring pipeline and consumed read-only by the synthesizer.
package asset

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*Asset
}

// Loader defines the public-facing interface for loading and caching
// animation archives. Archives are cached by path (or caller-supplied name)
// so repeated synthesizer construction against the same content resolves to
// the same immutable Asset.
type Loader interface {
	// Load reads an animation archive from disk and caches the result.
	// If the archive is already cached (by file path), the cached version is
	// returned without touching the filesystem.
	//
	// Parameters:
	//   - path: the file path to the archive
	//
	// Returns:
	//   - *Asset: the loaded and cached asset
	//   - error: error if reading or parsing fails
	Load(path string) (*Asset, error)

	// LoadReader reads an animation archive from a reader stream and caches
	// it by the given name. Use this when loading from embedded resources or
	// network streams.
	//
	// Parameters:
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing archive data
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if reading or parsing fails
	LoadReader(name string, r io.Reader) (*Asset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(name string) *Asset

	// Assets returns a copy of the full asset cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the provided options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]*Asset),
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	a, err := parseArchive(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.assetCache[path] = a
	l.mu.Unlock()

	return a, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*Asset, error) {
	l.mu.RLock()
	if cached, ok := l.assetCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	a, err := parseArchive(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.assetCache[name] = a
	l.mu.Unlock()

	return a, nil
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}
