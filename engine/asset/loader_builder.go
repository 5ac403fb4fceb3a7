package asset

// LoaderBuilderOption is a function that modifies the loader options.
type LoaderBuilderOption func(*loader)

// WithAsset pre-populates the loader cache with an already-parsed asset under
// the given name. Useful for tests and embedded content.
//
// Parameters:
//   - name: the cache key to store the asset under
//   - a: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cached asset
func WithAsset(name string, a *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[name] = a
	}
}
