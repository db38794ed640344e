// Package loupe provides language intelligence for Julia source code:
// error-tolerant parsing, static analysis into a queryable index, and
// stateless feature providers for hover, completion, go-to-definition,
// find-references, diagnostics, and quick fixes.
package loupe

import "github.com/jward/loupe/internal/cache"

// NewCacheManager creates the provider-side cache layer. Hosts create one
// manager and pass it into provider calls; zero option fields keep the
// default capacities.
func NewCacheManager(opts CacheOptions) *CacheManager {
	return cache.NewManager(opts)
}
