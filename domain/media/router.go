package media

import (
	"context"
	"strings"
)

// Router is an AssetSource that dispatches on identifier prefixes such as "drive:".
// Identifiers without a registered prefix go to the fallback source.
type Router struct {
	fallback AssetSource
	prefixes []string
	sources  map[string]AssetSource
}

// NewRouter creates a router with a fallback source
func NewRouter(fallback AssetSource) *Router {
	return &Router{
		fallback: fallback,
		sources:  make(map[string]AssetSource),
	}
}

// Route registers src for identifiers starting with prefix
func (r *Router) Route(prefix string, src AssetSource) *Router {
	if _, ok := r.sources[prefix]; !ok {
		r.prefixes = append(r.prefixes, prefix)
	}
	r.sources[prefix] = src
	return r
}

// Resolve implements AssetSource
func (r *Router) Resolve(ctx context.Context, id string) (*Asset, error) {
	trimmed := strings.TrimSpace(id)
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return r.sources[prefix].Resolve(ctx, trimmed)
		}
	}
	if r.fallback == nil {
		return nil, ErrAssetUnavailable
	}
	return r.fallback.Resolve(ctx, trimmed)
}

// Ensure Router implements AssetSource
var _ AssetSource = (*Router)(nil)
