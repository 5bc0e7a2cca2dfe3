package render

import (
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/fs"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 10 * time.Minute
)

// cachedBundle is a compiled render bundle with the fingerprint of the
// files it was built from.
type cachedBundle struct {
	bundle      bundler.RenderBundle
	fingerprint string
}

// bundleCache keeps compiled render bundles keyed by the template they
// were built from. An entry is only valid while its inputs are unchanged.
type bundleCache struct {
	lru *expirable.LRU[string, cachedBundle]
	fs  fs.FileSystem
}

func newBundleCache(size int, ttl time.Duration, fsys fs.FileSystem) *bundleCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &bundleCache{lru: expirable.NewLRU[string, cachedBundle](size, nil, ttl), fs: fsys}
}

// get returns the bundle for key unless one of its inputs changed since it
// was stored. Stale bundles are evicted.
func (c *bundleCache) get(key string) (bundler.RenderBundle, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return bundler.RenderBundle{}, false
	}
	if c.fingerprint(entry.bundle.Inputs) != entry.fingerprint {
		c.lru.Remove(key)
		return bundler.RenderBundle{}, false
	}
	return entry.bundle, true
}

func (c *bundleCache) set(key string, bundle bundler.RenderBundle) {
	c.lru.Add(key, cachedBundle{bundle: bundle, fingerprint: c.fingerprint(bundle.Inputs)})
}

func (c *bundleCache) clear() {
	c.lru.Purge()
}

func (c *bundleCache) len() int {
	return c.lru.Len()
}

// inputs lists the files of every cached bundle.
func (c *bundleCache) inputs() []string {
	var paths []string
	for _, entry := range c.lru.Values() {
		paths = append(paths, entry.bundle.Inputs...)
	}
	return paths
}

func (c *bundleCache) fingerprint(inputs []string) string {
	parts := make([]string, 0, 2*len(inputs))
	for _, path := range inputs {
		data, err := c.fs.ReadFile(path)
		if err != nil {
			parts = append(parts, path, "missing")
			continue
		}
		parts = append(parts, path, string(data))
	}
	return core.HashContent(parts...)
}

func bundleKey(src core.TemplateSource, mods bundler.RenderModules, jsx bundler.JSXOptions, minify bool) string {
	m := "0"
	if minify {
		m = "1"
	}
	return core.HashContent(src.Code, src.Context, mods.Element, mods.Server, jsx.Factory, jsx.Fragment, m)
}
