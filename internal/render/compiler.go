package render

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/fs"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
)

type CompilerOptions struct {
	Modules   bundler.RenderModules
	JSX       bundler.JSXOptions
	Minify    bool
	CacheSize int
	// FileSystem reads bundle inputs to tell whether a cached bundle is
	// still current.
	FileSystem fs.FileSystem
}

// Compiler turns template sources into render bundles, reusing a bundle
// across rebuilds while neither the template nor any file it imports
// changed.
type Compiler struct {
	opts  CompilerOptions
	cache *bundleCache
}

func NewCompiler(opts CompilerOptions) *Compiler {
	if opts.FileSystem == nil {
		opts.FileSystem = fs.NewOSFileSystem()
	}
	return &Compiler{opts: opts, cache: newBundleCache(opts.CacheSize, DefaultCacheTTL, opts.FileSystem)}
}

func (c *Compiler) Compile(ctx context.Context, name string, src core.TemplateSource) (string, error) {
	key := bundleKey(src, c.opts.Modules, c.opts.JSX, c.opts.Minify)
	if bundle, ok := c.cache.get(key); ok {
		ctxlog.FromContext(ctx).Debug("render bundle cache hit", "entry", name)
		return bundle.Script, nil
	}

	bundle, err := bundler.BundleRenderScript(bundler.RenderBundleInput{
		Name:       name,
		Code:       src.Code,
		ResolveDir: src.Context,
		Modules:    c.opts.Modules,
		JSX:        c.opts.JSX,
		Minify:     c.opts.Minify,
	})
	if err != nil {
		return "", err
	}
	c.cache.set(key, bundle)
	return bundle.Script, nil
}

// Inputs returns the project files imported by cached templates, without
// installed packages. Only templates import them, so the host build does
// not watch them.
func (c *Compiler) Inputs() []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, p := range c.cache.inputs() {
		if _, dup := seen[p]; dup || isPackageFile(p) {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (c *Compiler) Reset() {
	c.cache.clear()
}

func isPackageFile(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/node_modules/")
}
