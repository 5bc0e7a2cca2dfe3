// Package loader holds the two entry adapters. Each one extracts a template
// from an entry module, reports it, and hands residual code back to the
// bundler in place of the module's source.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/splitter"
)

// Reporter receives the template extracted from the module at path.
type Reporter interface {
	Report(path string, record core.TemplateRecord)
}

type ReporterFunc func(path string, record core.TemplateRecord)

func (f ReporterFunc) Report(path string, record core.TemplateRecord) {
	f(path, record)
}

// Resolver resolves a specifier captured from a module the way the bundler
// would, returning the file it points to.
type Resolver func(specifier, resolveDir string) (string, error)

// Entry is the per-entry configuration an adapter runs with.
type Entry struct {
	Name     string
	Source   string
	Kind     core.EntryKind
	Output   string
	Marker   string
	MountAPI splitter.MountAPI
	Props    map[string]any
}

// Output is the residual module handed back to the bundler.
type Output struct {
	Contents   string
	ResolveDir string
}

type Adapter interface {
	Load(ctx context.Context, entry Entry, source string) (Output, error)
}

func asExtractionError(path, reason string, err error) error {
	var extractErr *core.ExtractionError
	if errors.As(err, &extractErr) {
		return extractErr
	}
	return core.NewExtractionError(path, reason, err)
}

// codeExtensions are imported for their side effects. Anything else is
// an asset whose bundler output the page links to.
var codeExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
	".ts": true, ".mts": true, ".cts": true, ".tsx": true,
	".css": true,
}

// residualModule imports every captured dependency once. Assets are
// re-exported because esbuild drops bare imports of side-effect free
// modules, and with them the emitted file.
func residualModule(deps []core.Dependency) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(deps))
	assets := 0
	for _, dep := range deps {
		if _, dup := seen[dep.Specifier]; dup {
			continue
		}
		seen[dep.Specifier] = struct{}{}

		if isCode(dep) {
			fmt.Fprintf(&b, "import %s;\n", quote(dep.Specifier))
			continue
		}
		fmt.Fprintf(&b, "export { default as %s%d } from %s;\n", AssetExportPrefix, assets, quote(dep.Specifier))
		assets++
	}
	return b.String()
}

// AssetExportPrefix names the exports that keep asset dependencies alive.
const AssetExportPrefix = "__entrykitAsset"

func isCode(dep core.Dependency) bool {
	path := dep.Path
	if path == "" {
		path = dep.Specifier
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}

func resolveDir(path string) string {
	return filepath.Dir(path)
}
