package usecase

import (
	"log/slog"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/config"
	"github.com/3-lines-studio/entrykit/internal/coordinator"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/loader"
	"github.com/evanw/esbuild/pkg/api"
)

var assetLoaders = map[string]api.Loader{
	".jsx":   api.LoaderJSX,
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".ico":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
}

// project is one configured build: the esbuild options and the
// coordinator whose plugin they carry.
type project struct {
	model       *config.Model
	options     api.BuildOptions
	coordinator *coordinator.Coordinator
}

func newProject(m *config.Model, mode core.Mode, timeout time.Duration, logger *slog.Logger, fsys FileSystem) *project {
	jsx := bundler.JSXOptions{Factory: m.JSXFactory, Fragment: m.JSXFragment}

	entries := make([]loader.Entry, 0, len(m.Entries))
	entryPoints := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, loader.Entry{
			Name:     e.Name,
			Source:   e.Source,
			Kind:     e.Kind,
			Output:   e.Output,
			Marker:   e.Marker,
			MountAPI: e.MountAPI,
			Props:    e.Props,
		})
		entryPoints = append(entryPoints, e.Source)
	}

	c := coordinator.New(coordinator.Options{
		Entries:    entries,
		PublicPath: m.PublicPath,
		Exclude:    m.Exclude,
		Minify:     m.Minify,
		Doctype:    true,
		Manifest:   true,
		JSX:        jsx,
		Timeout:    timeout,
		Logger:     logger,
		FileSystem: fsys,
	})

	format := api.FormatIIFE
	if m.Format == config.FormatESM {
		format = api.FormatESModule
	}
	sourcemap := api.SourceMapLinked
	if mode.IsProduction() {
		sourcemap = api.SourceMapNone
	}

	opts := api.BuildOptions{
		AbsWorkingDir:     m.Dir,
		EntryPoints:       entryPoints,
		Outdir:            m.Path(m.Outdir),
		EntryNames:        m.EntryNames,
		ChunkNames:        m.ChunkNames,
		AssetNames:        "[name]-[hash]",
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Format:            format,
		Splitting:         m.Splitting,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Sourcemap:         sourcemap,
		MinifyWhitespace:  m.Minify,
		MinifySyntax:      m.Minify,
		MinifyIdentifiers: m.Minify,
		JSX:               api.JSXTransform,
		JSXFactory:        jsx.Factory,
		JSXFragment:       jsx.Fragment,
		Loader:            assetLoaders,
		Define: map[string]string{
			"process.env.NODE_ENV": `"` + mode.String() + `"`,
		},
		LogLevel: api.LogLevelSilent,
		Plugins:  []api.Plugin{c.Plugin()},
	}

	return &project{model: m, options: opts, coordinator: c}
}

// entryFor names the entry a build message belongs to.
func (p *project) entryFor(msg api.Message) string {
	if err, ok := msg.Detail.(error); ok {
		if name := core.EntryName(err); name != "" {
			return name
		}
		if path := core.ErrorPath(err); path != "" {
			if name := p.entryBySource(path); name != "" {
				return name
			}
		}
	}
	if msg.Location != nil {
		if name := p.entryBySource(p.model.Path(msg.Location.File)); name != "" {
			return name
		}
		return msg.Location.File
	}
	return "build"
}

func (p *project) entryBySource(path string) string {
	for _, e := range p.model.Entries {
		if e.Source == path {
			return e.Name
		}
	}
	return ""
}
