// Package entrykit is an esbuild plugin that lets an entry module declare
// both its interactive application and the HTML page hosting it. The plugin
// splits the two while esbuild loads the module and writes the finished page,
// with the entry's generated scripts and styles, once the build is done.
package entrykit

import (
	"log/slog"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/coordinator"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/loader"
	"github.com/3-lines-studio/entrykit/internal/markup"
	"github.com/3-lines-studio/entrykit/internal/splitter"
	"github.com/evanw/esbuild/pkg/api"
)

type Kind = core.EntryKind

const (
	// KindMarkup entries are HTML documents (or modules exporting one)
	// whose local src attributes are bundled.
	KindMarkup = core.KindMarkup
	// KindComponent entries export a page component with one mount point.
	KindComponent = core.KindComponent
)

type MountAPI = splitter.MountAPI

const (
	MountLegacy = splitter.MountLegacy
	MountRoot   = splitter.MountRoot
)

const DefaultMarker = splitter.DefaultMarker

type (
	ExtractionError = core.ExtractionError
	RenderError     = core.RenderError
	Phase           = core.Phase
	Page            = coordinator.Page
	EntryAssets     = core.EntryAssets
	Manifest        = core.Manifest
)

const (
	PhaseExtraction = core.PhaseExtraction
	PhaseRender     = core.PhaseRender
)

var (
	ErrMountPointNotFound   = core.ErrMountPointNotFound
	ErrMultipleMountPoints  = core.ErrMultipleMountPoints
	ErrMalformedContainerID = core.ErrMalformedContainerID
	ErrMountPointChildren   = core.ErrMountPointChildren
	ErrExecutionTimeout     = core.ErrExecutionTimeout
	ErrUnknownPlaceholder   = core.ErrUnknownPlaceholder
)

// Entry configures one esbuild entry point. Entries without a Kind are
// bundled as usual and get no page.
type Entry struct {
	Name   string
	Source string
	Kind   Kind
	// Output is the page path relative to the outdir.
	Output   string
	Marker   string
	MountAPI MountAPI
	Props    map[string]any
}

type Option func(*coordinator.Options)

// WithPublicPath sets the URL prefix of emitted script and link tags.
func WithPublicPath(path string) Option {
	return func(o *coordinator.Options) { o.PublicPath = path }
}

// WithExclude replaces the glob patterns of output files never injected
// into pages.
func WithExclude(patterns ...string) Option {
	return func(o *coordinator.Options) { o.Exclude = patterns }
}

func WithMinify(minify bool) Option {
	return func(o *coordinator.Options) { o.Minify = minify }
}

func WithDoctype(doctype bool) Option {
	return func(o *coordinator.Options) { o.Doctype = doctype }
}

// WithManifest writes the build manifest next to the pages.
func WithManifest() Option {
	return func(o *coordinator.Options) { o.Manifest = true }
}

func WithJSX(factory, fragment string) Option {
	return func(o *coordinator.Options) {
		o.JSX = bundler.JSXOptions{Factory: factory, Fragment: fragment}
	}
}

// WithRenderModules names the element and server packages component pages
// are rendered with.
func WithRenderModules(element, server string) Option {
	return func(o *coordinator.Options) {
		o.Modules = bundler.RenderModules{Element: element, Server: server}
	}
}

// WithMarkupAttributes lists the attributes of markup entries rewritten
// into imports.
func WithMarkupAttributes(attrs ...string) Option {
	return func(o *coordinator.Options) { o.Markup = markup.Options{Attributes: attrs} }
}

// WithTimeout bounds every script execution of the plugin.
func WithTimeout(d time.Duration) Option {
	return func(o *coordinator.Options) { o.Timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *coordinator.Options) { o.Logger = logger }
}

type Plugin struct {
	coordinator *coordinator.Coordinator
}

func New(entries []Entry, opts ...Option) *Plugin {
	options := coordinator.Options{Doctype: true}
	for _, e := range entries {
		options.Entries = append(options.Entries, loader.Entry{
			Name:     e.Name,
			Source:   e.Source,
			Kind:     e.Kind,
			Output:   e.Output,
			Marker:   e.Marker,
			MountAPI: e.MountAPI,
			Props:    e.Props,
		})
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Plugin{coordinator: coordinator.New(options)}
}

// ESBuild returns the plugin to add to api.BuildOptions.Plugins.
func (p *Plugin) ESBuild() api.Plugin {
	return p.coordinator.Plugin()
}

// Pages returns the pages of the last successful build.
func (p *Plugin) Pages() []Page {
	return p.coordinator.LastReport().Pages
}

// Manifest returns the manifest of the last successful build.
func (p *Plugin) Manifest() *Manifest {
	return p.coordinator.LastReport().Manifest
}

// Err returns the error that aborted the last build's page rendering.
func (p *Plugin) Err() error {
	return p.coordinator.LastReport().Err
}
