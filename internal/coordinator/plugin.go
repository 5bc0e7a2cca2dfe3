// Package coordinator is the esbuild plugin that runs the entry adapters
// while modules load and renders every entry's page once the bundler has
// produced its output files.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/fs"
	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/capture"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/3-lines-studio/entrykit/internal/loader"
	"github.com/3-lines-studio/entrykit/internal/markup"
	"github.com/3-lines-studio/entrykit/internal/render"
	"github.com/evanw/esbuild/pkg/api"
)

const PluginName = "entrykit"

var DefaultExclude = []string{"**/*.map"}

type Options struct {
	// Entries lists the kinded entries. Sources are resolved against the
	// build's working directory when relative.
	Entries    []loader.Entry
	PublicPath string
	Exclude    []string
	Minify     bool
	// Doctype prefixes rendered component pages with <!DOCTYPE html>.
	Doctype bool
	// Manifest writes ManifestFile into the outdir.
	Manifest bool

	JSX     bundler.JSXOptions
	Modules bundler.RenderModules
	Markup  markup.Options

	Timeout    time.Duration
	Logger     *slog.Logger
	FileSystem fs.FileSystem
}

// Page is one rendered entry page.
type Page struct {
	Entry  string
	Path   string
	Assets core.EntryAssets
	HTML   string
}

// Report describes the last sealing pass.
type Report struct {
	Pages    []Page
	Manifest *core.Manifest
	Err      error
	// TemplateInputs are project files imported only by component
	// templates. esbuild does not see them, so watchers track them apart.
	TemplateInputs []string
}

type Coordinator struct {
	opts     Options
	registry *Registry
	runner   *jsvm.Runner
	compiler *render.Compiler
	exec     *capture.Executor
	fs       fs.FileSystem

	mu   sync.Mutex
	last Report
}

func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Exclude == nil {
		opts.Exclude = DefaultExclude
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.NewOSFileSystem()
	}
	runner := jsvm.NewRunner(opts.Timeout)
	return &Coordinator{
		opts:     opts,
		registry: NewRegistry(),
		runner:   runner,
		exec:     capture.NewExecutor(runner),
		compiler: render.NewCompiler(render.CompilerOptions{
			Modules:    opts.Modules,
			JSX:        opts.JSX,
			Minify:     opts.Minify,
			FileSystem: opts.FileSystem,
		}),
		fs: opts.FileSystem,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// LastReport returns the outcome of the most recent build.
func (c *Coordinator) LastReport() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Coordinator) setReport(r Report) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}

// buildEnv is what the plugin learns from the host build's options.
type buildEnv struct {
	workDir string
	outdir  string
	write   bool
	factory *render.Factory
}

func (c *Coordinator) Plugin() api.Plugin {
	return api.Plugin{Name: PluginName, Setup: c.setup}
}

func (c *Coordinator) setup(build api.PluginBuild) {
	build.InitialOptions.Metafile = true

	env, err := c.environment(build.InitialOptions)
	if err != nil {
		build.OnStart(func() (api.OnStartResult, error) {
			return api.OnStartResult{}, err
		})
		return
	}

	ctx := ctxlog.WithLogger(context.Background(), c.opts.Logger)

	build.OnStart(func() (api.OnStartResult, error) {
		c.registry.Reset()
		return api.OnStartResult{}, nil
	})

	resolve := func(spec, dir string) (string, error) {
		res := build.Resolve(spec, api.ResolveOptions{ResolveDir: dir, Kind: api.ResolveJSImportStatement})
		if len(res.Errors) > 0 {
			return "", bundler.MessagesError(res.Errors)
		}
		return res.Path, nil
	}
	markupAdapter := loader.NewMarkupAdapter(c.exec, c.registry, resolve, c.opts.Markup)
	componentAdapter := loader.NewComponentAdapter(c.registry, c.opts.JSX)

	for _, entry := range c.opts.Entries {
		if !core.ShouldExtract(entry.Kind) {
			continue
		}
		entry := entry
		if !filepath.IsAbs(entry.Source) {
			entry.Source = filepath.Join(env.workDir, entry.Source)
		}
		if entry.Output == "" {
			entry.Output = core.DefaultOutputName(entry.Name)
		}

		var adapter loader.Adapter = markupAdapter
		if entry.Kind == core.KindComponent {
			adapter = componentAdapter
		}

		filter := "^" + regexp.QuoteMeta(entry.Source) + "$"
		build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			source, err := c.fs.ReadFile(args.Path)
			if err != nil {
				return api.OnLoadResult{}, fmt.Errorf("failed to read entry %s: %w", entry.Name, err)
			}
			out, err := adapter.Load(ctx, entry, string(source))
			if err != nil {
				return api.OnLoadResult{Errors: []api.Message{errorMessage(err)}}, nil
			}
			return api.OnLoadResult{
				Contents:   &out.Contents,
				ResolveDir: out.ResolveDir,
				Loader:     api.LoaderJS,
			}, nil
		})
	}

	build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
		if len(result.Errors) > 0 {
			c.registry.Reset()
			c.setReport(Report{TemplateInputs: c.compiler.Inputs()})
			return api.OnEndResult{}, nil
		}
		report := c.seal(ctx, env, result)
		report.TemplateInputs = c.compiler.Inputs()
		c.setReport(report)
		if report.Err != nil {
			return api.OnEndResult{Errors: []api.Message{errorMessage(report.Err)}}, nil
		}
		return api.OnEndResult{}, nil
	})
}

func (c *Coordinator) environment(opts *api.BuildOptions) (buildEnv, error) {
	workDir := opts.AbsWorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return buildEnv{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	outdir := opts.Outdir
	if outdir == "" && opts.Outfile != "" {
		outdir = filepath.Dir(opts.Outfile)
	}
	if outdir == "" {
		return buildEnv{}, errors.New("entrykit needs an outdir to place pages in")
	}
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(workDir, outdir)
	}

	factory := render.NewFactory(render.Options{
		ModuleScripts: opts.Format == api.FormatESModule,
		Minify:        c.opts.Minify,
		Doctype:       c.opts.Doctype,
	}, c.compiler, c.runner)

	return buildEnv{workDir: workDir, outdir: outdir, write: opts.Write, factory: factory}, nil
}

func errorMessage(err error) api.Message {
	msg := api.Message{Text: err.Error(), Detail: err}
	var extractErr *core.ExtractionError
	if errors.As(err, &extractErr) {
		msg.Location = &api.Location{File: extractErr.Path}
	}
	return msg
}
