package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"
)

type job struct {
	entry  string
	record core.TemplateRecord
	assets core.EntryAssets
	urls   map[string]string
}

// seal renders the page of every entry that has a template record and adds
// the pages to result. Pages are only emitted when every entry rendered.
func (c *Coordinator) seal(ctx context.Context, env buildEnv, result *api.BuildResult) Report {
	logger := ctxlog.FromContext(ctx)
	defer c.registry.Reset()

	meta, err := ParseMetafile(result.Metafile)
	if err != nil {
		return Report{Err: fmt.Errorf("failed to parse metafile: %w", err)}
	}

	jobs, err := c.collectJobs(ctx, env, meta)
	if err != nil {
		return Report{Err: err}
	}

	pages := make([]Page, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			html, err := env.factory.Page(gctx, j.record, j.assets, j.urls)
			if err != nil {
				return core.NewRenderError(j.entry, err)
			}
			pages[i] = Page{
				Entry:  j.entry,
				Path:   filepath.Join(env.outdir, filepath.FromSlash(j.record.Name)),
				Assets: j.assets,
				HTML:   html,
			}
			logger.Debug("sealed entry", "entry", j.entry, "scripts", j.assets.Scripts, "styles", j.assets.Styles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{Err: err}
	}

	manifest := core.NewManifest()
	for _, p := range pages {
		manifest.Set(p.Entry, p.relName(env.outdir), p.Assets)
	}

	existing := make(map[string]struct{}, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		existing[f.Path] = struct{}{}
	}
	for _, p := range pages {
		if _, clash := existing[p.Path]; clash {
			logger.Warn("page overwrites a bundler output", "entry", p.Entry, "path", p.Path)
		}
		result.OutputFiles = append(result.OutputFiles, api.OutputFile{
			Path:     p.Path,
			Contents: []byte(p.HTML),
			Hash:     core.HashContent(p.HTML),
		})
	}

	if c.opts.Manifest && len(pages) > 0 {
		data, err := manifest.Marshal()
		if err != nil {
			return Report{Err: fmt.Errorf("failed to encode manifest: %w", err)}
		}
		path := filepath.Join(env.outdir, core.ManifestFile)
		result.OutputFiles = append(result.OutputFiles, api.OutputFile{Path: path, Contents: data, Hash: core.HashContent(string(data))})
	}

	if env.write {
		if err := c.writeOutputs(env, pages, manifest); err != nil {
			return Report{Err: err}
		}
	}

	return Report{Pages: pages, Manifest: manifest}
}

func (p Page) relName(outdir string) string {
	rel, err := filepath.Rel(outdir, p.Path)
	if err != nil {
		return filepath.ToSlash(p.Path)
	}
	return filepath.ToSlash(rel)
}

func (c *Coordinator) collectJobs(ctx context.Context, env buildEnv, meta *Metafile) ([]job, error) {
	logger := ctxlog.FromContext(ctx)

	allowed, err := c.allowedFiles(env, meta)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(c.opts.Entries))
	for _, e := range c.opts.Entries {
		src := e.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(env.workDir, src)
		}
		names[src] = e.Name
	}

	var jobs []job
	seenNames := make(map[string]string)
	for _, out := range meta.EntryOutputs() {
		entryPoint := meta.Outputs[out].EntryPoint
		modulePath, record, ok := c.lookup(env, meta, entryPoint)
		if !ok {
			continue
		}

		entry := names[modulePath]
		if entry == "" {
			entry = core.EntryNameForPath(entryPoint)
		}
		if err := core.ValidateOutputName(record.Name); err != nil {
			return nil, core.NewRenderError(entry, err)
		}
		if prev, dup := seenNames[record.Name]; dup {
			return nil, core.NewRenderError(entry, fmt.Errorf("output %s is already written by entry %s", record.Name, prev))
		}
		seenNames[record.Name] = entry

		var files []string
		for _, f := range meta.EntryFiles(out) {
			rel, err := core.OutputRelPath(env.workDir, env.outdir, f)
			if err != nil {
				return nil, core.NewRenderError(entry, err)
			}
			files = append(files, rel)
		}
		assets := core.ResolveEntryAssets(files, allowed).WithPublicPath(c.opts.PublicPath)

		jobs = append(jobs, job{
			entry:  entry,
			record: record,
			assets: assets,
			urls:   c.tokenURLs(env, meta, record),
		})
	}

	logger.Debug("collected entries", "entries", len(jobs), "unclaimed", c.registry.Len())
	return jobs, nil
}

// lookup finds the record attached to an entry point's module, or to one
// of the modules it imports directly.
func (c *Coordinator) lookup(env buildEnv, meta *Metafile, entryPoint string) (string, core.TemplateRecord, bool) {
	path := absPath(env.workDir, entryPoint)
	if record, ok := c.registry.Take(path); ok {
		return path, record, true
	}
	for _, imp := range meta.Inputs[entryPoint].Imports {
		if imp.External {
			continue
		}
		dep := absPath(env.workDir, imp.Path)
		if record, ok := c.registry.Take(dep); ok {
			return dep, record, true
		}
	}
	return "", core.TemplateRecord{}, false
}

func (c *Coordinator) allowedFiles(env buildEnv, meta *Metafile) ([]string, error) {
	var allowed []string
	for out := range meta.Outputs {
		rel, err := core.OutputRelPath(env.workDir, env.outdir, out)
		if err != nil {
			continue
		}
		excluded := false
		for _, pattern := range c.opts.Exclude {
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
			}
			if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			allowed = append(allowed, rel)
		}
	}
	return allowed, nil
}

func (c *Coordinator) tokenURLs(env buildEnv, meta *Metafile, record core.TemplateRecord) map[string]string {
	if record.Template.IsSource() || len(record.Dependencies) == 0 {
		return nil
	}
	urls := make(map[string]string)
	for _, dep := range record.Dependencies {
		if dep.Path == "" {
			continue
		}
		input, err := filepath.Rel(env.workDir, dep.Path)
		if err != nil {
			continue
		}
		out, ok := meta.EmittedFor(filepath.ToSlash(input))
		if !ok {
			continue
		}
		rel, err := core.OutputRelPath(env.workDir, env.outdir, out)
		if err != nil {
			continue
		}
		urls[dep.Specifier] = core.PublicURL(c.opts.PublicPath, rel)
	}
	return urls
}

func (c *Coordinator) writeOutputs(env buildEnv, pages []Page, manifest *core.Manifest) error {
	for _, p := range pages {
		if err := c.fs.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p.Entry, err)
		}
		if err := c.fs.WriteFile(p.Path, []byte(p.HTML), 0o644); err != nil {
			return fmt.Errorf("failed to write page for %s: %w", p.Entry, err)
		}
	}
	if !c.opts.Manifest || len(pages) == 0 {
		return nil
	}
	data, err := manifest.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return c.fs.WriteFile(filepath.Join(env.outdir, core.ManifestFile), data, 0o644)
}

func absPath(workDir, p string) string {
	if strings.HasPrefix(p, "file:") {
		p = strings.TrimPrefix(p, "file:")
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir, filepath.FromSlash(p))
}
