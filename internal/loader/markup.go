package loader

import (
	"context"

	"github.com/3-lines-studio/entrykit/internal/capture"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/3-lines-studio/entrykit/internal/jsast"
	"github.com/3-lines-studio/entrykit/internal/markup"
)

// MarkupAdapter captures a placeholder template by evaluating the entry with
// its imports replaced by tokens. The residual module imports every captured
// dependency so the bundler still emits them.
type MarkupAdapter struct {
	exec     *capture.Executor
	reporter Reporter
	resolve  Resolver
	markup   markup.Options
}

func NewMarkupAdapter(exec *capture.Executor, reporter Reporter, resolve Resolver, opts markup.Options) *MarkupAdapter {
	return &MarkupAdapter{exec: exec, reporter: reporter, resolve: resolve, markup: opts}
}

func (a *MarkupAdapter) Load(ctx context.Context, entry Entry, source string) (Output, error) {
	logger := ctxlog.FromContext(ctx).With("entry", entry.Name, "module", entry.Source)

	decision := core.DecideBuildEntry(core.BuildDecisionInput{Kind: entry.Kind, SourcePath: entry.Source})
	if decision.Preprocess {
		converted, err := markup.Preprocess(source, a.markup)
		if err != nil {
			return Output{}, asExtractionError(entry.Source, "failed to preprocess markup", err)
		}
		source = converted
	}

	res, err := a.exec.Capture(ctx, entry.Source, source)
	if err != nil {
		return Output{}, asExtractionError(entry.Source, "failed to capture template", err)
	}

	dir := resolveDir(entry.Source)
	deps := make([]core.Dependency, 0, len(res.Dependencies))
	for _, spec := range res.Dependencies {
		dep := core.Dependency{Specifier: spec}
		if a.resolve != nil {
			path, err := a.resolve(spec, dir)
			if err != nil {
				logger.Debug("dependency not resolved", "specifier", spec, "error", err)
			} else {
				dep.Path = path
			}
		}
		deps = append(deps, dep)
	}

	a.reporter.Report(entry.Source, core.TemplateRecord{
		Name:         entry.Output,
		Template:     core.TextTemplate(res.Exports),
		ExtraProps:   entry.Props,
		Dependencies: deps,
	})
	logger.Debug("extracted markup template", "dependencies", len(deps))

	return Output{Contents: residualModule(deps), ResolveDir: dir}, nil
}

func quote(s string) string {
	return jsast.Quote(s)
}
