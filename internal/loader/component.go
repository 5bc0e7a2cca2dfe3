package loader

import (
	"context"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/3-lines-studio/entrykit/internal/splitter"
)

// ComponentAdapter splits a component entry at its mount point. The
// template source is reported for build-time rendering and the interactive
// module replaces the entry.
type ComponentAdapter struct {
	reporter Reporter
	jsx      bundler.JSXOptions
}

func NewComponentAdapter(reporter Reporter, jsx bundler.JSXOptions) *ComponentAdapter {
	return &ComponentAdapter{reporter: reporter, jsx: jsx}
}

func (a *ComponentAdapter) Load(ctx context.Context, entry Entry, source string) (Output, error) {
	code, err := bundler.TransformJSX(source, entry.Source, a.jsx)
	if err != nil {
		return Output{}, asExtractionError(entry.Source, "failed to transform jsx", err)
	}

	res, err := splitter.Split(entry.Source, code, splitter.Options{
		Marker:   entry.Marker,
		MountAPI: entry.MountAPI,
	})
	if err != nil {
		return Output{}, asExtractionError(entry.Source, "failed to split module", err)
	}

	a.reporter.Report(entry.Source, core.TemplateRecord{
		Name:       entry.Output,
		Template:   core.SourceTemplate(res.Template.Code, res.Template.Context),
		ExtraProps: entry.Props,
	})
	ctxlog.FromContext(ctx).Debug("split component entry",
		"entry", entry.Name,
		"module", entry.Source,
		"container", res.ContainerID,
		"imports", len(res.Imports),
	)

	return Output{Contents: res.Module, ResolveDir: resolveDir(entry.Source)}, nil
}
