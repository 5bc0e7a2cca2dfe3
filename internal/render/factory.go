// Package render holds the two page render strategies: placeholder
// substitution for captured markup and sandboxed static rendering for
// component templates.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

const doctype = "<!DOCTYPE html>"

type Options struct {
	// ModuleScripts emits script tags with type="module".
	ModuleScripts bool
	Minify        bool
	Doctype       bool
}

// Factory picks the render strategy for a record based on the extractor
// that produced its template.
type Factory struct {
	opts     Options
	compiler *Compiler
	runner   *jsvm.Runner
	minifier *minify.M
}

func NewFactory(opts Options, compiler *Compiler, runner *jsvm.Runner) *Factory {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return &Factory{opts: opts, compiler: compiler, runner: runner, minifier: m}
}

// For returns the renderer for record. urls maps captured specifiers to
// public URLs of their emitted files.
func (f *Factory) For(record core.TemplateRecord, urls map[string]string) core.Renderer {
	if record.Template.IsSource() {
		return &Sandbox{name: record.Name, source: *record.Template.Source, compiler: f.compiler, runner: f.runner}
	}
	return NewStatic(record.Name, record.Template.Text, record.Dependencies, urls, f.opts.ModuleScripts)
}

// Page renders record with its props and applies the page post-processing.
func (f *Factory) Page(ctx context.Context, record core.TemplateRecord, assets core.EntryAssets, urls map[string]string) (string, error) {
	out, err := f.For(record, urls).Render(ctx, record.Props(assets))
	if err != nil {
		return "", err
	}
	return f.Finalize(out, record.Template.IsSource())
}

func (f *Factory) Finalize(page string, rendered bool) (string, error) {
	if rendered && f.opts.Doctype && strings.HasPrefix(strings.TrimSpace(strings.ToLower(page)), "<html") {
		page = doctype + page
	}
	if !f.opts.Minify {
		return page, nil
	}

	var buf bytes.Buffer
	if err := f.minifier.Minify("text/html", &buf, strings.NewReader(page)); err != nil {
		return "", fmt.Errorf("failed to minify page: %w", err)
	}
	return buf.String(), nil
}
