package loader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/capture"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	paths   []string
	records []core.TemplateRecord
}

func (r *recorder) Report(path string, record core.TemplateRecord) {
	r.paths = append(r.paths, path)
	r.records = append(r.records, record)
}

func newMarkupAdapter(rec Reporter, resolve Resolver) *MarkupAdapter {
	exec := capture.NewExecutor(jsvm.NewRunner(2 * time.Second))
	return NewMarkupAdapter(exec, rec, resolve, markup.Options{})
}

func TestMarkupAdapterHTML(t *testing.T) {
	rec := &recorder{}
	resolve := func(spec, dir string) (string, error) {
		if spec == "./missing.png" {
			return "", errors.New("not found")
		}
		return filepath.Join(dir, spec), nil
	}
	adapter := newMarkupAdapter(rec, resolve)

	source := `<html><head><style src="./page.css"></style></head>` +
		`<body><img src="./missing.png"><script src="./page.js"></script><script src="./page.js"></script></body></html>`
	entry := Entry{
		Name:   "page2",
		Source: "/site/src/page2.html",
		Kind:   core.KindMarkup,
		Output: "page2.html",
		Props:  map[string]any{"title": "x"},
	}

	out, err := adapter.Load(context.Background(), entry, source)
	require.NoError(t, err)

	assert.Equal(t, "import \"./page.css\";\n"+
		"export { default as __entrykitAsset0 } from \"./missing.png\";\n"+
		"import \"./page.js\";\n", out.Contents)
	assert.Equal(t, "/site/src", out.ResolveDir)

	require.Len(t, rec.records, 1)
	assert.Equal(t, []string{"/site/src/page2.html"}, rec.paths)

	record := rec.records[0]
	assert.Equal(t, "page2.html", record.Name)
	assert.False(t, record.Template.IsSource())
	assert.Contains(t, record.Template.Text, `<style src="@./page.css@"></style>`)
	assert.Contains(t, record.Template.Text, `<script src="@./page.js@"></script>`)
	assert.Equal(t, map[string]any{"title": "x"}, record.ExtraProps)

	require.Len(t, record.Dependencies, 4)
	assert.Equal(t, core.Dependency{Specifier: "./page.css", Path: "/site/src/page.css"}, record.Dependencies[0])
	assert.Equal(t, core.Dependency{Specifier: "./missing.png"}, record.Dependencies[1])
}

func TestMarkupAdapterModule(t *testing.T) {
	rec := &recorder{}
	adapter := newMarkupAdapter(rec, nil)

	entry := Entry{Name: "page1", Source: "/site/src/page1.template.js", Kind: core.KindMarkup, Output: "page1.html"}
	out, err := adapter.Load(context.Background(), entry, `module.exports = "<script src='" + require("./page1.js") + "'></script>";`)
	require.NoError(t, err)

	assert.Equal(t, "import \"./page1.js\";\n", out.Contents)
	assert.Equal(t, "<script src='@./page1.js@'></script>", rec.records[0].Template.Text)
}

func TestMarkupAdapterError(t *testing.T) {
	rec := &recorder{}
	adapter := newMarkupAdapter(rec, nil)

	entry := Entry{Name: "bad", Source: "/site/src/bad.js", Kind: core.KindMarkup, Output: "bad.html"}
	_, err := adapter.Load(context.Background(), entry, `throw new Error("x")`)

	var extractErr *core.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "/site/src/bad.js", extractErr.Path)
	assert.Empty(t, rec.records)
}

func TestComponentAdapter(t *testing.T) {
	rec := &recorder{}
	adapter := NewComponentAdapter(rec, bundler.JSXOptions{})

	source := `import React from "react";
import { AppInjector } from "./injector";
import App from "./app";

export default function Html() {
  return (
    <html>
      <body>
        <AppInjector id="root"><App /></AppInjector>
      </body>
    </html>
  );
}
`
	entry := Entry{Name: "page3", Source: "/site/src/page3.jsx", Kind: core.KindComponent, Output: "page3.html"}
	out, err := adapter.Load(context.Background(), entry, source)
	require.NoError(t, err)

	assert.Contains(t, out.Contents, `import App from "./app";`)
	assert.Contains(t, out.Contents, `document.getElementById("root")`)
	assert.NotContains(t, out.Contents, "./injector")

	require.Len(t, rec.records, 1)
	record := rec.records[0]
	require.True(t, record.Template.IsSource())
	assert.Equal(t, "/site/src", record.Template.Source.Context)
	assert.Contains(t, record.Template.Source.Code, `import { AppInjector } from "./injector";`)
	assert.NotContains(t, record.Template.Source.Code, `"./app"`)
}

func TestComponentAdapterMissingMountPoint(t *testing.T) {
	rec := &recorder{}
	adapter := NewComponentAdapter(rec, bundler.JSXOptions{})

	entry := Entry{Name: "p", Source: "/site/src/p.jsx", Kind: core.KindComponent, Output: "p.html"}
	_, err := adapter.Load(context.Background(), entry, `export default () => <div />;`)

	assert.ErrorIs(t, err, core.ErrMountPointNotFound)
	assert.Empty(t, rec.records)
}

func TestResidualModule(t *testing.T) {
	tests := []struct {
		name string
		deps []core.Dependency
		want string
	}{
		{
			name: "code is imported for side effects",
			deps: []core.Dependency{{Specifier: "./page.js"}, {Specifier: "./page.css", Path: "/src/page.css"}},
			want: "import \"./page.js\";\nimport \"./page.css\";\n",
		},
		{
			name: "assets are re-exported",
			deps: []core.Dependency{{Specifier: "./logo.png", Path: "/src/logo.png"}, {Specifier: "./font.woff2?v=1"}},
			want: "export { default as __entrykitAsset0 } from \"./logo.png\";\n" +
				"export { default as __entrykitAsset1 } from \"./font.woff2?v=1\";\n",
		},
		{
			name: "resolved path decides the kind",
			deps: []core.Dependency{{Specifier: "./widget", Path: "/src/widget.tsx"}, {Specifier: "~icon", Path: "/src/icon.svg"}},
			want: "import \"./widget\";\nexport { default as __entrykitAsset0 } from \"~icon\";\n",
		},
		{
			name: "duplicates collapse",
			deps: []core.Dependency{{Specifier: "./a.png"}, {Specifier: "./a.png"}, {Specifier: "./a.js"}, {Specifier: "./a.js"}},
			want: "export { default as __entrykitAsset0 } from \"./a.png\";\nimport \"./a.js\";\n",
		},
		{
			name: "no dependencies",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, residualModule(tt.deps))
		})
	}
}
