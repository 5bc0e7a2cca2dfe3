package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fakeReact writes minimal react and react-dom/server packages so render
// bundles build without node_modules from npm.
func fakeReact(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "react", "index.js"),
		`export function createElement(type, props) { return { type, props: props || {} }; }
export default { createElement };
`)
	writeFile(t, filepath.Join(dir, "node_modules", "react-dom", "server.js"),
		`export function renderToStaticMarkup(el) { return el.type(el.props); }
`)
	return dir
}

func TestStaticRender(t *testing.T) {
	deps := []core.Dependency{{Specifier: "./page.js"}, {Specifier: "./page.css"}, {Specifier: "./logo.png"}}
	s := NewStatic("page", `<style src="@./page.css@"></style><img src="@./logo.png@"><script src="@./page.js@"></script>`,
		deps, map[string]string{"./logo.png": "/logo-1.png"}, false)

	got, err := s.Render(context.Background(), map[string]any{
		"scripts": []string{"/a.js", "/b.js"},
		"styles":  []any{"/a.css"},
	})
	require.NoError(t, err)

	assert.Equal(t, `<link rel="stylesheet" href="/a.css"><img src="/logo-1.png"><script src="/a.js"></script>`+"\n"+`<script src="/b.js"></script>`, got)
}

func TestStaticRenderUnknownPlaceholder(t *testing.T) {
	s := NewStatic("page", `<script src="@./other.js@"></script>`, []core.Dependency{{Specifier: "./page.js"}}, nil, false)

	_, err := s.Render(context.Background(), map[string]any{})
	assert.True(t, errors.Is(err, core.ErrUnknownPlaceholder))
}

func TestFactorySelectsStrategy(t *testing.T) {
	f := NewFactory(Options{}, NewCompiler(CompilerOptions{}), jsvm.NewRunner(time.Second))

	_, isStatic := f.For(core.TemplateRecord{Template: core.TextTemplate("x")}, nil).(*Static)
	assert.True(t, isStatic)

	_, isSandbox := f.For(core.TemplateRecord{Template: core.SourceTemplate("x", "/")}, nil).(*Sandbox)
	assert.True(t, isSandbox)
}

func TestFinalize(t *testing.T) {
	f := NewFactory(Options{Doctype: true}, NewCompiler(CompilerOptions{}), jsvm.NewRunner(time.Second))

	got, err := f.Finalize("<html><body></body></html>", true)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html><body></body></html>", got)

	got, err = f.Finalize("<html></html>", false)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", got)

	min := NewFactory(Options{Minify: true}, NewCompiler(CompilerOptions{}), jsvm.NewRunner(time.Second))
	got, err = min.Finalize("<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>", false)
	require.NoError(t, err)
	assert.NotContains(t, got, "\n  ")
	assert.Contains(t, got, "<p>hi")
}

func TestSandboxPage(t *testing.T) {
	dir := fakeReact(t)
	compiler := NewCompiler(CompilerOptions{})
	f := NewFactory(Options{Doctype: true}, compiler, jsvm.NewRunner(5*time.Second))

	record := core.TemplateRecord{
		Name: "page3.html",
		Template: core.SourceTemplate(`export default function Html(props) {
  return "<html><body>" + props.title + ":" + props.scripts.join(",") + ":" + props.styles.length + "</body></html>";
}
`, dir),
		ExtraProps: map[string]any{"title": "Page 3"},
	}

	got, err := f.Page(context.Background(), record, core.EntryAssets{Scripts: []string{"/a.js", "/b.js"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html><body>Page 3:/a.js,/b.js:0</body></html>", got)

	_, err = f.Page(context.Background(), record, core.EntryAssets{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, compiler.cache.len(), "second render reuses the compiled bundle")
}

func TestSandboxRenderError(t *testing.T) {
	dir := fakeReact(t)
	f := NewFactory(Options{}, NewCompiler(CompilerOptions{}), jsvm.NewRunner(5*time.Second))

	record := core.TemplateRecord{
		Name:     "broken.html",
		Template: core.SourceTemplate(`export default function Html() { throw new Error("kaput"); }`, dir),
	}
	_, err := f.Page(context.Background(), record, core.EntryAssets{}, nil)

	var scriptErr *jsvm.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Contains(t, scriptErr.Message, "kaput")
}

func TestSandboxMissingModule(t *testing.T) {
	f := NewFactory(Options{}, NewCompiler(CompilerOptions{}), jsvm.NewRunner(5*time.Second))

	record := core.TemplateRecord{
		Name:     "nomods.html",
		Template: core.SourceTemplate(`export default () => "x";`, t.TempDir()),
	}
	_, err := f.Page(context.Background(), record, core.EntryAssets{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "react")
}

func TestSandboxRendersChangedImports(t *testing.T) {
	dir := fakeReact(t)
	writeFile(t, filepath.Join(dir, "title.js"), `export const title = "old";`)

	compiler := NewCompiler(CompilerOptions{})
	f := NewFactory(Options{}, compiler, jsvm.NewRunner(5*time.Second))
	record := core.TemplateRecord{
		Name: "page.html",
		Template: core.SourceTemplate(`import { title } from "./title.js";
export default function Html() { return "<html>" + title + "</html>"; }
`, dir),
	}

	got, err := f.Page(context.Background(), record, core.EntryAssets{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<html>old</html>", got)

	writeFile(t, filepath.Join(dir, "title.js"), `export const title = "new";`)
	got, err = f.Page(context.Background(), record, core.EntryAssets{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<html>new</html>", got, "an edited import invalidates the cached bundle")
	assert.Equal(t, 1, compiler.cache.len())

	assert.Equal(t, []string{filepath.Join(dir, "title.js")}, compiler.Inputs(), "installed packages are not template inputs")
}
