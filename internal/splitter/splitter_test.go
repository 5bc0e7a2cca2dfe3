package splitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `import React from "react";
import { AppInjector, StylesInjector, ScriptsInjector } from "./wp/app-injector";
import App from "./app";
import theme from "./page3.css";
import Banner from "./banner";

const Html = ({ scripts, styles }) => React.createElement("html", null,
  React.createElement("head", null,
    React.createElement("title", null, "JSX entrypoint"),
    React.createElement(StylesInjector, { files: styles })),
  React.createElement("body", null,
    React.createElement(Banner, null),
    React.createElement(AppInjector, { id: "page3-app" },
      React.createElement(App, { style: theme })),
    React.createElement(ScriptsInjector, { files: scripts })));

export default Html;
`

func lines(code string) []string {
	return strings.Split(strings.TrimSpace(code), "\n")
}

func TestSplitPartitionsImports(t *testing.T) {
	res, err := Split("/src/page3.js", page, Options{})
	require.NoError(t, err)

	assert.Equal(t, "page3-app", res.ContainerID)
	assert.Equal(t, "/src", res.Template.Context)

	module := lines(res.Module)
	assert.Contains(t, module, `import React from "react";`)
	assert.Contains(t, module, `import App from "./app";`)
	assert.Contains(t, module, `import theme from "./page3.css";`)
	assert.Contains(t, module, `import __entryReactDOM from "react-dom";`)
	assert.Contains(t, module, `__entryReactDOM.render(__entryApp, document.getElementById("page3-app"));`)
	assert.NotContains(t, res.Module, "./banner")
	assert.NotContains(t, res.Module, "./wp/app-injector")
	assert.Equal(t, []string{"react", "./app", "./page3.css"}, res.Imports)

	template := lines(res.Template.Code)
	assert.Contains(t, template, `import React from "react";`)
	assert.Contains(t, template, `import Banner from "./banner";`)
	assert.Contains(t, template, `import { AppInjector, StylesInjector, ScriptsInjector } from "./wp/app-injector";`)
	assert.NotContains(t, res.Template.Code, "./app\"")
	assert.NotContains(t, res.Template.Code, "./page3.css")
	assert.NotContains(t, res.Template.Code, "theme")
	assert.Contains(t, res.Template.Code, "page3-app")
}

func TestSplitOnlyMountImportsMove(t *testing.T) {
	src := `import { h } from "preact";
import A from "./a";
import B from "./b";
const T = () => h("div", null, h(B, null), h(AppInjector, { id: "root" }, h(A, null)));
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import A from "./a";`)
	assert.NotContains(t, res.Module, `"./b"`)

	assert.Contains(t, res.Template.Code, `import B from "./b";`)
	assert.NotContains(t, res.Template.Code, `"./a"`)
}

func TestSplitSharedSpecifiers(t *testing.T) {
	src := `import { A, B } from "./lib";
const T = () => f(B, null, f(AppInjector, { id: "x" }, f(A, null)));
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import { A } from "./lib";`)
	assert.Contains(t, res.Template.Code, `import { B } from "./lib";`)
}

func TestSplitImportUsedInBothHalves(t *testing.T) {
	src := `import Theme from "./theme";
const T = () => f("div", { t: Theme }, f(AppInjector, { id: "x" }, f(App, { t: Theme })));
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import Theme from "./theme";`)
	assert.Contains(t, res.Template.Code, `import Theme from "./theme";`)
}

func TestSplitUnreferencedAndBareImports(t *testing.T) {
	src := `import "./global.css";
import Unused from "./unused";
const T = () => f(AppInjector, { id: "x" }, f(App, null));
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import "./global.css";`)
	assert.NotContains(t, res.Template.Code, "global.css")
	assert.NotContains(t, res.Template.Code, "./unused", "an import nothing references is dropped")
	assert.NotContains(t, res.Module, "./unused")
}

func TestSplitDropsOnlyUnusedBindings(t *testing.T) {
	src := `import Keep, { unused } from "./lib";
const T = () => f(AppInjector, { id: "x" }, f(App, null), Keep);
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Template.Code, `import Keep from "./lib";`)
	assert.NotContains(t, res.Template.Code, "unused")
}

func TestSplitFollowsLocalDeclarations(t *testing.T) {
	src := `import Store from "./store";
import View from "./view";
function makeApp() { return f(View, { store: new Store() }); }
const app = makeApp();
const T = () => f(AppInjector, { id: "x" }, app);
export default T;
`
	res, err := Split("/src/t.js", src, Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import Store from "./store";`)
	assert.Contains(t, res.Module, `import View from "./view";`)
	assert.Contains(t, res.Module, "makeApp")
	assert.NotContains(t, res.Module, "const T")

	mk := strings.Index(res.Module, "function makeApp")
	ap := strings.Index(res.Module, "makeApp()")
	assert.True(t, mk >= 0 && ap > mk, "declarations keep source order")
}

func TestSplitRootMountAPI(t *testing.T) {
	src := `const T = () => f(AppInjector, { "id": 'app' }, f(App, null));
export default T;
`
	res, err := Split("/src/t.js", src, Options{MountAPI: MountRoot})
	require.NoError(t, err)

	assert.Contains(t, res.Module, `import { createRoot as __entryCreateRoot } from "react-dom/client";`)
	assert.Contains(t, res.Module, `__entryCreateRoot(document.getElementById("app")).render(__entryApp);`)
}

func TestSplitCustomMarker(t *testing.T) {
	src := `const T = () => f(Mount, { id: "m" }, f(App, null));
export default T;
`
	res, err := Split("/src/t.js", src, Options{Marker: "Mount"})
	require.NoError(t, err)
	assert.Equal(t, "m", res.ContainerID)
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "no mount point",
			src:  `export default () => f("div", null);`,
			want: core.ErrMountPointNotFound,
		},
		{
			name: "two mount points",
			src: `export default () => f("div", null,
  f(AppInjector, { id: "a" }, f(A, null)),
  f(AppInjector, { id: "b" }, f(B, null)));`,
			want: core.ErrMultipleMountPoints,
		},
		{
			name: "id is not a literal",
			src:  `const id = "a"; export default () => f(AppInjector, { id }, f(A, null));`,
			want: core.ErrMalformedContainerID,
		},
		{
			name: "no props",
			src:  `export default () => f(AppInjector);`,
			want: core.ErrMalformedContainerID,
		},
		{
			name: "no child",
			src:  `export default () => f(AppInjector, { id: "a" });`,
			want: core.ErrMountPointChildren,
		},
		{
			name: "two children",
			src:  `export default () => f(AppInjector, { id: "a" }, f(A, null), f(B, null));`,
			want: core.ErrMountPointChildren,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("/src/bad.js", tt.src, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var extractErr *core.ExtractionError
			require.ErrorAs(t, err, &extractErr)
			assert.Equal(t, "/src/bad.js", extractErr.Path)
		})
	}
}

func TestSplitSyntaxError(t *testing.T) {
	_, err := Split("/src/bad.js", `const = ;`, Options{})
	var extractErr *core.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, core.PhaseExtraction, extractErr.Phase())
}

func TestParseMountAPI(t *testing.T) {
	api, err := ParseMountAPI("")
	require.NoError(t, err)
	assert.Equal(t, MountLegacy, api)

	api, err = ParseMountAPI("ROOT")
	require.NoError(t, err)
	assert.Equal(t, MountRoot, api)

	_, err = ParseMountAPI("hydrate")
	assert.Error(t, err)
}
