// Command example builds the pages under src/ through the esbuild API with
// the entrykit plugin. Run `npm install` first.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/3-lines-studio/entrykit"
	"github.com/evanw/esbuild/pkg/api"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working directory: %v", err)
	}

	production := os.Getenv("ENTRYKIT_ENV") == "production"
	nodeEnv := "development"
	if production {
		nodeEnv = "production"
	}

	plugin := entrykit.New([]entrykit.Entry{
		{Name: "page1", Source: "src/page1.js"},
		{Name: "page2", Source: "src/page2.html", Kind: entrykit.KindMarkup, Output: "page2.html"},
		{
			Name:   "page3",
			Source: "src/page3.jsx",
			Kind:   entrykit.KindComponent,
			Output: "page3.html",
			Props:  map[string]any{"title": "JSX entrypoint"},
		},
	},
		entrykit.WithPublicPath("/test/"),
		entrykit.WithMinify(production),
		entrykit.WithManifest(),
		entrykit.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	)

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:     wd,
		EntryPoints:       []string{"src/page1.js", "src/page2.html", "src/page3.jsx"},
		Outdir:            filepath.Join(wd, "build", "pkg"),
		EntryNames:        "[name]-[hash]",
		ChunkNames:        "chunks/[name]-[hash]",
		Bundle:            true,
		Write:             true,
		Format:            api.FormatESModule,
		Splitting:         true,
		JSX:               api.JSXTransform,
		Loader:            map[string]api.Loader{".jsx": api.LoaderJSX},
		MinifyWhitespace:  production,
		MinifySyntax:      production,
		MinifyIdentifiers: production,
		Define:            map[string]string{"process.env.NODE_ENV": fmt.Sprintf("%q", nodeEnv)},
		LogLevel:          api.LogLevelInfo,
		Plugins:           []api.Plugin{plugin.ESBuild()},
	})
	if len(result.Errors) > 0 {
		os.Exit(1)
	}

	for _, page := range plugin.Pages() {
		fmt.Printf("%s -> %s\n", page.Entry, page.Path)
	}
}
