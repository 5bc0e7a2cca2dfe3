package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/goccy/go-json"
)

const (
	RenderGlobal = "__entrykit"

	templateNamespace = "entrykit-template"
	templateSpecifier = "entrykit:template"

	DefaultElementModule = "react"
	DefaultServerModule  = "react-dom/server"
)

// RenderModules names the packages the render shim imports. They resolve
// from the template's own directory.
type RenderModules struct {
	Element string
	Server  string
}

func (m RenderModules) withDefaults() RenderModules {
	if m.Element == "" {
		m.Element = DefaultElementModule
	}
	if m.Server == "" {
		m.Server = DefaultServerModule
	}
	return m
}

type RenderBundleInput struct {
	Name       string
	Code       string
	ResolveDir string
	Modules    RenderModules
	JSX        JSXOptions
	Minify     bool
}

func renderShim(mods RenderModules) string {
	return fmt.Sprintf(`import * as template from %q;
import { createElement } from %q;
import { renderToStaticMarkup } from %q;

const Template = template.default;

export function render(propsJSON) {
  return renderToStaticMarkup(createElement(Template, JSON.parse(propsJSON)));
}
`, templateSpecifier, mods.Element, mods.Server)
}

// RenderBundle is a compiled render script and the files it was built from.
type RenderBundle struct {
	Script string
	// Inputs are the absolute paths of every file bundled into Script.
	Inputs []string
}

// BundleRenderScript bundles a component template with the static markup
// renderer into a single IIFE exposing RenderGlobal.render(propsJSON).
func BundleRenderScript(in RenderBundleInput) (RenderBundle, error) {
	mods := in.Modules.withDefaults()
	jsx := in.JSX.withDefaults()

	templatePlugin := api.Plugin{
		Name: "entrykit-template",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^entrykit:template$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: in.Name, Namespace: templateNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: templateNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					code := in.Code
					return api.OnLoadResult{
						Contents:   &code,
						ResolveDir: in.ResolveDir,
						Loader:     api.LoaderJSX,
					}, nil
				})
		},
	}

	workDir := ""
	if filepath.IsAbs(in.ResolveDir) {
		workDir = in.ResolveDir
	}

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: workDir,
		Stdin: &api.StdinOptions{
			Contents:   renderShim(mods),
			ResolveDir: in.ResolveDir,
			Sourcefile: "entrykit-render.js",
			Loader:     api.LoaderJS,
		},
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		Format:            api.FormatIIFE,
		GlobalName:        RenderGlobal,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		JSX:               api.JSXTransform,
		JSXFactory:        jsx.Factory,
		JSXFragment:       jsx.Fragment,
		MinifyWhitespace:  in.Minify,
		MinifySyntax:      in.Minify,
		MinifyIdentifiers: in.Minify,
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
		Plugins:  []api.Plugin{templatePlugin},
		LogLevel: api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return RenderBundle{}, fmt.Errorf("failed to bundle render script for %s: %w", in.Name, MessagesError(result.Errors))
	}
	if len(result.OutputFiles) == 0 {
		return RenderBundle{}, fmt.Errorf("failed to bundle render script for %s: no output", in.Name)
	}

	base := workDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return RenderBundle{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	inputs, err := metafileInputs(result.Metafile, base)
	if err != nil {
		return RenderBundle{}, fmt.Errorf("failed to read render metafile for %s: %w", in.Name, err)
	}
	return RenderBundle{Script: string(result.OutputFiles[0].Contents), Inputs: inputs}, nil
}

// metafileInputs lists the on-disk inputs of a build. Inputs from stdin
// and the template namespace are not files.
func metafileInputs(metafile, workDir string) ([]string, error) {
	var meta struct {
		Inputs map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil, err
	}

	inputs := make([]string, 0, len(meta.Inputs))
	for name := range meta.Inputs {
		if name == "<stdin>" || strings.HasPrefix(name, templateNamespace+":") {
			continue
		}
		name = strings.TrimPrefix(name, "file:")
		path := filepath.FromSlash(name)
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		inputs = append(inputs, path)
	}
	sort.Strings(inputs)
	return inputs, nil
}

// RenderCall is the expression that renders a bundled template with the
// given JSON-encoded props.
func RenderCall(propsJSON string) (string, error) {
	lit, err := json.Marshal(propsJSON)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.render(%s)", RenderGlobal, lit), nil
}
