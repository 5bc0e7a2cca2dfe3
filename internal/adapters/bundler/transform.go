// Package bundler wraps the esbuild API calls made outside of the host
// build: per-module transforms and the sandbox render bundle.
package bundler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	DefaultJSXFactory  = "React.createElement"
	DefaultJSXFragment = "React.Fragment"
)

type JSXOptions struct {
	Factory  string
	Fragment string
}

func (o JSXOptions) withDefaults() JSXOptions {
	if o.Factory == "" {
		o.Factory = DefaultJSXFactory
	}
	if o.Fragment == "" {
		o.Fragment = DefaultJSXFragment
	}
	return o
}

// TransformJSX lowers JSX (and TypeScript, by extension) to plain
// JavaScript while keeping ES module syntax intact.
func TransformJSX(source, path string, opts JSXOptions) (string, error) {
	opts = opts.withDefaults()

	result := api.Transform(source, api.TransformOptions{
		Loader:      loaderForPath(path),
		Format:      api.FormatDefault,
		Target:      api.ESNext,
		JSX:         api.JSXTransform,
		JSXFactory:  opts.Factory,
		JSXFragment: opts.Fragment,
		Sourcefile:  path,
		LogLevel:    api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", MessagesError(result.Errors)
	}
	return string(result.Code), nil
}

// ToCommonJS rewrites an ES module into CommonJS so that its imports become
// require calls.
func ToCommonJS(source, path string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     loaderForPath(path),
		Format:     api.FormatCommonJS,
		Target:     api.ES2020,
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", MessagesError(result.Errors)
	}
	return string(result.Code), nil
}

func loaderForPath(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return api.LoaderTSX
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".js", ".mjs", ".cjs", ".jsx":
		return api.LoaderJSX
	}
	return api.LoaderJSX
}

// MessagesError folds esbuild messages into one error.
func MessagesError(msgs []api.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(msgs))
	for _, msg := range msgs {
		errs = append(errs, errors.New(FormatMessage(msg)))
	}
	return errors.Join(errs...)
}

func FormatMessage(msg api.Message) string {
	text := msg.Text
	if msg.PluginName != "" {
		text = fmt.Sprintf("[plugin %s] %s", msg.PluginName, text)
	}
	if msg.Location == nil {
		return text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, text)
}
