package render

import (
	"context"
	"fmt"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/goccy/go-json"
)

// Sandbox renders a component template by bundling it with the static
// markup renderer and running the bundle in a fresh isolate.
type Sandbox struct {
	name     string
	source   core.TemplateSource
	compiler *Compiler
	runner   *jsvm.Runner
}

func (s *Sandbox) Render(ctx context.Context, props map[string]any) (string, error) {
	script, err := s.compiler.Compile(ctx, s.name, s.source)
	if err != nil {
		return "", err
	}

	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode props: %w", err)
	}
	call, err := bundler.RenderCall(string(propsJSON))
	if err != nil {
		return "", fmt.Errorf("failed to encode props: %w", err)
	}

	return s.runner.Run(ctx, jsvm.Program{
		Name:    s.name,
		Scripts: []string{script},
		Result:  call,
	})
}
