package core

import "context"

// Renderer produces the final HTML of one entry from its render props.
type Renderer interface {
	Render(ctx context.Context, props map[string]any) (string, error)
}

type RendererFunc func(ctx context.Context, props map[string]any) (string, error)

func (f RendererFunc) Render(ctx context.Context, props map[string]any) (string, error) {
	return f(ctx, props)
}
