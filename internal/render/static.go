package render

import (
	"context"
	"fmt"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
)

// Static renders a placeholder template by textual substitution.
type Static struct {
	name   string
	text   string
	deps   []core.Dependency
	urls   map[string]string
	module bool
}

// NewStatic builds a placeholder renderer. urls maps dependency specifiers
// to the public URL of the file the bundler emitted for them.
func NewStatic(name, text string, deps []core.Dependency, urls map[string]string, module bool) *Static {
	return &Static{name: name, text: text, deps: deps, urls: urls, module: module}
}

func (s *Static) Render(ctx context.Context, props map[string]any) (string, error) {
	if err := core.ValidatePlaceholders(s.text, s.deps); err != nil {
		return "", err
	}

	assets := core.EntryAssets{
		Scripts: stringList(props["scripts"]),
		Styles:  stringList(props["styles"]),
	}
	out := core.InjectAssets(s.text, assets, s.module)
	out = core.ReplaceTokens(out, s.urls)

	if left := core.RemainingTokens(out, s.deps); len(left) > 0 {
		ctxlog.FromContext(ctx).Warn("unresolved placeholders left in page", "entry", s.name, "tokens", left)
	}
	return out, nil
}

func stringList(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
