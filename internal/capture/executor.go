// Package capture extracts a markup template from a module by evaluating it
// with every import replaced by a placeholder token.
package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/3-lines-studio/entrykit/internal/adapters/bundler"
	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
)

// Result is the captured template. Dependencies keeps every require call in
// order, duplicates included.
type Result struct {
	Dependencies []string
	Exports      string
}

type Executor struct {
	runner *jsvm.Runner
}

func NewExecutor(runner *jsvm.Runner) *Executor {
	return &Executor{runner: runner}
}

const moduleScope = "var module = { exports: {} };\nvar exports = module.exports;\n"

const exportSlot = `(function (e) {
  if (e !== null && (typeof e === "object" || typeof e === "function") && "default" in e) {
    e = e.default;
  }
  return String(e);
})(module.exports)`

// Capture evaluates source, statically when possible and in a fresh
// sandbox otherwise.
func (e *Executor) Capture(ctx context.Context, path, source string) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	if res, ok := evalStatic(source); ok {
		logger.Debug("captured template statically", "module", path, "dependencies", len(res.Dependencies))
		return res, nil
	}

	code, err := bundler.ToCommonJS(source, path)
	if err != nil {
		return Result{}, core.NewExtractionError(path, "failed to parse module", err)
	}

	var (
		mu   sync.Mutex
		deps []string
	)
	exports, err := e.runner.Run(ctx, jsvm.Program{
		Name:    path,
		Scripts: []string{moduleScope, wrapModule(code)},
		Result:  exportSlot,
		Require: func(spec string) string {
			mu.Lock()
			deps = append(deps, spec)
			mu.Unlock()
			return core.PlaceholderToken(spec)
		},
	})
	if err != nil {
		return Result{}, core.NewExtractionError(path, "failed to execute module", err)
	}

	logger.Debug("captured template in sandbox", "module", path, "dependencies", len(deps))
	return Result{Dependencies: deps, Exports: exports}, nil
}

func wrapModule(code string) string {
	return fmt.Sprintf("(function (module, exports, require) {\n%s\n})(module, exports, require);", code)
}
