// Package jsvm runs bundled scripts inside a fresh v8 isolate per call.
package jsvm

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/ctxlog"
	"github.com/tommie/v8go"
)

const DefaultTimeout = 5 * time.Second

//go:embed prelude.js
var preludeJS string

// RequireFunc answers a require(specifier) call made by sandboxed code.
type RequireFunc func(specifier string) string

// Program is a set of scripts run in order in one context, followed by
// Result, an expression whose string value is returned.
type Program struct {
	Name    string
	Scripts []string
	Result  string
	Require RequireFunc
}

type Runner struct {
	timeout time.Duration
}

func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout}
}

func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// ScriptError is an exception thrown by sandboxed code.
type ScriptError struct {
	Program  string
	Message  string
	Location string
	Stack    string
}

func (e *ScriptError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %s", e.Program, e.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Program, e.Message, e.Location)
}

type result struct {
	value string
	err   error
}

// Run executes p and returns the string value of p.Result. Execution is
// terminated when ctx is done or the runner timeout elapses.
func (r *Runner) Run(ctx context.Context, p Program) (string, error) {
	logger := ctxlog.FromContext(ctx).With("program", p.Name)

	iso := v8go.NewIsolate()
	defer iso.Dispose()

	global := v8go.NewObjectTemplate(iso)
	if err := global.Set("__entrykitLog", consoleTemplate(iso, logger)); err != nil {
		return "", fmt.Errorf("failed to install console: %w", err)
	}
	if p.Require != nil {
		if err := global.Set("require", requireTemplate(iso, p.Require)); err != nil {
			return "", fmt.Errorf("failed to install require: %w", err)
		}
	}

	v8ctx := v8go.NewContext(iso, global)
	defer v8ctx.Close()

	done := make(chan result, 1)
	go func() {
		done <- execute(v8ctx, p)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		iso.TerminateExecution()
		<-done
		logger.Warn("script terminated", "timeout", r.timeout)
		return "", fmt.Errorf("%s: %w after %s", p.Name, core.ErrExecutionTimeout, r.timeout)
	case <-ctx.Done():
		iso.TerminateExecution()
		<-done
		return "", ctx.Err()
	}
}

func execute(v8ctx *v8go.Context, p Program) result {
	if _, err := v8ctx.RunScript(preludeJS, "entrykit:prelude.js"); err != nil {
		return result{err: scriptError(p.Name, err)}
	}

	for i, src := range p.Scripts {
		origin := p.Name
		if len(p.Scripts) > 1 {
			origin = fmt.Sprintf("%s#%d", p.Name, i)
		}
		if _, err := v8ctx.RunScript(src, origin); err != nil {
			return result{err: scriptError(p.Name, err)}
		}
	}

	if p.Result == "" {
		return result{}
	}
	val, err := v8ctx.RunScript(p.Result, p.Name+":result")
	if err != nil {
		return result{err: scriptError(p.Name, err)}
	}
	return result{value: val.String()}
}

func scriptError(program string, err error) error {
	var jsErr *v8go.JSError
	if errors.As(err, &jsErr) {
		return &ScriptError{
			Program:  program,
			Message:  jsErr.Message,
			Location: jsErr.Location,
			Stack:    jsErr.StackTrace,
		}
	}
	return &ScriptError{Program: program, Message: err.Error()}
}

func requireTemplate(iso *v8go.Isolate, require RequireFunc) *v8go.FunctionTemplate {
	return v8go.NewFunctionTemplate(iso, func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		args := info.Args()
		if len(args) == 0 {
			return v8go.Undefined(iso)
		}
		val, err := v8go.NewValue(iso, require(args[0].String()))
		if err != nil {
			return v8go.Undefined(iso)
		}
		return val
	})
}

func consoleTemplate(iso *v8go.Isolate, logger *slog.Logger) *v8go.FunctionTemplate {
	return v8go.NewFunctionTemplate(iso, func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		args := info.Args()
		if len(args) < 2 {
			return nil
		}
		level := slog.LevelDebug
		switch args[0].String() {
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, "script console", "message", args[1].String())
		return nil
	})
}
