package capture

import (
	"strings"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/jsast"
	"github.com/tdewolff/parse/v2/js"
)

// evalStatic evaluates modules of the form `module.exports = E`,
// `exports.default = E` or `export default E` where E only concatenates
// string literals and require("literal") calls. ok is false for anything
// else.
func evalStatic(source string) (Result, bool) {
	ast, err := jsast.Parse(source)
	if err != nil {
		return Result{}, false
	}

	var export js.IExpr
	for _, stmt := range ast.BlockStmt.List {
		switch stmt := stmt.(type) {
		case *js.EmptyStmt, *js.DirectivePrologueStmt:
			continue
		case *js.ExprStmt:
			if _, directive := stmt.Value.(*js.LiteralExpr); directive && export == nil {
				continue
			}
			if export != nil {
				return Result{}, false
			}
			assign, ok := stmt.Value.(*js.BinaryExpr)
			if !ok || assign.Op != js.EqToken || !isExportSlot(assign.X) {
				return Result{}, false
			}
			export = assign.Y
		case *js.ExportStmt:
			if export != nil || !stmt.Default || stmt.Decl == nil {
				return Result{}, false
			}
			export = stmt.Decl
		default:
			return Result{}, false
		}
	}
	if export == nil {
		return Result{}, false
	}

	var (
		b    strings.Builder
		deps []string
	)
	if !concat(export, &b, &deps) {
		return Result{}, false
	}
	return Result{Exports: b.String(), Dependencies: deps}, true
}

func isExportSlot(e js.IExpr) bool {
	dot, ok := e.(*js.DotExpr)
	if !ok {
		return false
	}
	obj, ok := dot.X.(*js.Var)
	if !ok {
		return false
	}
	switch string(dot.Y.Data) {
	case "exports":
		return string(obj.Data) == "module"
	case "default":
		return string(obj.Data) == "exports"
	}
	return false
}

func concat(e js.IExpr, b *strings.Builder, deps *[]string) bool {
	if s, ok := jsast.StringValue(e); ok {
		b.WriteString(s)
		return true
	}

	switch e := e.(type) {
	case *js.GroupExpr:
		return concat(e.X, b, deps)
	case *js.BinaryExpr:
		if e.Op != js.AddToken {
			return false
		}
		// The left operand must be a string for + to concatenate.
		if !startsWithString(e.X) {
			return false
		}
		return concat(e.X, b, deps) && concat(e.Y, b, deps)
	case *js.CallExpr:
		spec, ok := requireCall(e)
		if !ok {
			return false
		}
		*deps = append(*deps, spec)
		b.WriteString(core.PlaceholderToken(spec))
		return true
	}
	return false
}

func startsWithString(e js.IExpr) bool {
	if _, ok := jsast.StringValue(e); ok {
		return true
	}
	switch e := e.(type) {
	case *js.GroupExpr:
		return startsWithString(e.X)
	case *js.BinaryExpr:
		return e.Op == js.AddToken && startsWithString(e.X)
	case *js.CallExpr:
		_, ok := requireCall(e)
		return ok
	}
	return false
}

func requireCall(call *js.CallExpr) (string, bool) {
	fn, ok := call.X.(*js.Var)
	if !ok || string(fn.Data) != "require" || len(call.Args.List) != 1 || call.Args.List[0].Rest {
		return "", false
	}
	return jsast.StringValue(call.Args.List[0].Value)
}
