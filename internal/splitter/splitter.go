// Package splitter separates a component entry into the interactive module
// mounted in the browser and the template source rendered at build time.
package splitter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/jsast"
	"github.com/tdewolff/parse/v2/js"
)

const (
	DefaultMarker = "AppInjector"

	appBinding = "__entryApp"
)

type MountAPI string

const (
	MountLegacy MountAPI = "legacy"
	MountRoot   MountAPI = "root"
)

func ParseMountAPI(s string) (MountAPI, error) {
	switch MountAPI(strings.ToLower(strings.TrimSpace(s))) {
	case "", MountLegacy:
		return MountLegacy, nil
	case MountRoot:
		return MountRoot, nil
	}
	return "", fmt.Errorf("unknown mount api %q (want legacy or root)", s)
}

type Options struct {
	Marker   string
	MountAPI MountAPI
}

type Result struct {
	Module      string
	Template    core.TemplateSource
	ContainerID string
	// Imports lists the module specifiers the interactive module imports,
	// the mount API excluded.
	Imports []string
}

type binding struct {
	local     string
	imported  string
	isDefault bool
	namespace bool
}

type importDecl struct {
	stmt     *js.ImportStmt
	module   string
	bindings []binding
}

func (d *importDecl) bare() bool {
	return len(d.bindings) == 0
}

type reference struct {
	name   string
	stmt   int
	inside bool
}

type splitter struct {
	path string
	opts Options
	ast  *js.AST

	moduleVars map[*js.Var]struct{}
	imports    []*importDecl
	importOf   map[string]*importDecl
	localStmt  map[string]int

	mount     *js.CallExpr
	mountStmt int
	child     js.IExpr
	id        string

	refs []reference
}

// Split splits the (JSX-free) source of a component entry at its mount
// point.
func Split(path, source string, opts Options) (*Result, error) {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.MountAPI == "" {
		opts.MountAPI = MountLegacy
	}

	ast, err := jsast.Parse(source)
	if err != nil {
		return nil, core.NewExtractionError(path, "failed to parse module", err)
	}

	s := &splitter{
		path:       path,
		opts:       opts,
		ast:        ast,
		moduleVars: make(map[*js.Var]struct{}),
		importOf:   make(map[string]*importDecl),
		localStmt:  make(map[string]int),
		mountStmt:  -1,
	}
	for _, v := range ast.BlockStmt.Scope.Declared {
		s.moduleVars[v] = struct{}{}
	}

	s.collectDeclarations()
	if err := s.findMountPoint(); err != nil {
		return nil, err
	}
	s.collectReferences()

	module, imports := s.interactiveModule()
	template := s.templateSource()

	return &Result{
		Module:      module,
		Template:    core.TemplateSource{Code: template, Context: filepath.Dir(path)},
		ContainerID: s.id,
		Imports:     imports,
	}, nil
}

func (s *splitter) collectDeclarations() {
	for i, stmt := range s.ast.BlockStmt.List {
		switch stmt := stmt.(type) {
		case *js.ImportStmt:
			decl := &importDecl{stmt: stmt, module: moduleLiteral(stmt.Module)}
			if len(stmt.Default) > 0 {
				decl.bindings = append(decl.bindings, binding{local: string(stmt.Default), isDefault: true})
			}
			for _, alias := range stmt.List {
				b := binding{local: string(alias.Binding), imported: string(alias.Name)}
				if b.imported == "*" {
					b.namespace = true
				}
				decl.bindings = append(decl.bindings, b)
			}
			for _, b := range decl.bindings {
				s.importOf[b.local] = decl
			}
			s.imports = append(s.imports, decl)
		case *js.ExportStmt:
			if stmt.Decl != nil {
				s.declareLocal(stmt.Decl, i)
			}
		default:
			s.declareLocal(stmt, i)
		}
	}
}

func (s *splitter) declareLocal(n js.INode, stmt int) {
	switch n := n.(type) {
	case *js.FuncDecl:
		if n.Name != nil {
			s.localStmt[string(n.Name.Data)] = stmt
		}
	case *js.ClassDecl:
		if n.Name != nil {
			s.localStmt[string(n.Name.Data)] = stmt
		}
	case *js.VarDecl:
		for _, elem := range n.List {
			for _, v := range bindingVars(elem.Binding) {
				s.localStmt[string(v.Data)] = stmt
			}
		}
	}
}

func bindingVars(b js.IBinding) []*js.Var {
	switch b := b.(type) {
	case *js.Var:
		return []*js.Var{b}
	case *js.BindingArray:
		var vars []*js.Var
		for _, elem := range b.List {
			vars = append(vars, bindingVars(elem.Binding)...)
		}
		if b.Rest != nil {
			vars = append(vars, bindingVars(b.Rest)...)
		}
		return vars
	case *js.BindingObject:
		var vars []*js.Var
		for _, item := range b.List {
			vars = append(vars, bindingVars(item.Value.Binding)...)
		}
		if b.Rest != nil {
			vars = append(vars, b.Rest)
		}
		return vars
	}
	return nil
}

// topLevelName names the module-level binding v refers to, if any.
func (s *splitter) topLevelName(v *js.Var) (string, bool) {
	root := jsast.Root(v)
	if _, ok := s.moduleVars[root]; ok || root.Decl == js.NoDecl {
		return string(root.Data), true
	}
	return "", false
}

type visitor struct {
	enter func(n js.INode)
	exit  func(n js.INode)
}

func (v *visitor) Enter(n js.INode) js.IVisitor {
	if v.enter != nil {
		v.enter(n)
	}
	return v
}

func (v *visitor) Exit(n js.INode) {
	if v.exit != nil {
		v.exit(n)
	}
}

func (s *splitter) findMountPoint() error {
	type found struct {
		call *js.CallExpr
		stmt int
	}
	var mounts []found

	for i, stmt := range s.ast.BlockStmt.List {
		if _, ok := stmt.(*js.ImportStmt); ok {
			continue
		}
		idx := i
		js.Walk(&visitor{enter: func(n js.INode) {
			call, ok := n.(*js.CallExpr)
			if !ok || len(call.Args.List) == 0 {
				return
			}
			marker, ok := call.Args.List[0].Value.(*js.Var)
			if !ok {
				return
			}
			if name, ok := s.topLevelName(marker); ok && name == s.opts.Marker {
				mounts = append(mounts, found{call: call, stmt: idx})
			}
		}}, stmt)
	}

	switch len(mounts) {
	case 0:
		return core.NewExtractionError(s.path, fmt.Sprintf("no %s mount point", s.opts.Marker), core.ErrMountPointNotFound)
	case 1:
	default:
		return core.NewExtractionError(s.path, fmt.Sprintf("found %d %s mount points", len(mounts), s.opts.Marker), core.ErrMultipleMountPoints)
	}

	s.mount = mounts[0].call
	s.mountStmt = mounts[0].stmt
	args := s.mount.Args.List

	if len(args) < 2 || args[1].Rest {
		return core.NewExtractionError(s.path, "mount point has no props", core.ErrMalformedContainerID)
	}
	id, ok := containerID(args[1].Value)
	if !ok {
		return core.NewExtractionError(s.path, "mount point id is not a string literal", core.ErrMalformedContainerID)
	}
	s.id = id

	children := args[2:]
	if len(children) != 1 || children[0].Rest {
		return core.NewExtractionError(s.path, fmt.Sprintf("mount point has %d children", len(children)), core.ErrMountPointChildren)
	}
	s.child = children[0].Value
	return nil
}

func containerID(e js.IExpr) (string, bool) {
	obj, ok := e.(*js.ObjectExpr)
	if !ok {
		return "", false
	}
	for _, prop := range obj.List {
		if prop.Spread || prop.Name == nil || prop.Name.Computed != nil {
			continue
		}
		key := string(prop.Name.Literal.Data)
		if prop.Name.Literal.TokenType == js.StringToken {
			if unquoted, ok := jsast.Unquote(prop.Name.Literal.Data); ok {
				key = unquoted
			}
		}
		if key == "id" {
			return jsast.StringValue(prop.Value)
		}
	}
	return "", false
}

func (s *splitter) collectReferences() {
	for i, stmt := range s.ast.BlockStmt.List {
		switch stmt := stmt.(type) {
		case *js.ImportStmt:
			continue
		case *js.ExportStmt:
			if stmt.Decl == nil && len(stmt.Module) == 0 {
				for _, alias := range stmt.List {
					for _, name := range [][]byte{alias.Name, alias.Binding} {
						if len(name) > 0 {
							s.refs = append(s.refs, reference{name: string(name), stmt: i})
						}
					}
				}
				continue
			}
		}

		idx := i
		inside := 0
		js.Walk(&visitor{
			enter: func(n js.INode) {
				if n == js.INode(s.child) {
					inside++
				}
				v, ok := n.(*js.Var)
				if !ok {
					return
				}
				if name, ok := s.topLevelName(v); ok {
					s.refs = append(s.refs, reference{name: name, stmt: idx, inside: inside > 0})
				}
			},
			exit: func(n js.INode) {
				if n == js.INode(s.child) {
					inside--
				}
			},
		}, stmt)
	}
}

// reachable returns the import bindings and local statements the mount
// point needs, following local declarations transitively.
func (s *splitter) reachable() (map[string]struct{}, []int) {
	names := make(map[string]struct{})
	stmts := make(map[int]struct{})
	var queue []int

	use := func(name string) {
		if _, ok := s.importOf[name]; ok {
			names[name] = struct{}{}
			return
		}
		idx, ok := s.localStmt[name]
		if !ok || idx == s.mountStmt {
			return
		}
		if _, seen := stmts[idx]; !seen {
			stmts[idx] = struct{}{}
			queue = append(queue, idx)
		}
	}

	for _, ref := range s.refs {
		if ref.inside {
			use(ref.name)
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		for _, ref := range s.refs {
			if ref.stmt == idx {
				use(ref.name)
			}
		}
	}

	ordered := make([]int, 0, len(stmts))
	for idx := range stmts {
		ordered = append(ordered, idx)
	}
	sort.Ints(ordered)
	return names, ordered
}

func (s *splitter) interactiveModule() (string, []string) {
	names, locals := s.reachable()

	var (
		lines   []string
		modules []string
	)
	for _, decl := range s.imports {
		if decl.bare() {
			lines = append(lines, importCode(decl.module, nil))
			modules = append(modules, unquoteModule(decl.module))
			continue
		}
		var used []binding
		for _, b := range decl.bindings {
			if _, ok := names[b.local]; ok {
				used = append(used, b)
			}
		}
		if len(used) > 0 {
			lines = append(lines, importCode(decl.module, used))
			modules = append(modules, unquoteModule(decl.module))
		}
	}

	switch s.opts.MountAPI {
	case MountRoot:
		lines = append(lines, `import { createRoot as __entryCreateRoot } from "react-dom/client";`)
	default:
		lines = append(lines, `import __entryReactDOM from "react-dom";`)
	}

	for _, idx := range locals {
		stmt := s.ast.BlockStmt.List[idx]
		if exp, ok := stmt.(*js.ExportStmt); ok && exp.Decl != nil {
			lines = append(lines, declCode(exp.Decl))
			continue
		}
		lines = append(lines, jsast.Statement(stmt))
	}

	container := fmt.Sprintf("document.getElementById(%s)", jsast.Quote(s.id))
	lines = append(lines, fmt.Sprintf("const %s = %s;", appBinding, jsast.Code(s.child)))
	switch s.opts.MountAPI {
	case MountRoot:
		lines = append(lines, fmt.Sprintf("__entryCreateRoot(%s).render(%s);", container, appBinding))
	default:
		lines = append(lines, fmt.Sprintf("__entryReactDOM.render(%s, %s);", appBinding, container))
	}

	return strings.Join(lines, "\n") + "\n", modules
}

func declCode(n js.IExpr) string {
	code := strings.TrimSpace(jsast.Code(n))
	if _, ok := n.(*js.VarDecl); ok && !strings.HasSuffix(code, ";") {
		return code + ";"
	}
	return code
}

// templateSource removes the mount point's child and every import binding
// with no reference left outside it, then regenerates the module.
func (s *splitter) templateSource() string {
	total := make(map[string]int)
	inside := make(map[string]int)
	for _, ref := range s.refs {
		total[ref.name]++
		if ref.inside {
			inside[ref.name]++
		}
	}
	// Unreferenced bindings count as removed: none of their references
	// survive.
	removed := func(name string) bool {
		return inside[name] == total[name]
	}

	s.mount.Args.List = s.mount.Args.List[:2]

	var lines []string
	for _, stmt := range s.ast.BlockStmt.List {
		imp, ok := stmt.(*js.ImportStmt)
		if !ok {
			lines = append(lines, jsast.Statement(stmt))
			continue
		}

		decl := s.importFor(imp)
		if decl.bare() {
			continue
		}
		var kept []binding
		for _, b := range decl.bindings {
			if !removed(b.local) {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			lines = append(lines, importCode(decl.module, kept))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (s *splitter) importFor(stmt *js.ImportStmt) *importDecl {
	for _, decl := range s.imports {
		if decl.stmt == stmt {
			return decl
		}
	}
	return &importDecl{stmt: stmt, module: moduleLiteral(stmt.Module)}
}

func importCode(module string, bindings []binding) string {
	if len(bindings) == 0 {
		return fmt.Sprintf("import %s;", module)
	}

	var (
		clauses []string
		named   []string
	)
	for _, b := range bindings {
		switch {
		case b.isDefault:
			clauses = append([]string{b.local}, clauses...)
		case b.namespace:
			clauses = append(clauses, "* as "+b.local)
		case b.imported != "" && b.imported != b.local:
			named = append(named, b.imported+" as "+b.local)
		default:
			named = append(named, b.local)
		}
	}
	if len(named) > 0 {
		clauses = append(clauses, "{ "+strings.Join(named, ", ")+" }")
	}
	return fmt.Sprintf("import %s from %s;", strings.Join(clauses, ", "), module)
}

func moduleLiteral(raw []byte) string {
	if _, ok := jsast.Unquote(raw); ok {
		return string(raw)
	}
	return jsast.Quote(string(raw))
}

func unquoteModule(lit string) string {
	if s, ok := jsast.Unquote([]byte(lit)); ok {
		return s
	}
	return lit
}
