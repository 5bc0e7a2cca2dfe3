// Package jsast holds the small helpers shared by the code that reads and
// regenerates JavaScript syntax trees.
package jsast

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

func Parse(source string) (*js.AST, error) {
	return js.Parse(parse.NewInputString(source), js.Options{})
}

// Code regenerates JavaScript source for n.
func Code(n js.INode) string {
	var b strings.Builder
	n.JS(&b)
	return b.String()
}

// Statement regenerates a statement and makes sure it is terminated.
func Statement(n js.IStmt) string {
	code := strings.TrimSpace(Code(n))
	if code == "" || strings.HasSuffix(code, ";") {
		return code
	}
	if strings.HasSuffix(code, "}") && endsWithBlock(n) {
		return code
	}
	return code + ";"
}

// endsWithBlock reports whether n is a declaration or compound statement,
// which needs no semicolon after its closing brace. An expression ending
// in a brace, like an arrow function body, still does.
func endsWithBlock(n js.IStmt) bool {
	switch n := n.(type) {
	case *js.FuncDecl, *js.ClassDecl, *js.BlockStmt, *js.IfStmt, *js.WhileStmt,
		*js.ForStmt, *js.ForInStmt, *js.ForOfStmt, *js.SwitchStmt, *js.TryStmt, *js.WithStmt:
		return true
	case *js.LabelledStmt:
		return endsWithBlock(n.Value)
	case *js.ExportStmt:
		switch n.Decl.(type) {
		case *js.FuncDecl, *js.ClassDecl:
			return true
		}
	}
	return false
}

// Quote returns s as a double-quoted JavaScript string literal. Markup
// characters stay literal so generated modules read like their source.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Root follows a variable's links to the variable it was declared as.
func Root(v *js.Var) *js.Var {
	for v.Link != nil {
		v = v.Link
	}
	return v
}

// StringValue returns the value of a string literal or of a template
// literal without substitutions.
func StringValue(e js.IExpr) (string, bool) {
	switch e := e.(type) {
	case *js.LiteralExpr:
		if e.TokenType != js.StringToken {
			return "", false
		}
		return Unquote(e.Data)
	case *js.TemplateExpr:
		if e.Tag != nil || len(e.List) != 0 {
			return "", false
		}
		return Unquote(e.Tail)
	case *js.GroupExpr:
		return StringValue(e.X)
	}
	return "", false
}

// Unquote decodes a quoted JavaScript string or template literal.
func Unquote(lit []byte) (string, bool) {
	if len(lit) < 2 {
		return "", false
	}
	q := lit[0]
	if (q != '"' && q != '\'' && q != '`') || lit[len(lit)-1] != q {
		return "", false
	}
	s := string(lit[1 : len(lit)-1])
	if !strings.ContainsRune(s, '\\') {
		if q == '`' && strings.Contains(s, "${") {
			return "", false
		}
		return s, true
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			if i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				return "", false
			}
			b.WriteByte(0)
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(s) {
				return "", false
			}
			r, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(r))
			i += 2
		case 'u':
			r, n, ok := unicodeEscape(s[i+1:])
			if !ok {
				return "", false
			}
			i += n
			if r >= 0xd800 && r <= 0xdbff && strings.HasPrefix(s[i+1:], `\u`) {
				if lo, m, ok := unicodeEscape(s[i+3:]); ok && lo >= 0xdc00 && lo <= 0xdfff {
					r = 0x10000 + (r-0xd800)<<10 + (lo - 0xdc00)
					i += 2 + m
				}
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			b.WriteRune(r)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), true
}

// unicodeEscape decodes the part of a \u escape after the u and returns the
// number of bytes consumed.
func unicodeEscape(s string) (rune, int, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, false
		}
		r, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil {
			return 0, 0, false
		}
		return rune(r), end + 1, true
	}
	if len(s) < 4 {
		return 0, 0, false
	}
	r, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return rune(r), 4, true
}
