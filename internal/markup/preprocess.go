// Package markup turns HTML documents into CommonJS modules whose export is
// the document text, with every local src attribute rewritten into a
// require call.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/jsast"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

type Options struct {
	// Attributes lists the attribute names whose values are module
	// requests. Defaults to src.
	Attributes []string
}

// IsModuleRequest reports whether an attribute value points at a file the
// bundler should resolve.
func IsModuleRequest(value string) bool {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return false
	case strings.HasPrefix(v, "//"), strings.HasPrefix(v, "/"), strings.HasPrefix(v, "#"):
		return false
	case strings.HasPrefix(v, "{{"):
		return false
	case schemePattern.MatchString(v):
		return false
	}
	return true
}

// RequestSpecifier maps an attribute value to the specifier passed to
// require: ~pkg becomes pkg and bare names become ./name.
func RequestSpecifier(value string) string {
	v := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(v, "~"):
		return strings.TrimPrefix(v, "~")
	case strings.HasPrefix(v, "./"), strings.HasPrefix(v, "../"):
		return v
	}
	return "./" + v
}

type moduleWriter struct {
	parts []string
	text  bytes.Buffer
}

func (w *moduleWriter) flushText() {
	if w.text.Len() == 0 {
		return
	}
	w.parts = append(w.parts, jsast.Quote(w.text.String()))
	w.text.Reset()
}

func (w *moduleWriter) require(specifier string) {
	w.flushText()
	w.parts = append(w.parts, "require("+jsast.Quote(specifier)+")")
}

func (w *moduleWriter) source() string {
	if len(w.parts) == 0 {
		return "module.exports = \"\";\n"
	}
	return "module.exports = " + strings.Join(w.parts, " + ") + ";\n"
}

// Preprocess converts an HTML document into a CommonJS module.
func Preprocess(document string, opts Options) (string, error) {
	attrs := opts.Attributes
	if len(attrs) == 0 {
		attrs = []string{"src"}
	}
	rewrite := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		rewrite[strings.ToLower(a)] = struct{}{}
	}

	var w moduleWriter
	l := html.NewLexer(parse.NewInputString(document))
	for {
		tt, data := l.Next()
		switch tt {
		case html.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return "", fmt.Errorf("failed to parse markup: %w", err)
			}
			w.flushText()
			return w.source(), nil
		case html.AttributeToken:
			key := strings.ToLower(string(l.AttrKey()))
			val := unquote(l.AttrVal())
			if _, ok := rewrite[key]; !ok || !IsModuleRequest(val) {
				w.text.Write(data)
				continue
			}
			w.text.Write(attrPrefix(data))
			w.text.WriteString(string(l.AttrKey()))
			w.text.WriteString(`="`)
			w.require(RequestSpecifier(val))
			w.text.WriteString(`"`)
		default:
			w.text.Write(data)
		}
	}
}

// attrPrefix returns the whitespace preceding an attribute in its raw token.
func attrPrefix(data []byte) []byte {
	i := 0
	for i < len(data) && parse.IsWhitespace(data[i]) {
		i++
	}
	return data[:i]
}

func unquote(val []byte) string {
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		val = val[1 : len(val)-1]
	}
	return string(val)
}
