package jsast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{`"abc"`, "abc", true},
		{`'a"b'`, `a"b`, true},
		{"`tpl`", "tpl", true},
		{"`a${b}`", "", false},
		{`"a\nb"`, "a\nb", true},
		{`"\x41B\u{43}"`, "ABC", true},
		{`"😀"`, "😀", true},
		{`"it\'s"`, "it's", true},
		{`"line\` + "\n" + `cont"`, "linecont", true},
		{`"\x4"`, "", false},
		{`"unterminated`, "", false},
		{`abc`, "", false},
	}
	for _, tt := range tests {
		got, ok := Unquote([]byte(tt.in))
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestStatementTermination(t *testing.T) {
	tests := []struct {
		name string
		src  string
		semi bool
	}{
		{"arrow function with block body", `const helper = () => { return 1; }`, true},
		{"object literal", `let o = { a: 1 }`, true},
		{"call", `run()`, true},
		{"function declaration", `function f() { return 1; }`, false},
		{"class declaration", `class C { m() {} }`, false},
		{"if block", `if (x) { y(); }`, false},
		{"exported function", `export function g() {}`, false},
		{"default export expression", `export default () => {}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ast, err := Parse(tt.src)
			require.NoError(t, err)
			require.Len(t, ast.BlockStmt.List, 1)

			got := Statement(ast.BlockStmt.List[0])
			assert.Equal(t, tt.semi, strings.HasSuffix(got, ";"), got)
		})
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<a href="x">`, `"<a href=\"x\">"`},
		{`a & b > c`, `"a & b > c"`},
		{"line\nbreak", `"line\nbreak"`},
		{``, `""`},
	}
	for _, tt := range tests {
		got := Quote(tt.in)
		assert.Equal(t, tt.want, got)

		back, ok := Unquote([]byte(got))
		require.True(t, ok)
		assert.Equal(t, tt.in, back)
	}
}

func TestStringValue(t *testing.T) {
	ast, err := Parse(`x = "a" + 'b' + ` + "`c`;")
	require.NoError(t, err)
	require.Len(t, ast.BlockStmt.List, 1)

	assert.Contains(t, Code(ast.BlockStmt.List[0]), `"a"`)
}
