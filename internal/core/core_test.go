package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestEntryNameForPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/page1.template.js", "src-page1.template"},
		{"./index.html", "index"},
		{"/pages/about.jsx", "pages-about"},
		{"", "page"},
	}
	for _, tt := range tests {
		if got := EntryNameForPath(tt.in); got != tt.want {
			t.Errorf("EntryNameForPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePublicPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"static", "/static/"},
		{"/static", "/static/"},
		{"./", "./"},
		{"https://cdn.example.com/x", "https://cdn.example.com/x/"},
		{"//cdn.example.com/", "//cdn.example.com/"},
	}
	for _, tt := range tests {
		if got := NormalizePublicPath(tt.in); got != tt.want {
			t.Errorf("NormalizePublicPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputRelPath(t *testing.T) {
	got, err := OutputRelPath("/work", "/work/dist", "dist/js/a.js")
	if err != nil || got != "js/a.js" {
		t.Errorf("OutputRelPath() = %q, %v", got, err)
	}

	if _, err := OutputRelPath("/work", "/work/dist", "other/a.js"); err == nil {
		t.Error("expected error for output outside outdir")
	}
}

func TestValidateOutputName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"index.html", false},
		{"blog/post.html", false},
		{"", true},
		{"/abs.html", true},
		{"../escape.html", true},
		{"page.html?x=1", true},
		{"page.html#top", true},
		{"*.html", true},
	}
	for _, tt := range tests {
		err := ValidateOutputName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOutputName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestParseEntryKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EntryKind
		wantErr bool
	}{
		{"", KindPlain, false},
		{"plain", KindPlain, false},
		{"markup", KindMarkup, false},
		{" Component ", KindComponent, false},
		{"svelte", KindPlain, true},
	}
	for _, tt := range tests {
		got, err := ParseEntryKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseEntryKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDecideBuildEntry(t *testing.T) {
	tests := []struct {
		name  string
		input BuildDecisionInput
		want  BuildDecision
	}{
		{
			name:  "plain entries are not extracted",
			input: BuildDecisionInput{Kind: KindPlain, SourcePath: "/src/app.js"},
			want:  BuildDecision{},
		},
		{
			name:  "markup html is preprocessed",
			input: BuildDecisionInput{Kind: KindMarkup, SourcePath: "/src/index.html"},
			want:  BuildDecision{Extract: true, Preprocess: true},
		},
		{
			name:  "markup module source",
			input: BuildDecisionInput{Kind: KindMarkup, SourcePath: "/src/page.mjs"},
			want:  BuildDecision{Extract: true, ESMSource: true},
		},
		{
			name:  "component sources go through jsx",
			input: BuildDecisionInput{Kind: KindComponent, SourcePath: "/src/page.jsx"},
			want:  BuildDecision{Extract: true, JSX: true, ESMSource: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecideBuildEntry(tt.input); got != tt.want {
				t.Errorf("DecideBuildEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPhaseErrors(t *testing.T) {
	var pe PhaseError

	err := fmt.Errorf("wrapped: %w", NewExtractionError("/src/a.js", "no mount point", ErrMountPointNotFound))
	if !errors.As(err, &pe) || pe.Phase() != PhaseExtraction {
		t.Fatalf("expected extraction phase error, got %v", err)
	}
	if !errors.Is(err, ErrMountPointNotFound) {
		t.Error("extraction error should unwrap to its cause")
	}

	rerr := NewRenderError("page", ErrExecutionTimeout)
	if rerr.Error() != `failed to render entry "page": script execution timed out` {
		t.Errorf("unexpected message %q", rerr.Error())
	}
	if !errors.As(error(rerr), &pe) || pe.Phase() != PhaseRender {
		t.Error("expected render phase")
	}

	if phase, ok := PhaseOf(fmt.Errorf("build: %w", rerr)); !ok || phase != PhaseRender {
		t.Errorf("PhaseOf = %q, %v", phase, ok)
	}
	if _, ok := PhaseOf(errors.New("plain")); ok {
		t.Error("plain errors have no phase")
	}
	if got := EntryName(fmt.Errorf("x: %w", rerr)); got != "page" {
		t.Errorf("EntryName = %q", got)
	}
	if got := ErrorPath(err); got != "/src/a.js" {
		t.Errorf("ErrorPath = %q", got)
	}
	if EntryName(err) != "" || ErrorPath(rerr) != "" {
		t.Error("helpers must only match their own error type")
	}
}

func TestManifest(t *testing.T) {
	m := NewManifest()
	m.Set("b", "b.html", EntryAssets{Scripts: []string{"/b.js"}})
	m.Set("a", "a.html", EntryAssets{Styles: []string{"/a.css"}})

	data, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseManifest(data)
	if err != nil {
		t.Fatal(err)
	}

	names := parsed.EntryNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("EntryNames() = %v", names)
	}
	assets, ok := GetAssets(parsed, "a")
	if !ok || len(assets.Scripts) != 0 || assets.Styles[0] != "/a.css" {
		t.Errorf("GetAssets(a) = %+v, %v", assets, ok)
	}
	if _, ok := GetAssets(nil, "a"); ok {
		t.Error("nil manifest should have no assets")
	}
}

func TestHashContent(t *testing.T) {
	if HashContent("ab", "c") == HashContent("a", "bc") {
		t.Error("part boundaries should change the hash")
	}
	if HashContent("x") != HashContent("x") {
		t.Error("hash should be stable")
	}
}
