package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

type EntryKind string

const (
	KindPlain     EntryKind = ""
	KindMarkup    EntryKind = "markup"
	KindComponent EntryKind = "component"
)

func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPlain, "plain":
		return KindPlain, nil
	case KindMarkup:
		return KindMarkup, nil
	case KindComponent:
		return KindComponent, nil
	}
	return KindPlain, fmt.Errorf("unknown entry kind %q (want markup or component)", s)
}

type BuildDecisionInput struct {
	Kind       EntryKind
	SourcePath string
}

type BuildDecision struct {
	Extract    bool
	Preprocess bool
	ESMSource  bool
	JSX        bool
}

// DecideBuildEntry tells the loader what an entry's source needs before its
// template can be extracted.
func DecideBuildEntry(input BuildDecisionInput) BuildDecision {
	ext := strings.ToLower(filepath.Ext(input.SourcePath))

	switch input.Kind {
	case KindMarkup:
		return BuildDecision{
			Extract:    true,
			Preprocess: ext == ".html" || ext == ".htm",
			ESMSource:  ext == ".mjs",
		}
	case KindComponent:
		return BuildDecision{
			Extract:   true,
			JSX:       true,
			ESMSource: true,
		}
	}
	return BuildDecision{}
}

func ShouldExtract(kind EntryKind) bool {
	return kind == KindMarkup || kind == KindComponent
}
