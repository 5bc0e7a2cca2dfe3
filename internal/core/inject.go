package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	scriptPlaceholderPattern = regexp.MustCompile(`<script.+?src=.+?(@.+?@).+?></script>`)
	stylePlaceholderPattern  = regexp.MustCompile(`<style.+?src=.+?(@.+?@).+?>(?:\s*</style>)?`)
)

// PlaceholderToken is the value a captured import evaluates to during
// extraction.
func PlaceholderToken(specifier string) string {
	return "@" + specifier + "@"
}

// ValidatePlaceholders checks that every script or style placeholder in
// template carries the token of one of the captured dependencies.
func ValidatePlaceholders(template string, deps []Dependency) error {
	known := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		known[PlaceholderToken(dep.Specifier)] = struct{}{}
	}

	var unknown []string
	for _, pattern := range []*regexp.Regexp{scriptPlaceholderPattern, stylePlaceholderPattern} {
		for _, m := range pattern.FindAllStringSubmatch(template, -1) {
			if _, ok := known[m[1]]; !ok {
				unknown = append(unknown, m[1])
			}
		}
	}

	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlaceholder, strings.Join(unknown, ", "))
	}
	return nil
}

// InjectAssets replaces every script placeholder with one script tag per
// script and every style placeholder with one link tag per style, in a
// single pass per pattern.
func InjectAssets(template string, assets EntryAssets, module bool) string {
	out := scriptPlaceholderPattern.ReplaceAllLiteralString(template, ScriptTags(assets.Scripts, module))
	return stylePlaceholderPattern.ReplaceAllLiteralString(out, StyleTags(assets.Styles))
}

// ReplaceTokens substitutes leftover dependency tokens (images, fonts, ...)
// with the URLs in urls, keyed by specifier.
func ReplaceTokens(text string, urls map[string]string) string {
	if len(urls) == 0 {
		return text
	}

	specs := make([]string, 0, len(urls))
	for spec := range urls {
		specs = append(specs, spec)
	}
	sort.Strings(specs)

	pairs := make([]string, 0, len(specs)*2)
	for _, spec := range specs {
		pairs = append(pairs, PlaceholderToken(spec), urls[spec])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// RemainingTokens lists the dependency tokens still present in text.
func RemainingTokens(text string, deps []Dependency) []string {
	var left []string
	seen := make(map[string]struct{}, len(deps))
	for _, dep := range deps {
		token := PlaceholderToken(dep.Specifier)
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if strings.Contains(text, token) {
			left = append(left, token)
		}
	}
	return left
}
