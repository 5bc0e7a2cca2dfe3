package core

import (
	"fmt"
	"html"
	"strings"
)

func ScriptTag(src string, module bool) string {
	if module {
		return fmt.Sprintf(`<script type="module" src="%s"></script>`, html.EscapeString(src))
	}
	return fmt.Sprintf(`<script src="%s"></script>`, html.EscapeString(src))
}

func StyleTag(href string) string {
	return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, html.EscapeString(href))
}

func ScriptTags(srcs []string, module bool) string {
	tags := make([]string, 0, len(srcs))
	for _, src := range srcs {
		tags = append(tags, ScriptTag(src, module))
	}
	return strings.Join(tags, "\n")
}

func StyleTags(hrefs []string) string {
	tags := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		tags = append(tags, StyleTag(href))
	}
	return strings.Join(tags, "\n")
}
