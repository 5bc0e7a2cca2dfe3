package core

import (
	"path/filepath"
	"strings"
)

func EntryNameForPath(sourcePath string) string {
	name := strings.TrimPrefix(filepath.ToSlash(sourcePath), "./")
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		return "page"
	}
	return name
}

func DefaultOutputName(entryName string) string {
	return entryName + ".html"
}
