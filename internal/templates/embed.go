// Package templates holds the starter project written by `entrykit init`.
package templates

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed all:starter
var starterFS embed.FS

// Starter returns the starter project rooted at its top directory.
func Starter() (fs.FS, error) {
	return fs.Sub(starterFS, "starter")
}

// TargetName maps an embedded file name to the name written into a new
// project. Dotfiles are stored without their dot so tooling ignores them
// inside this module.
func TargetName(name string) string {
	if name == "gitignore" || strings.HasSuffix(name, "/gitignore") {
		return strings.TrimSuffix(name, "gitignore") + ".gitignore"
	}
	return name
}
