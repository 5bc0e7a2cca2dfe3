package core

import (
	"path"
	"strings"
)

type EntryAssets struct {
	Scripts []string
	Styles  []string
}

// ResolveEntryAssets splits an entry's chunk files into scripts and styles,
// keeping chunk order and dropping every file missing from allowed.
func ResolveEntryAssets(files []string, allowed []string) EntryAssets {
	allow := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		allow[f] = struct{}{}
	}

	var assets EntryAssets
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, ok := allow[f]; !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}

		switch strings.ToLower(path.Ext(f)) {
		case ".js", ".mjs":
			assets.Scripts = append(assets.Scripts, f)
		case ".css":
			assets.Styles = append(assets.Styles, f)
		}
	}
	return assets
}

// WithPublicPath maps every asset through PublicURL.
func (a EntryAssets) WithPublicPath(publicPath string) EntryAssets {
	out := EntryAssets{
		Scripts: make([]string, 0, len(a.Scripts)),
		Styles:  make([]string, 0, len(a.Styles)),
	}
	for _, s := range a.Scripts {
		out.Scripts = append(out.Scripts, PublicURL(publicPath, s))
	}
	for _, s := range a.Styles {
		out.Styles = append(out.Styles, PublicURL(publicPath, s))
	}
	return out
}
