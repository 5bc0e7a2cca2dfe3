package coordinator

import (
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
)

type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
	CSSBundle  string                  `json:"cssBundle,omitempty"`
}

type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func ParseMetafile(data string) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// EntryOutputs lists the output paths that have an entry point, sorted.
func (m *Metafile) EntryOutputs() []string {
	var outs []string
	for path, out := range m.Outputs {
		if out.EntryPoint != "" {
			outs = append(outs, path)
		}
	}
	sort.Strings(outs)
	return outs
}

// EntryFiles lists every file loaded for the output at path: statically
// imported chunks first (depth first, each once), then the output itself,
// then the css bundles of all of them.
func (m *Metafile) EntryFiles(path string) []string {
	var (
		scripts []string
		styles  []string
	)
	seen := make(map[string]struct{})

	var visit func(p string)
	visit = func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out, ok := m.Outputs[p]
		if !ok {
			return
		}
		for _, imp := range out.Imports {
			if imp.Kind == "import-statement" && !imp.External {
				visit(imp.Path)
			}
		}
		scripts = append(scripts, p)
		if out.CSSBundle != "" {
			styles = append(styles, out.CSSBundle)
		}
	}
	visit(path)

	return append(scripts, styles...)
}

// EmittedFor maps an input file to the output it was emitted as, for
// inputs copied with a matching extension (images, fonts, ...).
func (m *Metafile) EmittedFor(input string) (string, bool) {
	ext := filepath.Ext(input)
	if ext == ".js" || ext == ".css" || ext == "" {
		return "", false
	}
	var found []string
	for path, out := range m.Outputs {
		if filepath.Ext(path) != ext {
			continue
		}
		if _, ok := out.Inputs[input]; ok {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Strings(found)
	return found[0], true
}
