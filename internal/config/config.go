// Package config loads the HCL build configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/3-lines-studio/entrykit/internal/splitter"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const DefaultFile = "entrykit.hcl"

const (
	FormatIIFE = "iife"
	FormatESM  = "esm"
)

type Model struct {
	// Dir is the directory of the config file. Every path in the model is
	// resolved against it.
	Dir         string
	Outdir      string
	PublicPath  string
	Format      string
	Splitting   bool
	Minify      bool
	Exclude     []string
	EntryNames  string
	ChunkNames  string
	JSXFactory  string
	JSXFragment string
	Entries     []Entry
}

type Entry struct {
	Name     string
	Source   string
	Kind     core.EntryKind
	Output   string
	Marker   string
	MountAPI splitter.MountAPI
	Props    map[string]any
}

type hclFile struct {
	Outdir      string     `hcl:"outdir"`
	PublicPath  *string    `hcl:"public_path,optional"`
	Format      *string    `hcl:"format,optional"`
	Splitting   *bool      `hcl:"splitting,optional"`
	Minify      *bool      `hcl:"minify,optional"`
	Exclude     []string   `hcl:"exclude,optional"`
	EntryNames  *string    `hcl:"entry_names,optional"`
	ChunkNames  *string    `hcl:"chunk_names,optional"`
	JSXFactory  *string    `hcl:"jsx_factory,optional"`
	JSXFragment *string    `hcl:"jsx_fragment,optional"`
	Entries     []hclEntry `hcl:"entry,block"`
}

type hclEntry struct {
	Name     string         `hcl:"name,label"`
	Source   string         `hcl:"source"`
	Kind     string         `hcl:"kind,optional"`
	Output   string         `hcl:"output,optional"`
	Marker   string         `hcl:"marker,optional"`
	MountAPI string         `hcl:"mount_api,optional"`
	Props    hcl.Expression `hcl:"props,optional"`
}

// Load parses and validates the config file at path.
func Load(path string) (*Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(src, abs)
}

// Parse decodes src as the config file at filename.
func Parse(src []byte, filename string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	m := &Model{
		Dir:         filepath.Dir(filename),
		Outdir:      raw.Outdir,
		PublicPath:  stringOr(raw.PublicPath, "/"),
		Format:      strings.ToLower(stringOr(raw.Format, FormatIIFE)),
		Splitting:   boolOr(raw.Splitting, false),
		Minify:      boolOr(raw.Minify, false),
		Exclude:     raw.Exclude,
		EntryNames:  stringOr(raw.EntryNames, "[name]-[hash]"),
		ChunkNames:  stringOr(raw.ChunkNames, "chunks/[name]-[hash]"),
		JSXFactory:  stringOr(raw.JSXFactory, "React.createElement"),
		JSXFragment: stringOr(raw.JSXFragment, "React.Fragment"),
	}
	if m.Exclude == nil {
		m.Exclude = []string{"**/*.map"}
	}

	var errs []error
	for _, e := range raw.Entries {
		entry, err := m.entry(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", e.Name, err))
			continue
		}
		m.Entries = append(m.Entries, entry)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) entry(e hclEntry) (Entry, error) {
	kind, err := core.ParseEntryKind(e.Kind)
	if err != nil {
		return Entry{}, err
	}
	api, err := splitter.ParseMountAPI(e.MountAPI)
	if err != nil {
		return Entry{}, err
	}

	var props map[string]any
	if e.Props != nil {
		val, diags := e.Props.Value(nil)
		if diags.HasErrors() {
			return Entry{}, fmt.Errorf("failed to evaluate props: %w", diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to evaluate props: %w", err)
		}
		if native != nil {
			p, ok := native.(map[string]any)
			if !ok {
				return Entry{}, fmt.Errorf("props must be an object, got %s", val.Type().FriendlyName())
			}
			props = p
		}
	}

	return Entry{
		Name:     e.Name,
		Source:   m.Path(e.Source),
		Kind:     kind,
		Output:   e.Output,
		Marker:   e.Marker,
		MountAPI: api,
		Props:    props,
	}, nil
}

// Validate checks the rules that span more than one attribute.
func (m *Model) Validate() error {
	var errs []error

	if strings.TrimSpace(m.Outdir) == "" {
		errs = append(errs, errors.New("outdir is required"))
	}
	switch m.Format {
	case FormatIIFE, FormatESM:
	default:
		errs = append(errs, fmt.Errorf("format %q is not supported (want iife or esm)", m.Format))
	}
	if m.Splitting && m.Format != FormatESM {
		errs = append(errs, errors.New("splitting requires format = \"esm\""))
	}
	if len(m.Entries) == 0 {
		errs = append(errs, errors.New("at least one entry is required"))
	}

	names := make(map[string]struct{}, len(m.Entries))
	outputs := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		if _, dup := names[e.Name]; dup {
			errs = append(errs, fmt.Errorf("entry %q is declared twice", e.Name))
		}
		names[e.Name] = struct{}{}

		if !core.ShouldExtract(e.Kind) {
			continue
		}
		if e.Output == "" {
			errs = append(errs, fmt.Errorf("entry %q: output is required for %s entries", e.Name, e.Kind))
			continue
		}
		if err := core.ValidateOutputName(e.Output); err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", e.Name, err))
		}
		if prev, dup := outputs[e.Output]; dup {
			errs = append(errs, fmt.Errorf("entry %q: output %s is already used by entry %q", e.Name, e.Output, prev))
		}
		outputs[e.Output] = e.Name
	}

	return errors.Join(errs...)
}

// Path resolves p against the config directory.
func (m *Model) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ApplyMode adjusts the model for the build mode.
func (m *Model) ApplyMode(mode core.Mode) {
	if mode.IsProduction() {
		m.Minify = true
	}
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
