package core

import (
	"sort"

	"github.com/goccy/go-json"
)

const ManifestFile = "entrykit-manifest.json"

type ManifestEntry struct {
	HTML    string   `json:"html,omitempty"`
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles"`
}

type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}

func NewManifest() *Manifest {
	return &Manifest{Entries: make(map[string]ManifestEntry)}
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	return &m, nil
}

func (m *Manifest) Set(entryName, htmlName string, assets EntryAssets) {
	m.Entries[entryName] = ManifestEntry{
		HTML:    htmlName,
		Scripts: nonNil(assets.Scripts),
		Styles:  nonNil(assets.Styles),
	}
}

func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func (m *Manifest) EntryNames() []string {
	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetAssets(man *Manifest, entryName string) (EntryAssets, bool) {
	if man == nil {
		return EntryAssets{}, false
	}
	entry, ok := man.Entries[entryName]
	if !ok {
		return EntryAssets{}, false
	}
	return EntryAssets{Scripts: entry.Scripts, Styles: entry.Styles}, true
}
