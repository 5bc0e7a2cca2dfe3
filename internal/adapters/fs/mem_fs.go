package fs

import (
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFileSystem keeps files in memory. Reads fall through to Base when a
// path was never written, so a build can read real sources while its
// pages stay in memory.
type MemFileSystem struct {
	Base FileSystem

	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemFileSystem(base FileSystem) *MemFileSystem {
	return &MemFileSystem{Base: base, files: make(map[string][]byte)}
}

func (m *MemFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.files[filepath.Clean(path)]
	m.mu.RUnlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	if m.Base != nil {
		return m.Base.ReadFile(path)
	}
	return nil, &iofs.PathError{Op: "open", Path: path, Err: iofs.ErrNotExist}
}

func (m *MemFileSystem) ReadDir(path string) ([]iofs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := filepath.Clean(path)
	seen := make(map[string]bool)
	var entries []iofs.DirEntry
	for name, data := range m.files {
		rel, err := filepath.Rel(dir, name)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		first, _, nested := strings.Cut(filepath.ToSlash(rel), "/")
		if seen[first] {
			continue
		}
		seen[first] = true
		entries = append(entries, memEntry{name: first, dir: nested, size: len(data)})
	}
	if len(entries) == 0 && m.Base != nil {
		return m.Base.ReadDir(path)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemFileSystem) FileExists(path string) bool {
	m.mu.RLock()
	_, ok := m.files[filepath.Clean(path)]
	m.mu.RUnlock()
	if ok {
		return true
	}
	return m.Base != nil && m.Base.FileExists(path)
}

func (m *MemFileSystem) WriteFile(path string, data []byte, perm iofs.FileMode) error {
	m.mu.Lock()
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

// MkdirAll is a no-op: directories exist implicitly.
func (m *MemFileSystem) MkdirAll(path string, perm iofs.FileMode) error {
	return nil
}

// Files returns the written paths in lexical order.
func (m *MemFileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type memEntry struct {
	name string
	dir  bool
	size int
}

func (e memEntry) Name() string { return e.name }
func (e memEntry) IsDir() bool  { return e.dir }

func (e memEntry) Type() iofs.FileMode {
	if e.dir {
		return iofs.ModeDir
	}
	return 0
}

func (e memEntry) Info() (iofs.FileInfo, error) {
	mode := iofs.FileMode(0o644)
	if e.dir {
		mode = iofs.ModeDir | 0o755
	}
	return memInfo{entry: e, mode: mode}, nil
}

type memInfo struct {
	entry memEntry
	mode  iofs.FileMode
}

func (i memInfo) Name() string        { return i.entry.name }
func (i memInfo) Size() int64         { return int64(i.entry.size) }
func (i memInfo) Mode() iofs.FileMode { return i.mode }
func (i memInfo) ModTime() time.Time  { return time.Time{} }
func (i memInfo) IsDir() bool         { return i.entry.dir }
func (i memInfo) Sys() any            { return nil }

var (
	_ FileSystem = (*MemFileSystem)(nil)
	_ FileSystem = (*OSFileSystem)(nil)
)
