package fs

import (
	iofs "io/fs"
)

// FileSystem is what the build touches on disk: entry sources, written
// pages and the manifest, and scaffolded project files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]iofs.DirEntry, error)
	FileExists(path string) bool
	WriteFile(path string, data []byte, perm iofs.FileMode) error
	MkdirAll(path string, perm iofs.FileMode) error
}
