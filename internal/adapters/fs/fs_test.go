package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFileSystemFallsThroughToBase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "page.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("<html></html>"), 0o644))

	mem := NewMemFileSystem(NewOSFileSystem())
	data, err := mem.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	out := filepath.Join(dir, "build", "page.html")
	require.NoError(t, mem.MkdirAll(filepath.Dir(out), 0o755))
	require.NoError(t, mem.WriteFile(out, []byte("rendered"), 0o644))

	assert.True(t, mem.FileExists(out))
	assert.NoFileExists(t, out)
	assert.Equal(t, []string{out}, mem.Files())

	data, err = mem.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "rendered", string(data))
}

func TestMemFileSystemReadDir(t *testing.T) {
	mem := NewMemFileSystem(nil)
	require.NoError(t, mem.WriteFile("/out/b.html", []byte("b"), 0o644))
	require.NoError(t, mem.WriteFile("/out/a.html", []byte("a"), 0o644))
	require.NoError(t, mem.WriteFile("/out/nested/c.html", []byte("c"), 0o644))

	entries, err := mem.ReadDir("/out")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.html", entries[0].Name())
	assert.Equal(t, "b.html", entries[1].Name())
	assert.Equal(t, "nested", entries[2].Name())
	assert.True(t, entries[2].IsDir())

	_, err = mem.ReadFile("/out/missing.html")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
