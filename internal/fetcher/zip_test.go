package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"stations.shp":     "shapes",
		"stations.dbf":     "attrs",
		"nested/notes.txt": "notes",
	})

	destDir := t.TempDir()
	paths, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	shp, ok := FindByExt(paths, ".shp")
	require.True(t, ok)
	data, err := os.ReadFile(shp)
	require.NoError(t, err)
	assert.Equal(t, "shapes", string(data))

	// Nested entries are flattened to their base name.
	for _, p := range paths {
		assert.Equal(t, destDir, filepath.Dir(p))
	}
}

func TestExtractZIP_BadArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ExtractZIP(path, t.TempDir())
	assert.Error(t, err)
}

func TestFindByExt(t *testing.T) {
	paths := []string{"/tmp/a.dbf", "/tmp/b.SHP", "/tmp/c.csv"}

	got, ok := FindByExt(paths, ".shp")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/b.SHP", got)

	_, ok = FindByExt(paths, ".prj")
	assert.False(t, ok)
}
