package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestDiscoverImageFilesFlat(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.png"))
	b := touch(t, filepath.Join(dir, "b.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	nested := touch(t, filepath.Join(dir, "sub", "c.png"))

	files, err := discoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	files, err = discoverImageFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, nested}, files)
}

func TestDiscoverImageFilesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.png"))
	txt := touch(t, filepath.Join(dir, "notes.txt"))

	files, err := discoverImageFiles([]string{a, txt}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestDiscoverImageFilesPatterns(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "card_a.png"))
	touch(t, filepath.Join(dir, "scan_b.png"))

	files, err := discoverImageFiles([]string{dir}, false, []string{"card_*"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)

	files, err = discoverImageFiles([]string{dir}, false, nil, []string{"scan_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestDiscoverImageFilesMissing(t *testing.T) {
	_, err := discoverImageFiles([]string{"/no/such/path"}, false, nil, nil)
	require.Error(t, err)
}

func TestShouldIncludeFile(t *testing.T) {
	assert.True(t, shouldIncludeFile("dir/card.png", nil, nil))
	assert.False(t, shouldIncludeFile("dir/card.txt", nil, nil))
	assert.False(t, shouldIncludeFile("dir/card.png", nil, []string{"card.*"}))
	assert.True(t, shouldIncludeFile("dir/card.png", []string{"card.*"}, nil))
	assert.False(t, shouldIncludeFile("dir/other.png", []string{"card.*"}, nil))
}
