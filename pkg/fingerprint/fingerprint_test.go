package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func includeAll(string) bool { return true }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCompute_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp4", "aaa")
	writeFile(t, dir, "b.mp4", "bbbb")

	first, err := Compute(dir, includeAll)
	require.NoError(t, err)
	second, err := Compute(dir, includeAll)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestCompute_SensitiveToName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.mp4", "aaa")

	before, err := Compute(dir, includeAll)
	require.NoError(t, err)

	require.NoError(t, os.Rename(path, filepath.Join(dir, "b.mp4")))

	after, err := Compute(dir, includeAll)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestCompute_SensitiveToSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.mp4", "aaa")

	before, err := Compute(dir, includeAll)
	require.NoError(t, err)

	// Preserve the mtime so size is the only thing changing.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("aaaa"), 0600))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	after, err := Compute(dir, includeAll)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestCompute_SensitiveToModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.mp4", "aaa")

	before, err := Compute(dir, includeAll)
	require.NoError(t, err)

	newTime := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	after, err := Compute(dir, includeAll)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestCompute_IgnoresSubfolders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp4", "aaa")

	before, err := Compute(dir, includeAll)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	writeFile(t, filepath.Join(dir, "sub"), "nested.mp4", "nested")

	after, err := Compute(dir, includeAll)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCompute_IgnoresExcludedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp4", "aaa")

	include := func(name string) bool {
		return !strings.HasPrefix(name, "._")
	}

	before, err := Compute(dir, include)
	require.NoError(t, err)

	writeFile(t, dir, "._a.mp4", "resource fork")

	after, err := Compute(dir, include)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
