package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_ReadsContentAndMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jl")
	writeFile(t, path, "x = 1\n")

	item, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, item.Path)
	assert.Equal(t, "x = 1\n", string(item.Content))
	assert.Equal(t, int64(6), item.Meta.Size)
	assert.False(t, item.Meta.LastModified.IsZero())
}

func TestLoadAll_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.jl")
	writeFile(t, good, "x = 1\n")

	items := LoadAll([]string{good, filepath.Join(dir, "missing.jl")})
	require.Len(t, items, 1)
	assert.Equal(t, good, items[0].Path)
}

func TestFromString(t *testing.T) {
	item := FromString("buffer.jl", "y = 2\n")
	assert.Equal(t, "buffer.jl", item.Path)
	assert.Equal(t, "y = 2\n", string(item.Content))
	assert.Equal(t, int64(6), item.Meta.Size)
}

func TestIsJuliaFile(t *testing.T) {
	assert.True(t, IsJuliaFile("src/main.jl"))
	assert.True(t, IsJuliaFile("SRC/MAIN.JL"))
	assert.False(t, IsJuliaFile("main.go"))
	assert.False(t, IsJuliaFile("jl"))
}

func TestDiscovery_WalkFindsJuliaFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.jl"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "src", "util.jl"), "y = 2\n")
	writeFile(t, filepath.Join(dir, "README.md"), "docs\n")
	writeFile(t, filepath.Join(dir, ".hidden", "skip.jl"), "z = 3\n")

	paths, err := Discovery{}.Files(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "main.jl"),
		filepath.Join(dir, "src", "util.jl"),
	}, paths)
}

func TestDiscovery_HonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "generated.jl\n")
	writeFile(t, filepath.Join(dir, "main.jl"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "generated.jl"), "y = 2\n")

	paths, err := Discovery{}.Files(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "main.jl")}, paths)
}

func TestDiscovery_IncludeExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.jl"), "a = 1\n")
	writeFile(t, filepath.Join(dir, "src", "b.jl"), "b = 2\n")
	writeFile(t, filepath.Join(dir, "test", "c.jl"), "c = 3\n")

	d := Discovery{
		Include: []string{"src/**/*.jl", "src/*.jl"},
		Exclude: []string{"src/b.jl"},
	}
	paths, err := d.Files(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "src", "a.jl")}, paths)
}
