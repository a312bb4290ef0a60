package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<p>hello</p>`)

	l := New([]string{dir})
	tmpl, err := l.Load("page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", tmpl.Name())

	// A second load serves the cached template.
	again, err := l.Load("page.html")
	require.NoError(t, err)
	assert.Same(t, tmpl, again)
}

func TestLoadSubdirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("layouts", "base.html"), `<html/>`)

	l := New([]string{dir})
	tmpl, err := l.Load("layouts/base.html")
	require.NoError(t, err)
	assert.Equal(t, "layouts/base.html", tmpl.Name())
}

func TestSearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "page.html", `<p>first</p>`)
	writeFile(t, second, "page.html", `<p>second</p>`)
	writeFile(t, second, "only.html", `<p>only</p>`)

	l := New([]string{first, second})

	tmpl, err := l.Load("page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", tmpl.Name())

	_, err = l.Load("only.html")
	require.NoError(t, err)
}

func TestNotFound(t *testing.T) {
	l := New([]string{t.TempDir()})
	_, err := l.Load("missing.html")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<p/>`)
	l := New([]string{dir})

	for _, name := range []string{"../page.html", "/etc/passwd", "a/../../page.html", "."} {
		_, err := l.Load(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
}

func TestParseErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.html", `<p>`)

	l := New([]string{dir})
	_, err := l.Load("broken.html")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAutoReload(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "page.html", `<p>v1</p>`)

	l := New([]string{dir}, WithAutoReload())
	tmpl, err := l.Load("page.html")
	require.NoError(t, err)

	// Unchanged mtime keeps the cached template.
	again, err := l.Load("page.html")
	require.NoError(t, err)
	assert.Same(t, tmpl, again)

	// Bump the mtime to force a re-parse.
	require.NoError(t, os.WriteFile(file, []byte(`<p>v2</p>`), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, later, later))

	reloaded, err := l.Load("page.html")
	require.NoError(t, err)
	assert.NotSame(t, tmpl, reloaded)
}

func TestNoAutoReload(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "page.html", `<p>v1</p>`)

	l := New([]string{dir})
	tmpl, err := l.Load("page.html")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte(`<p>v2</p>`), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, later, later))

	again, err := l.Load("page.html")
	require.NoError(t, err)
	assert.Same(t, tmpl, again)
}
