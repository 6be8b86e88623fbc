package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(`<html><body><h1>Home</h1></body></html>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "products", "neem.html"), []byte(`<p>Neem</p>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "style.css"), []byte(`body{}`), 0o644))
	return root
}

func TestDir_Pages(t *testing.T) {
	dir := New(writeSite(t))
	pages, err := dir.Pages()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "products/neem.html"}, pages)
}

func TestDir_Open(t *testing.T) {
	dir := New(writeSite(t))

	doc, err := dir.Open("index.html")
	require.NoError(t, err)
	assert.Equal(t, "Home", doc.Find("h1").Text())

	_, err = dir.Open("missing.html")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDir_Resolve(t *testing.T) {
	root := writeSite(t)
	dir := New(root)

	file, err := dir.Resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), file)

	_, err = dir.Resolve("..\\secret")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = dir.Resolve("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestWriteRoundTrip(t *testing.T) {
	src := New(writeSite(t))
	out := t.TempDir()

	doc, err := src.Open("products/neem.html")
	require.NoError(t, err)
	doc.Find("p").SetText("Neem Oil")
	require.NoError(t, Write(out, "products/neem.html", doc))

	written, err := New(out).Open("products/neem.html")
	require.NoError(t, err)
	assert.Equal(t, "Neem Oil", written.Find("p").Text())
	assert.True(t, IsPage("A.HTML"))
	assert.False(t, IsPage("style.css"))
}
