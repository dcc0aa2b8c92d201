package mirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteStorageURLs(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string][]byte{
		"https://storage.test/bucket/file.pdf?token=xyz": []byte("pdf"),
	})
	cache := NewFetchCache(f, dir)

	js := `const a = "https://storage.test/bucket/file.pdf?token=xyz";` +
		`open("https://storage.test/bucket/file.pdf?token=xyz");`

	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	assert.Equal(t, 1, fetched)
	assert.Equal(t, 1, f.callCount("https://storage.test/bucket/file.pdf?token=xyz"))
	assert.NotContains(t, out, "storage.test")
	assert.Equal(t, 2, strings.Count(out, `"./assets/file.pdf"`))
}

func TestRewriteStorageURLsDistinctQueries(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string][]byte{
		"https://storage.test/bucket/file.pdf?token=a": []byte("pdf"),
		"https://storage.test/bucket/file.pdf?token=b": []byte("pdf"),
	})
	cache := NewFetchCache(f, dir)

	js := `x("https://storage.test/bucket/file.pdf?token=a");` +
		`y("https://storage.test/bucket/file.pdf?token=b");`

	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	require.Equal(t, 1, fetched, "same basename is fetched once")
	assert.Equal(t, 2, strings.Count(out, `./assets/file.pdf`))
	assert.NotContains(t, out, "storage.test")
}

func TestRewriteStorageURLsPrefixCollision(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string][]byte{
		"https://storage.test/x.js":     []byte("js"),
		"https://storage.test/x.js.map": []byte("map"),
	})
	cache := NewFetchCache(f, dir)

	js := `a="https://storage.test/x.js";b="https://storage.test/x.js.map";`

	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	assert.Equal(t, 2, fetched)
	assert.Contains(t, out, `a="./assets/x.js"`)
	assert.Contains(t, out, `b="./assets/x.js.map"`,
		"the longer URL must be substituted before its prefix")
}

func TestRewriteStorageURLsFailOpen(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string][]byte{})
	cache := NewFetchCache(f, dir)

	js := `load("https://storage.test/gone.bin");`
	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	assert.Equal(t, 0, fetched)
	assert.Contains(t, out, `load("./assets/gone.bin")`,
		"references are rewritten even when the fetch fails")
	assert.Len(t, cache.Failed(), 1)
}

func TestRewriteStorageURLsManifestAtRoot(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string][]byte{
		"https://storage.test/site/manifest.json": []byte(`{"name":"test"}`),
	})
	cache := NewFetchCache(f, dir)

	js := `load("https://storage.test/site/manifest.json");`
	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	assert.Equal(t, 1, fetched)
	assert.Contains(t, out, `load("./manifest.json")`,
		"script-discovered references follow the same local path rule as markup")

	_, err := os.Stat(filepath.Join(dir, "manifest.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "assets", "manifest.json"))
	assert.Error(t, err, "the manifest must not be duplicated under the asset directory")
}

func TestRewriteStorageURLsNoMatches(t *testing.T) {
	dir := t.TempDir()
	cache := NewFetchCache(newFakeFetcher(nil), dir)

	js := `const a = "https://other.example.net/file.pdf";`
	out, fetched := RewriteStorageURLs(context.Background(), cache, js, "storage.test")

	assert.Equal(t, js, out)
	assert.Equal(t, 0, fetched)
}

func TestIsScriptPath(t *testing.T) {
	assert.True(t, isScriptPath("assets/index.js"))
	assert.True(t, isScriptPath("assets/app.MJS"))
	assert.False(t, isScriptPath("assets/style.css"))
	assert.False(t, isScriptPath("manifest.json"))
}
