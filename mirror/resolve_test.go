package mirror

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolveRootRelative(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("/img/logo.png", base)
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "https://example.com/img/logo.png", asset.AbsoluteURL)
	assert.Equal(t, "assets/logo.png", asset.LocalPath)
	assert.Equal(t, "./assets/logo.png", asset.RewrittenRef)
	assert.False(t, asset.IsStylesheet)
}

func TestResolvePathRelativeAgainstStylesheet(t *testing.T) {
	base := mustParse(t, "https://example.com/assets/style.css")

	asset, err := Resolve("../fonts/a.woff2?v=2", base)
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "https://example.com/fonts/a.woff2?v=2", asset.AbsoluteURL,
		"fetch target keeps the query string")
	assert.Equal(t, "assets/a.woff2", asset.LocalPath,
		"stored filename drops the query string")
}

func TestResolveLocalPathDeterminism(t *testing.T) {
	// The same remote file reached through different reference syntaxes
	// must map to the identical local path.
	htmlBase := mustParse(t, "https://example.com/")
	cssBase := mustParse(t, "https://example.com/assets/style.css")

	a, err := Resolve("/img/logo.png", htmlBase)
	require.NoError(t, err)
	b, err := Resolve("../img/logo.png", cssBase)
	require.NoError(t, err)

	assert.Equal(t, a.AbsoluteURL, b.AbsoluteURL)
	assert.Equal(t, a.LocalPath, b.LocalPath)
}

func TestResolveManifestAtRoot(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("/manifest.json", base)
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "manifest.json", asset.LocalPath)
	assert.Equal(t, "./manifest.json", asset.RewrittenRef)
}

func TestResolveStylesheetFlag(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("/assets/style.CSS", base)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.True(t, asset.IsStylesheet)
}

func TestResolveIgnoredSchemes(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	for _, raw := range []string{
		"data:image/png;base64,iVBORw0KGgo=",
		"#section",
		"javascript:void(0)",
		"mailto:hi@example.com",
		"tel:+123456789",
		"",
	} {
		asset, err := Resolve(raw, base)
		assert.NoError(t, err, raw)
		assert.Nil(t, asset, raw)
	}
}

func TestResolveSchemeRelative(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("//cdn.example.net/lib.js", base)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "https://cdn.example.net/lib.js", asset.AbsoluteURL)
	assert.Equal(t, "assets/lib.js", asset.LocalPath)
}

func TestResolveFragmentStripped(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	a, err := Resolve("/icons.svg#arrow", base)
	require.NoError(t, err)
	b, err := Resolve("/icons.svg#circle", base)
	require.NoError(t, err)

	assert.Equal(t, a.AbsoluteURL, b.AbsoluteURL,
		"fragments never change the fetched resource")
}

func TestResolveHostRootFallback(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("https://widget.example.net/", base)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "assets/widget.example.net.html", asset.LocalPath)
}

func TestResolveMalformed(t *testing.T) {
	base := mustParse(t, "https://example.com/")

	asset, err := Resolve("http://example.com/\x7f", base)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRef)
	assert.Nil(t, asset)
}
