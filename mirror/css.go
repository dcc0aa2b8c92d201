package mirror

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// cssURLPattern matches url("..."), url('...') and url(...) — the URL is
// captured in group 1. A lexical scan, not a CSS parser: unusual escaping
// inside the parentheses can evade it, which is an accepted limitation.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// ExtractCSSRefs returns the candidate resource references found in
// stylesheet text. Inline data: URIs and already-absolute http(s) URLs are
// filtered out; only scheme-relative and path-relative references survive.
func ExtractCSSRefs(cssText string) []string {
	var refs []string
	for _, m := range cssURLPattern.FindAllStringSubmatch(cssText, -1) {
		ref := strings.TrimSpace(m[1])
		if ref == "" {
			continue
		}
		lower := strings.ToLower(ref)
		if strings.HasPrefix(lower, "data:") ||
			strings.HasPrefix(lower, "http://") ||
			strings.HasPrefix(lower, "https://") {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// processStylesheet fetches every resource a stylesheet references,
// resolving against the stylesheet's own URL — stylesheets may live in a
// deeper path than the document. The CSS text itself is left pointing at
// its original references; fetching alone is enough because the stored
// filename matches what the reference resolves to.
//
// Stylesheets discovered inside stylesheets are scanned in turn, with a
// visited set guarding against import cycles.
func (m *Mirrorer) processStylesheet(ctx context.Context, cssURL string, content []byte) {
	if m.scannedCSS[cssURL] {
		return
	}
	m.scannedCSS[cssURL] = true

	base, err := url.Parse(cssURL)
	if err != nil {
		slog.Warn("skipping stylesheet with unparsable URL", "url", cssURL, "error", err)
		return
	}

	for _, ref := range ExtractCSSRefs(string(content)) {
		asset, err := Resolve(ref, base)
		if err != nil {
			slog.Warn("skipping unresolvable CSS reference", "ref", ref, "error", err)
			continue
		}
		if asset == nil {
			continue
		}
		data, err := m.cache.FetchOnce(ctx, asset)
		if err != nil {
			continue
		}
		if asset.IsStylesheet {
			m.processStylesheet(ctx, asset.AbsoluteURL, data)
		}
	}
}
