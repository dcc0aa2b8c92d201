package mirror

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// storagePattern matches fully-qualified URLs on the given host inside
// script text. The match stops at whitespace, quotes or backslashes, so no
// quoting analysis of the surrounding JavaScript is needed.
func storagePattern(host string) *regexp.Regexp {
	return regexp.MustCompile(`https://` + regexp.QuoteMeta(host) + "/[^\\s\"'`\\\\]+")
}

// RewriteStorageURLs localizes remote-storage URLs embedded in bundled
// script text: each distinct match is mapped to ./assets/<basename>
// (query string stripped from the filename), fetched if not already on
// disk, and every literal occurrence is substituted. Returns the rewritten
// text and the number of network fetches performed.
//
// Matches are fetched in first-seen order. Substitution runs against the
// captured match strings, longest first, so a URL that is a prefix of
// another can never clobber it.
func RewriteStorageURLs(ctx context.Context, cache *FetchCache, jsText, host string) (string, int) {
	if host == "" {
		return jsText, 0
	}
	matches := storagePattern(host).FindAllString(jsText, -1)
	if len(matches) == 0 {
		return jsText, 0
	}

	seen := make(map[string]bool)
	var distinct []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			distinct = append(distinct, m)
		}
	}

	before := cache.Written()
	local := make(map[string]string)
	for _, raw := range distinct {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		// Same name and path assignment as the HTML/CSS scanners, so a
		// file referenced from several syntaxes lands in one place.
		localPath := localPathFor(localName(u))
		asset := &ResolvedAsset{
			AbsoluteURL:  raw,
			LocalPath:    localPath,
			RewrittenRef: "./" + localPath,
		}
		// Rewritten even when the fetch fails: the broken link is the
		// audit's to report, not a reason to leave a remote URL behind.
		cache.FetchOnce(ctx, asset)
		local[raw] = asset.RewrittenRef
	}

	ordered := make([]string, 0, len(local))
	for raw := range local {
		ordered = append(ordered, raw)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})
	for _, raw := range ordered {
		jsText = strings.ReplaceAll(jsText, raw, local[raw])
	}

	return jsText, cache.Written() - before
}

// isScriptPath reports whether a local path names a script-like file.
func isScriptPath(localPath string) bool {
	switch strings.ToLower(path.Ext(localPath)) {
	case ".js", ".mjs":
		return true
	}
	return false
}
