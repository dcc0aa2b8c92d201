package mirror

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// AssetDir is the subdirectory of the mirror root that holds every
// downloaded stylesheet, script, image and font.
const AssetDir = "assets"

// manifestFile is the one basename placed at the mirror root instead of
// AssetDir, so browsers find it where the markup expects it.
const manifestFile = "manifest.json"

// ErrInvalidRef marks a reference that could not be resolved; the caller
// must leave the original reference text unmodified.
var ErrInvalidRef = errors.New("invalid reference")

// ResolvedAsset is the unit of dedupe and fetch: one instance per distinct
// absolute URL per run.
type ResolvedAsset struct {
	AbsoluteURL  string // full resolved URL, used as the fetch target
	LocalPath    string // slash-separated path relative to the mirror root
	RewrittenRef string // root-relative ref substituted into source text
	IsStylesheet bool   // drives recursive CSS scanning
}

// Resolve joins a raw reference against a base URL and assigns its local
// destination. Returns (nil, nil) for references that must be left
// untouched (data: URIs, fragments, non-fetchable schemes).
//
// The filename is derived with query and fragment stripped; the fetch
// target keeps the query, so versioned URLs still hit the right resource.
func Resolve(rawRef string, base *url.URL) (*ResolvedAsset, error) {
	raw := strings.TrimSpace(rawRef)
	if shouldIgnoreRef(raw) {
		return nil, nil
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRef, rawRef, err)
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil, nil
	}
	abs.Fragment = "" // fragments never change the fetched resource

	name := localName(abs)
	localPath := localPathFor(name)

	return &ResolvedAsset{
		AbsoluteURL:  abs.String(),
		LocalPath:    localPath,
		RewrittenRef: "./" + localPath,
		IsStylesheet: strings.EqualFold(path.Ext(name), ".css"),
	}, nil
}

// localPathFor applies the local path assignment rule to a stored
// filename. Every scanner (HTML, CSS, JS) goes through it, so the same
// remote file always maps to the same local file.
func localPathFor(name string) string {
	if name == manifestFile {
		return name
	}
	return path.Join(AssetDir, name)
}

// localName derives the stored filename from the URL path, with a fallback
// for host-root URLs that carry no usable basename. The query string lives
// in RawQuery, never in Path, so the name is already query-free.
func localName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		if u.Host != "" {
			return u.Host + ".html"
		}
		return "resource.bin"
	}
	return name
}

// shouldIgnoreRef filters out schemes that must never be fetched.
func shouldIgnoreRef(link string) bool {
	link = strings.ToLower(link)
	if link == "" {
		return true
	}
	if strings.HasPrefix(link, "data:") ||
		strings.HasPrefix(link, "#") ||
		strings.HasPrefix(link, "about:") ||
		strings.HasPrefix(link, "javascript:") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") ||
		strings.HasPrefix(link, "sms:") ||
		strings.HasPrefix(link, "blob:") ||
		strings.HasPrefix(link, "chrome:") {
		return true
	}
	return false
}
