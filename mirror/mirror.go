package mirror

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sitemirror/fetch"
)

// RenderFunc fetches the entry page through a rendering transport (a
// headless browser) instead of a plain GET.
type RenderFunc func(ctx context.Context, rawURL string) ([]byte, error)

// Mirrorer drives a single mirror pass: it owns the document tree, the
// fetch cache, and the CSS/JS scanning of downloaded text content.
type Mirrorer struct {
	EntryURL    string
	OutputDir   string
	StorageHost string // host whose URLs get localized inside scripts
	BadgeMatch  string // substring of the promotional script src to strip

	fetcher    fetch.Fetcher
	render     RenderFunc
	cache      *FetchCache
	scannedCSS map[string]bool
}

// Result is the outcome of a completed mirror pass. A non-nil Result means
// index.html was written, even if some assets failed.
type Result struct {
	Written  int           // files downloaded and written
	Bytes    int64         // total size of downloaded files
	Failed   []FailedAsset // assets whose fetch failed (links now dangle)
	Dangling []string      // local paths referenced but missing on disk
}

// NewMirrorer creates a Mirrorer. render may be nil, in which case the
// entry page is fetched through the plain transport.
func NewMirrorer(entryURL, outputDir, storageHost, badgeMatch string, fetcher fetch.Fetcher, render RenderFunc) *Mirrorer {
	return &Mirrorer{
		EntryURL:    entryURL,
		OutputDir:   outputDir,
		StorageHost: storageHost,
		BadgeMatch:  badgeMatch,
		fetcher:     fetcher,
		render:      render,
		cache:       NewFetchCache(fetcher, outputDir),
		scannedCSS:  make(map[string]bool),
	}
}

// assetSelectors lists every asset-bearing attribute the document pass
// rewrites. Anchor hrefs are deliberately absent: this is a single-page
// mirror, not a crawler.
var assetSelectors = []struct {
	selector string
	attr     string
}{
	{`link[rel="stylesheet"]`, "href"},
	{`link[rel~="icon"]`, "href"},
	{`link[rel="apple-touch-icon"]`, "href"},
	{`link[rel="manifest"]`, "href"},
	{`script[src]`, "src"},
	{`img[src]`, "src"},
	{`meta[property="og:image"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
}

// Mirror performs one full pass and writes the mirror under OutputDir.
// Only an entry-page failure is fatal; every other failure degrades to a
// warning carried on the Result.
func (m *Mirrorer) Mirror(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(filepath.Join(m.OutputDir, AssetDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	entry, err := m.fetchEntry(ctx)
	if err != nil {
		return nil, fmt.Errorf("entry fetch failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(entry))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	base, err := url.Parse(m.EntryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	m.stripBadge(doc)

	// Attributes are rewritten immediately, before any fetch, so the
	// output document is self-referential even under partial failure.
	queue := m.collectAndRewrite(doc, base)

	// Sequential fetch in discovery order; stylesheet bodies are kept for
	// the recursion pass, script assets for the rewrite pass.
	type sheet struct {
		asset *ResolvedAsset
		data  []byte
	}
	var sheets []sheet
	var scripts []*ResolvedAsset
	for _, asset := range queue {
		data, err := m.cache.FetchOnce(ctx, asset)
		if err != nil {
			continue
		}
		if asset.IsStylesheet {
			sheets = append(sheets, sheet{asset, data})
		}
		if isScriptPath(asset.LocalPath) {
			scripts = append(scripts, asset)
		}
	}

	for _, s := range sheets {
		m.processStylesheet(ctx, s.asset.AbsoluteURL, s.data)
	}

	jsTexts := m.rewriteScripts(ctx, scripts)

	AppendTrailingMarkup(doc, FeedbackInterceptor, ChatWidget)

	htmlOut, err := renderDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	dangling := Audit(htmlOut, jsTexts, m.OutputDir)

	outPath := filepath.Join(m.OutputDir, "index.html")
	if err := os.WriteFile(outPath, []byte(htmlOut), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return &Result{
		Written:  m.cache.Written(),
		Bytes:    m.cache.BytesWritten(),
		Failed:   m.cache.Failed(),
		Dangling: dangling,
	}, nil
}

func (m *Mirrorer) fetchEntry(ctx context.Context) ([]byte, error) {
	if m.render != nil {
		return m.render(ctx, m.EntryURL)
	}
	return m.fetcher.Fetch(ctx, m.EntryURL)
}

// stripBadge removes the third-party promotional script tag, matched by a
// substring of its src. Absence is not an error.
func (m *Mirrorer) stripBadge(doc *goquery.Document) {
	if m.BadgeMatch == "" {
		return
	}
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); strings.Contains(src, m.BadgeMatch) {
			s.Remove()
			slog.Debug("removed badge script", "src", src)
		}
	})
}

// collectAndRewrite walks the asset-bearing attributes, rewrites each to
// its local path, and returns the distinct assets in discovery order.
// Unresolvable references are logged and left byte-identical.
func (m *Mirrorer) collectAndRewrite(doc *goquery.Document, base *url.URL) []*ResolvedAsset {
	var queue []*ResolvedAsset
	queued := make(map[string]bool)

	for _, rule := range assetSelectors {
		doc.Find(rule.selector).Each(func(_ int, s *goquery.Selection) {
			raw, ok := s.Attr(rule.attr)
			if !ok {
				return
			}
			asset, err := Resolve(raw, base)
			if err != nil {
				slog.Warn("skipping unresolvable reference", "ref", raw, "error", err)
				return
			}
			if asset == nil {
				return // data: URI or fragment; leave untouched
			}
			s.SetAttr(rule.attr, asset.RewrittenRef)
			if !queued[asset.AbsoluteURL] {
				queued[asset.AbsoluteURL] = true
				queue = append(queue, asset)
			}
		})
	}
	return queue
}

// rewriteScripts re-reads each downloaded script from disk, localizes its
// remote-storage URLs, and writes it back when changed. Returns the final
// script texts keyed by local path, for the audit.
func (m *Mirrorer) rewriteScripts(ctx context.Context, scripts []*ResolvedAsset) map[string]string {
	jsTexts := make(map[string]string)
	for _, asset := range scripts {
		full := filepath.Join(m.OutputDir, filepath.FromSlash(asset.LocalPath))
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		text, fetched := RewriteStorageURLs(ctx, m.cache, string(data), m.StorageHost)
		if text != string(data) {
			if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
				slog.Warn("failed to write rewritten script", "path", asset.LocalPath, "error", err)
				continue
			}
			slog.Debug("rewrote script", "path", asset.LocalPath, "fetched", fetched)
		}
		jsTexts[asset.LocalPath] = text
	}
	return jsTexts
}

// renderDocument serializes the mutated tree back to text. The parser does
// not invent a doctype, so one is prepended when missing to keep browsers
// out of quirks mode.
func renderDocument(doc *goquery.Document) (string, error) {
	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	out := buf.String()
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "<!doctype") {
		out = "<!DOCTYPE html>\n" + out
	}
	return out, nil
}
