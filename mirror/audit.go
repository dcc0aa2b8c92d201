package mirror

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// localRefPattern matches local-path-shaped tokens the rewrite passes
// produce: asset-directory paths, plus root-level manifest files (the only
// root-level exception the path assignment rule can place there).
var localRefPattern = regexp.MustCompile(`(?:\./)?assets/[\w.%-]+|\./[\w.%-]+\.(?:json|webmanifest)`)

// Audit re-scans the final HTML and script texts for local references and
// reports every one with no file behind it. Purely diagnostic: it never
// mutates state and never aborts the run.
func Audit(htmlText string, jsTexts map[string]string, root string) []string {
	seen := make(map[string]bool)
	var dangling []string

	scan := func(text string) {
		for _, tok := range localRefPattern.FindAllString(text, -1) {
			rel := strings.TrimPrefix(tok, "./")
			if seen[rel] {
				continue
			}
			seen[rel] = true
			if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
				dangling = append(dangling, rel)
			}
		}
	}

	scan(htmlText)
	for _, text := range jsTexts {
		scan(text)
	}

	sort.Strings(dangling)
	for _, p := range dangling {
		slog.Warn("dangling local reference", "path", p)
	}
	return dangling
}
