// Package exclude decides which vault documents are in scope for identifiers.
package exclude

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/starford/vaultid/internal/models"
)

// IsExcluded reports whether path starts with any of prefixes. Matching is a
// plain case-sensitive prefix test on NFC forms; an empty prefix excludes
// everything.
func IsExcluded(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return false
	}
	path = norm.NFC.String(path)
	for _, p := range prefixes {
		if strings.HasPrefix(path, norm.NFC.String(p)) {
			return true
		}
	}
	return false
}

// Eligible reports whether doc is a Markdown note outside every excluded prefix.
func Eligible(doc models.Document, prefixes []string) bool {
	return doc.Extension == models.MarkdownExt && !IsExcluded(doc.Path, prefixes)
}

// Normalize cleans user-entered exclusion lines: blanks are dropped, separators
// become forward slashes, and leading "./", "/" and trailing "/" are stripped.
// Non-breaking spaces become plain spaces and the result is in NFC form.
// Duplicates after cleaning are removed, keeping first occurrence order.
func Normalize(lines []string) []string {
	out := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		p := normalizePath(line)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SplitLines parses a newline-separated exclusion list, as typed into a
// text area, and normalizes it.
func SplitLines(text string) []string {
	return Normalize(strings.Split(text, "\n"))
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\u00a0", " ")
	p = norm.NFC.String(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}
