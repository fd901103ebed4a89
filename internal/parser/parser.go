// Package parser reads and rewrites the YAML frontmatter of Markdown notes.
package parser

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Result holds the read-only view of a parsed Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse extracts frontmatter, body, and title from raw Markdown bytes.
// Invalid YAML is not an error here: the whole file is treated as body.
func Parse(data []byte) (*Result, error) {
	block, body, ok := splitFrontmatter(data)
	var fm map[string]any
	if ok {
		if err := yaml.Unmarshal(block, &fm); err != nil {
			fm = nil
			body = data
		}
	}
	fm = plainMap(fm)
	b := string(body)
	return &Result{
		Frontmatter: fm,
		Body:        b,
		Title:       deriveTitle(fm, b),
	}, nil
}

// splitFrontmatter separates the YAML block between a leading "---" line and
// the next "---" line from the rest of the file. The body keeps its original
// bytes. Without a closed header the whole file is body.
func splitFrontmatter(data []byte) (block, body []byte, ok bool) {
	first, pos := line(data, 0)
	if !isDelim(first) || pos >= len(data) {
		return nil, data, false
	}
	start := pos
	for pos < len(data) {
		l, next := line(data, pos)
		if isDelim(l) {
			return data[start:pos], data[next:], true
		}
		pos = next
	}
	return nil, data, false
}

// line returns the line starting at pos without its terminator, and the
// offset of the following line.
func line(data []byte, pos int) ([]byte, int) {
	i := bytes.IndexByte(data[pos:], '\n')
	if i < 0 {
		return data[pos:], len(data)
	}
	return data[pos : pos+i], pos + i + 1
}

func isDelim(l []byte) bool {
	return string(bytes.TrimRight(l, " \t\r")) == delim
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	for _, l := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// plainMap rewrites decoded YAML into values encoding/json accepts: nested
// mappings with non-string keys get their keys stringified, and NaN or
// infinite floats become their YAML spelling.
func plainMap(fm map[string]any) map[string]any {
	if fm == nil {
		return nil
	}
	out := make(map[string]any, len(fm))
	for k, v := range fm {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return plainMap(x)
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = plainValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = plainValue(val)
		}
		return out
	case float64:
		switch {
		case math.IsNaN(x):
			return ".nan"
		case math.IsInf(x, 1):
			return ".inf"
		case math.IsInf(x, -1):
			return "-.inf"
		}
	}
	return v
}

// Truthy reports whether a frontmatter value counts as present. Missing,
// null, empty strings, false and numeric zero are all absent.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// HasValue reports whether fm carries a present value at key.
func HasValue(fm map[string]any, key string) bool {
	return Truthy(fm[key])
}
