package parser

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter is returned by ParseNote when the header exists but is
// not a YAML mapping.
var ErrInvalidFrontmatter = errors.New("invalid frontmatter")

// Frontmatter is a mutable view of a note's YAML header. Key order, comments
// and formatting of untouched keys survive a rewrite.
type Frontmatter struct {
	root    *yaml.Node
	changed bool
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// index returns the position of key's key node in root.Content, or -1.
func (f *Frontmatter) index(key string) int {
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		if f.root.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// Get returns the decoded value at key.
func (f *Frontmatter) Get(key string) (any, bool) {
	i := f.index(key)
	if i < 0 {
		return nil, false
	}
	var v any
	if err := f.root.Content[i+1].Decode(&v); err != nil {
		return nil, true
	}
	return v, true
}

// Has reports whether key carries a present value (see Truthy).
func (f *Frontmatter) Has(key string) bool {
	v, _ := f.Get(key)
	return Truthy(v)
}

// Set writes value as a string scalar at key, appending the key if absent.
func (f *Frontmatter) Set(key, value string) {
	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if i := f.index(key); i >= 0 {
		f.root.Content[i+1] = val
	} else {
		f.root.Content = append(f.root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			val,
		)
	}
	f.changed = true
}

// Delete removes key and reports whether it was present.
func (f *Frontmatter) Delete(key string) bool {
	i := f.index(key)
	if i < 0 {
		return false
	}
	f.root.Content = append(f.root.Content[:i], f.root.Content[i+2:]...)
	f.changed = true
	return true
}

// Keys returns the header keys in file order.
func (f *Frontmatter) Keys() []string {
	out := make([]string, 0, len(f.root.Content)/2)
	for i := 0; i+1 < len(f.root.Content); i += 2 {
		out = append(out, f.root.Content[i].Value)
	}
	return out
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	return len(f.root.Content) / 2
}

// Changed reports whether Set or Delete modified the header.
func (f *Frontmatter) Changed() bool {
	return f.changed
}

// Map decodes the header into a plain map.
func (f *Frontmatter) Map() map[string]any {
	out := make(map[string]any, f.Len())
	if err := f.root.Decode(&out); err != nil {
		return map[string]any{}
	}
	return plainMap(out)
}

// Note is a Markdown file split into an editable header and an opaque body.
type Note struct {
	raw   []byte
	block []byte
	body  []byte
	lead  []byte
	fm    *Frontmatter
}

// ParseNote parses data for editing. Unlike Parse, a header that is present
// but not a valid YAML mapping is an error, so callers never stack a second
// header on top of a broken one.
func ParseNote(data []byte) (*Note, error) {
	block, body, ok := splitFrontmatter(data)
	n := &Note{raw: data, block: block, body: body, fm: &Frontmatter{root: newMapping()}}
	if !ok {
		return n, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	if len(doc.Content) == 0 {
		// A header of only comments: keep them above any keys added later.
		n.lead = commentLines(block)
		return n, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: header is not a mapping", ErrInvalidFrontmatter)
	}
	n.fm.root = root
	return n, nil
}

// Frontmatter returns the editable header.
func (n *Note) Frontmatter() *Frontmatter {
	return n.fm
}

// Bytes renders the note. An unchanged note returns its original bytes. A
// header left with no keys keeps only its full-line comments, and is dropped
// entirely when it had none.
func (n *Note) Bytes() ([]byte, error) {
	if !n.fm.changed {
		return n.raw, nil
	}
	var buf bytes.Buffer
	if n.fm.Len() == 0 {
		comments := commentLines(n.block)
		if len(comments) == 0 {
			return n.body, nil
		}
		buf.WriteString(delim + "\n")
		buf.Write(comments)
		buf.WriteString(delim + "\n")
		buf.Write(n.body)
		return buf.Bytes(), nil
	}
	buf.WriteString(delim + "\n")
	buf.Write(n.lead)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n.fm.root); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.Write(n.body)
	return buf.Bytes(), nil
}

// commentLines returns the full-line YAML comments of block, each ending in
// a newline.
func commentLines(block []byte) []byte {
	var out []byte
	for pos := 0; pos < len(block); {
		l, next := line(block, pos)
		if bytes.HasPrefix(bytes.TrimSpace(l), []byte("#")) {
			out = append(out, bytes.TrimRight(l, "\r")...)
			out = append(out, '\n')
		}
		pos = next
	}
	return out
}
