package parser

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nuuid: 123\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if !HasValue(r.Frontmatter, "uuid") {
		t.Errorf("frontmatter = %v, want uuid present", r.Frontmatter)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q, want whole input", r.Body)
	}
}

func TestParse_UnclosedHeaderIsBody(t *testing.T) {
	input := []byte("---\ntitle: x\nno closing line\n")
	r, _ := Parse(input)
	if r.Frontmatter != nil {
		t.Errorf("unclosed header should not parse, got %v", r.Frontmatter)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	if title := deriveTitle(fm, "# H1 Title\ntext"); title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	if title := deriveTitle(nil, "some text\n# My Heading\nmore"); title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}

func TestTruthy(t *testing.T) {
	absent := []any{nil, "", false, 0, int64(0), 0.0}
	for _, v := range absent {
		if Truthy(v) {
			t.Errorf("Truthy(%#v) = true, want false", v)
		}
	}
	present := []any{"x", true, 7, 1.5, []any{}, map[string]any{}}
	for _, v := range present {
		if !Truthy(v) {
			t.Errorf("Truthy(%#v) = false, want true", v)
		}
	}
}

func TestNote_SetPreservesOrderAndBody(t *testing.T) {
	input := "---\ntitle: Hello # greeting\ntags:\n  - a\n---\n\nBody stays\r\nexactly.\n"
	n, err := ParseNote([]byte(input))
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	n.Frontmatter().Set("uuid", "abc")
	out, err := n.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	s := string(out)
	if !strings.HasSuffix(s, "---\n\nBody stays\r\nexactly.\n") {
		t.Errorf("body not preserved: %q", s)
	}
	if !strings.Contains(s, "# greeting") {
		t.Errorf("comment lost: %q", s)
	}
	ti, ui := strings.Index(s, "title:"), strings.Index(s, "uuid: abc")
	if ti < 0 || ui < 0 || ti > ui {
		t.Errorf("key order wrong: %q", s)
	}
}

func TestNote_AddToPlainNoteThenRemoveRestoresBytes(t *testing.T) {
	input := []byte("# Plain\nNo header here.\n")
	n, err := ParseNote(input)
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	n.Frontmatter().Set("ulid", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	added, err := n.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(added), "---\nulid: 01ARZ3NDEKTSV4RRFFQ69G5FAV\n---\n# Plain") {
		t.Fatalf("unexpected rendering: %q", added)
	}

	n2, err := ParseNote(added)
	if err != nil {
		t.Fatal(err)
	}
	if !n2.Frontmatter().Delete("ulid") {
		t.Fatal("Delete should report the key was present")
	}
	removed, err := n2.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(removed) != string(input) {
		t.Errorf("round trip = %q, want %q", removed, input)
	}
}

func TestNote_UnchangedReturnsRaw(t *testing.T) {
	input := []byte("---\na:   1\n---\nbody")
	n, _ := ParseNote(input)
	out, _ := n.Bytes()
	if string(out) != string(input) {
		t.Errorf("unchanged note rewritten: %q", out)
	}
}

func TestNote_SetOverwritesExisting(t *testing.T) {
	n, _ := ParseNote([]byte("---\nuuid: old\nother: 1\n---\n"))
	fm := n.Frontmatter()
	fm.Set("uuid", "new")
	v, ok := fm.Get("uuid")
	if !ok || v != "new" {
		t.Errorf("uuid = %v, want new", v)
	}
	if got := fm.Keys(); len(got) != 2 || got[0] != "uuid" {
		t.Errorf("keys = %v", got)
	}
}

func TestParseNote_InvalidHeader(t *testing.T) {
	_, err := ParseNote([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, ErrInvalidFrontmatter) {
		t.Errorf("err = %v, want ErrInvalidFrontmatter", err)
	}
	_, err = ParseNote([]byte("---\n- a\n- b\n---\n"))
	if !errors.Is(err, ErrInvalidFrontmatter) {
		t.Errorf("list header err = %v, want ErrInvalidFrontmatter", err)
	}
}

func TestParseNote_EmptyHeader(t *testing.T) {
	n, err := ParseNote([]byte("---\n---\nbody\n"))
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	if n.Frontmatter().Len() != 0 {
		t.Errorf("expected empty header")
	}
	if n.Frontmatter().Has("uuid") {
		t.Error("empty header should not have uuid")
	}
}

func TestParse_NestedKeysEncodeAsJSON(t *testing.T) {
	input := []byte("---\nuuid: abc\nmeta:\n  1: x\n  tags:\n    - a\n    - 2: b\nratio: .nan\n---\nbody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !HasValue(r.Frontmatter, "uuid") {
		t.Fatalf("frontmatter = %v, want uuid present", r.Frontmatter)
	}
	meta, ok := r.Frontmatter["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta = %T, want map[string]any", r.Frontmatter["meta"])
	}
	if meta["1"] != "x" {
		t.Errorf("meta[1] = %v, want x", meta["1"])
	}
	tags := meta["tags"].([]any)
	if _, ok := tags[1].(map[string]any); !ok {
		t.Errorf("tags[1] = %T, want map[string]any", tags[1])
	}
	if r.Frontmatter["ratio"] != ".nan" {
		t.Errorf("ratio = %v, want .nan", r.Frontmatter["ratio"])
	}
	if _, err := json.Marshal(r.Frontmatter); err != nil {
		t.Errorf("json.Marshal: %v", err)
	}
}

func TestNote_CommentOnlyHeaderSurvivesAddRemove(t *testing.T) {
	input := []byte("---\n# keep me\n---\nbody\n")
	n, err := ParseNote(input)
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	n.Frontmatter().Set("uuid", "abc")
	added, err := n.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(added) != "---\n# keep me\nuuid: abc\n---\nbody\n" {
		t.Fatalf("after add = %q", added)
	}

	n2, err := ParseNote(added)
	if err != nil {
		t.Fatal(err)
	}
	n2.Frontmatter().Delete("uuid")
	removed, err := n2.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(removed) != string(input) {
		t.Errorf("round trip = %q, want %q", removed, input)
	}
}

func TestNote_EmptiedHeaderWithoutCommentsIsDropped(t *testing.T) {
	n, err := ParseNote([]byte("---\nuuid: abc # inline\n---\nbody\n"))
	if err != nil {
		t.Fatal(err)
	}
	n.Frontmatter().Delete("uuid")
	out, err := n.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "body\n" {
		t.Errorf("got %q, want %q", out, "body\n")
	}
}
