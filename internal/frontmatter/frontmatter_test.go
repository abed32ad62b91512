package frontmatter

import (
	"reflect"
	"testing"
)

func TestSplit_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - ansuz\n---\n# Hello\nBody text.\n")
	meta, body := Split(input)
	if meta == nil {
		t.Fatal("expected frontmatter")
	}
	if meta["title"] != "Hello" {
		t.Errorf("title = %v, want Hello", meta["title"])
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	meta, body := Split(input)
	if meta != nil {
		t.Errorf("expected nil meta, got %v", meta)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_UnterminatedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Open\nno closing delim\n")
	meta, body := Split(input)
	if meta != nil {
		t.Errorf("expected nil meta, got %v", meta)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	meta, body := Split(input)
	if meta != nil {
		t.Errorf("expected nil meta on invalid YAML, got %v", meta)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_LeadingNewlines(t *testing.T) {
	input := []byte("\n\n---\ntitle: T\n---\nbody\n")
	meta, body := Split(input)
	if meta == nil || meta["title"] != "T" {
		t.Fatalf("meta = %v", meta)
	}
	if body != "body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestTitle_Precedence(t *testing.T) {
	m := Meta{"title": "From FM"}
	if got := m.Title("# From H1\n", "file.md"); got != "From FM" {
		t.Errorf("title = %q, want From FM", got)
	}
	if got := Meta(nil).Title("# From H1\nmore", "file.md"); got != "From H1" {
		t.Errorf("title = %q, want From H1", got)
	}
	if got := Meta(nil).Title("no heading here", "file.md"); got != "file" {
		t.Errorf("title = %q, want file", got)
	}
}

func TestTitle_H1NotFirstLine(t *testing.T) {
	body := "intro paragraph\n\n# Real Heading\n"
	if got := Meta(nil).Title(body, "x.md"); got != "Real Heading" {
		t.Errorf("title = %q, want Real Heading", got)
	}
}

func TestTitle_EmptyFrontmatterTitle(t *testing.T) {
	m := Meta{"title": ""}
	if got := m.Title("", "fallback.md"); got != "fallback" {
		t.Errorf("title = %q, want fallback", got)
	}
}

func TestAliases_ScalarAndList(t *testing.T) {
	if got := (Meta{"aliases": "only-one"}).Aliases(); !reflect.DeepEqual(got, []string{"only-one"}) {
		t.Errorf("aliases = %v", got)
	}
	m := Meta{"aliases": []any{"a", "b", 3}}
	if got := m.Aliases(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("aliases = %v", got)
	}
	if got := Meta(nil).Aliases(); got != nil {
		t.Errorf("aliases = %v, want nil", got)
	}
}

func TestTags_InlineAndFrontmatter(t *testing.T) {
	m := Meta{"tags": []any{"Alpha"}}
	body := "Some text #beta and #alpha again."
	got := m.Tags(body)
	// alpha from both sources deduped after normalization.
	if !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("tags = %v, want [alpha beta]", got)
	}
}

func TestTags_InlineOnlyWordBoundary(t *testing.T) {
	got := Meta(nil).Tags("start #one mid#notag #two-three end")
	if !reflect.DeepEqual(got, []string{"one", "two-three"}) {
		t.Errorf("tags = %v, want [one two-three]", got)
	}
}

func TestTags_None(t *testing.T) {
	if got := Meta(nil).Tags("nothing tagged"); got != nil {
		t.Errorf("tags = %v, want nil", got)
	}
}

func TestNormalizeTag_Idempotent(t *testing.T) {
	once := NormalizeTag("#Project-X")
	if once != "project-x" {
		t.Errorf("normalized = %q, want project-x", once)
	}
	if NormalizeTag(once) != once {
		t.Errorf("not idempotent: %q", NormalizeTag(once))
	}
}
