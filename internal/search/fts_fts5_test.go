//go:build sqlite_fts5

package search

import (
	"strings"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	s := tempStore(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SnippetMarkers(t *testing.T) {
	s := tempStore(t)
	if err := s.Upsert("fts.md", "FTS Note", "Ansuz provides powerful full-text search capabilities.", []string{"search"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "fts.md" {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("snippet missing highlight markers: %q", results[0].Snippet)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	s := tempStore(t)
	_ = s.Upsert("gone.md", "Gone", "vanishing content", nil)
	_ = s.Delete("gone.md")

	results, _ := s.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("deleted note still in FTS index")
		}
	}
}
