package noteservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/testutil"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	vaultDir := t.TempDir()
	svc := NewService(testutil.TestIndex(t), nil)
	if err := svc.IndexWorkspace(context.Background(), vaultDir); err != nil {
		t.Fatalf("IndexWorkspace: %v", err)
	}
	return svc, vaultDir
}

func seedNote(t *testing.T, svc *Service, path, content string) {
	t.Helper()
	if _, err := svc.WriteNote(context.Background(), path, []byte(content)); err != nil {
		t.Fatalf("WriteNote %s: %v", path, err)
	}
}

func TestGetNote_Detail(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seedNote(t, svc, "target.md", "---\ntitle: Target\n---\nbody\n")
	seedNote(t, svc, "source.md", "# Source\nlinks to [[Target]] and #tagged\n")

	note, err := svc.GetNote(ctx, "source.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note.Title != "Source" {
		t.Errorf("title = %q", note.Title)
	}
	if len(note.Links) != 1 || note.Links[0].Target != "Target" {
		t.Errorf("links = %+v", note.Links)
	}
	if len(note.Tags) != 1 || note.Tags[0] != "tagged" {
		t.Errorf("tags = %+v", note.Tags)
	}
	if note.Checksum == "" {
		t.Error("missing checksum")
	}

	bl := svc.Backlinks(ctx, "target.md")
	if len(bl) != 1 || bl[0].SourcePath != "source.md" {
		t.Errorf("backlinks = %+v", bl)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetNote(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNotePath(t *testing.T) {
	svc, _ := testService(t)
	cases := map[string]string{
		"My Note":       "My Note.md",
		"My Note.md":    "My Note.md",
		"Projects/Plan": "Projects/Plan.md",
		"  ":            "",
	}
	for in, want := range cases {
		if got := svc.NotePath(in, ""); got != want {
			t.Errorf("NotePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateNote_FromLinkTarget(t *testing.T) {
	svc, vaultDir := testService(t)
	ctx := context.Background()

	p, err := svc.CreateNote(ctx, "Fresh Idea", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if p != "Fresh Idea.md" {
		t.Errorf("path = %q", p)
	}
	data, err := os.ReadFile(filepath.Join(vaultDir, p))
	if err != nil {
		t.Fatalf("read created note: %v", err)
	}
	if string(data) != "# Fresh Idea\n" {
		t.Errorf("content = %q", data)
	}

	// The new note is indexed and now resolves.
	if n := svc.ResolveWikiLink(ctx, "fresh-idea"); n == nil || n.Path != p {
		t.Errorf("resolve after create = %v", n)
	}

	if _, err := svc.CreateNote(ctx, "Fresh Idea", ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v, want ErrAlreadyExists", err)
	}
}

func TestDailyNote(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	note, err := svc.DailyNote(ctx, date)
	if err != nil {
		t.Fatalf("DailyNote: %v", err)
	}
	if note.Path != "2026-03-14.md" {
		t.Errorf("path = %q", note.Path)
	}
	if note.Content != "# 2026-03-14\n" {
		t.Errorf("content = %q", note.Content)
	}

	// Repeat call returns the existing note instead of overwriting it.
	if _, err := svc.UpdateNote(ctx, note.Path, []byte("# 2026-03-14\nedited\n"), ""); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	again, err := svc.DailyNote(ctx, date)
	if err != nil {
		t.Fatalf("DailyNote again: %v", err)
	}
	if again.Content != "# 2026-03-14\nedited\n" {
		t.Errorf("content = %q, want edited note preserved", again.Content)
	}
}

func TestWriteNote_Duplicate(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seedNote(t, svc, "dup.md", "v1")
	if _, err := svc.WriteNote(ctx, "dup.md", []byte("v2")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateNote_OptimisticLocking(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	created, err := svc.WriteNote(ctx, "lock.md", []byte("v1"))
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	if _, err := svc.UpdateNote(ctx, "lock.md", []byte("v2"), "bogus-checksum"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	updated, err := svc.UpdateNote(ctx, "lock.md", []byte("v2"), created.Checksum)
	if err != nil {
		t.Fatalf("matching update: %v", err)
	}
	if updated.Content != "v2" {
		t.Errorf("content = %q", updated.Content)
	}

	// Empty ifMatch skips the check.
	if _, err := svc.UpdateNote(ctx, "lock.md", []byte("v3"), ""); err != nil {
		t.Errorf("unconditional update: %v", err)
	}

	if _, err := svc.UpdateNote(ctx, "absent.md", []byte("x"), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seedNote(t, svc, "gone.md", "# Gone\n")

	if err := svc.DeleteNote(ctx, "gone.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, "gone.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if n := svc.FindNoteByTitle(ctx, "Gone"); n != nil {
		t.Errorf("deleted note still resolves: %+v", n)
	}
}

func TestListNotes(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seedNote(t, svc, "a.md", "# Apple\n#fruit\n")
	seedNote(t, svc, "b.md", "# Banana\n#fruit\n")
	seedNote(t, svc, "c.md", "# Carrot\n#veg\n")

	notes, total, err := svc.ListNotes(ctx, 0, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(notes) != 3 {
		t.Errorf("total = %d, len = %d", total, len(notes))
	}

	notes, total, _ = svc.ListNotes(ctx, 1, 1, "", "")
	if total != 3 || len(notes) != 1 || notes[0].Path != "b.md" {
		t.Errorf("paged = %+v, total = %d", notes, total)
	}

	notes, total, _ = svc.ListNotes(ctx, 0, 0, "fruit", "")
	if total != 2 || len(notes) != 2 {
		t.Errorf("tag filter = %+v", notes)
	}

	notes, _, _ = svc.ListNotes(ctx, 0, 0, "", "title")
	if notes[0].Title != "Apple" || notes[2].Title != "Carrot" {
		t.Errorf("title sort = %+v", notes)
	}

	// Offset past the end yields an empty page, not an error.
	notes, total, err = svc.ListNotes(ctx, 10, 99, "", "")
	if err != nil || total != 3 || len(notes) != 0 {
		t.Errorf("overflow page = %+v, total = %d, err = %v", notes, total, err)
	}
}

func TestResolveWikiLink_Missing(t *testing.T) {
	svc, _ := testService(t)
	if n := svc.ResolveWikiLink(context.Background(), "No Such Note"); n != nil {
		t.Errorf("resolve = %+v, want nil", n)
	}
}

func TestSearchContent_NoStore(t *testing.T) {
	svc, _ := testService(t)
	results, err := svc.SearchContent(context.Background(), "anything", 10)
	if err != nil || results != nil {
		t.Errorf("results = %v, err = %v; body search disabled should be empty", results, err)
	}
}

func TestSearchContent_WithStore(t *testing.T) {
	text := testutil.TestSearch(t)
	svc := NewService(testutil.TestIndex(t), text)
	if err := svc.IndexWorkspace(context.Background(), t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := text.Upsert("a.md", "Alpha", "searchable body words", nil); err != nil {
		t.Fatal(err)
	}

	results, err := svc.SearchContent(context.Background(), "searchable", 10)
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(results) != 1 || results[0].Path != "a.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestGraphAndTags(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	seedNote(t, svc, "a.md", "# A\n[[B]] and [[Nowhere]]\n#x\n")
	seedNote(t, svc, "b.md", "# B\n#x\n")

	nodes, edges := svc.GraphData(ctx)
	if len(nodes) != 3 || len(edges) != 2 {
		t.Errorf("nodes = %d, edges = %d, want 3 and 2", len(nodes), len(edges))
	}

	tags := svc.TagsIndex(ctx)
	if len(tags) != 1 || tags[0].Tag != "x" || tags[0].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}

	with := svc.NotesWithTag(ctx, "#x")
	if len(with) != 2 {
		t.Errorf("notes with tag = %+v", with)
	}
}
