// Package noteservice is the domain service tying storage, the in-memory
// vault index, and the full-text search store together for the API and
// MCP layers.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/checksum"
	"github.com/halvard/ansuz/internal/frontmatter"
	"github.com/halvard/ansuz/internal/models"
	"github.com/halvard/ansuz/internal/search"
	"github.com/halvard/ansuz/internal/storage"
	"github.com/halvard/ansuz/internal/vault"
	"github.com/halvard/ansuz/internal/wikilink"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Checksum    string            `json:"checksum"`
	Tags        []string          `json:"tags"`
	Aliases     []string          `json:"aliases"`
	Frontmatter map[string]any    `json:"frontmatter,omitempty"`
	Links       []wikilink.Link   `json:"links"`
	Backlinks   []models.Backlink `json:"backlinks"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Service coordinates storage, index, and search operations.
type Service struct {
	ix   *vault.Index
	text *search.Store
}

// NewService creates a new note service. text may be nil when body search
// is disabled.
func NewService(ix *vault.Index, text *search.Store) *Service {
	return &Service{ix: ix, text: text}
}

// Store exposes the storage provider for the bound workspace, or nil.
func (s *Service) Store() storage.Provider {
	return s.ix.Store()
}

// IndexWorkspace (re)binds the service to a workspace root and scans it.
// Binding the current root again is a no-op.
func (s *Service) IndexWorkspace(ctx context.Context, root string) error {
	return s.ix.Bind(ctx, root)
}

// GetAllNotes returns every indexed note.
func (s *Service) GetAllNotes(_ context.Context) []models.Note {
	return s.ix.All()
}

// SearchNotes matches query against note metadata (title, basename, path,
// aliases, tags), capped at vault.MaxSearchResults.
func (s *Service) SearchNotes(_ context.Context, query string) []models.Note {
	return s.ix.SearchNotes(query)
}

// SearchContent performs full-text body search through the search store.
func (s *Service) SearchContent(_ context.Context, query string, limit int) ([]search.Result, error) {
	if s.text == nil {
		return nil, nil
	}
	return s.text.Search(query, limit)
}

// FindNoteByTitle resolves a title, alias, or path suffix to a note.
// Absence is nil, never an error.
func (s *Service) FindNoteByTitle(_ context.Context, title string) *models.Note {
	return s.ix.FindByTitle(title)
}

// ResolveWikiLink resolves a wiki-link target to a note, or nil when the
// target has no corresponding file (callers use that to offer creation).
func (s *Service) ResolveWikiLink(_ context.Context, target string) *models.Note {
	return s.ix.FindByTitle(target)
}

// GetNote reads a note from storage, parses it, and enriches it with
// links and backlinks.
func (s *Service) GetNote(_ context.Context, notePath string) (*NoteDetail, error) {
	store := s.ix.Store()
	if store == nil {
		return nil, apperr.ErrNotFound
	}
	data, err := store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(notePath, data), nil
}

// DefaultNoteLocation returns the directory (relative to the vault root)
// where plain-named notes are created. The vault root itself.
func (s *Service) DefaultNoteLocation() string {
	return ""
}

// NotePath computes where a note for the given wiki-link target should be
// created. Targets containing a path separator resolve relative to the
// vault root; plain names go to the default note location. The actual
// file need not exist.
func (s *Service) NotePath(target, _ string) string {
	t := strings.TrimSpace(strings.TrimSuffix(target, ".md"))
	if t == "" {
		return ""
	}
	if strings.Contains(t, "/") {
		return path.Clean(t) + ".md"
	}
	return path.Join(s.DefaultNoteLocation(), t+".md")
}

// CreateNote creates the file for a wiki-link target with a title heading
// and indexes it. Returns the created note's path.
func (s *Service) CreateNote(_ context.Context, target, currentPath string) (string, error) {
	store := s.ix.Store()
	if store == nil {
		return "", fmt.Errorf("noteservice: no workspace bound")
	}
	notePath := s.NotePath(target, currentPath)
	if notePath == "" {
		return "", fmt.Errorf("noteservice: empty note target")
	}
	if _, err := store.Read(notePath); err == nil {
		return "", apperr.ErrAlreadyExists
	}

	title := strings.TrimSuffix(path.Base(notePath), ".md")
	content := []byte("# " + title + "\n")
	if err := store.Write(notePath, content); err != nil {
		return "", err
	}
	if err := s.ix.IndexPath(notePath); err != nil {
		return "", err
	}
	return notePath, nil
}

// DailyNote returns the note for the given date, creating it at the vault
// root as YYYY-MM-DD.md with a matching heading when absent.
func (s *Service) DailyNote(ctx context.Context, date time.Time) (*NoteDetail, error) {
	store := s.ix.Store()
	if store == nil {
		return nil, fmt.Errorf("noteservice: no workspace bound")
	}
	day := date.Format("2006-01-02")
	notePath := day + ".md"

	if data, err := store.Read(notePath); err == nil {
		return s.buildNoteDetail(notePath, data), nil
	}

	content := []byte("# " + day + "\n")
	if err := store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.ix.IndexPath(notePath); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(notePath, content), nil
}

// WriteNote creates a note at an explicit path with the given content.
func (s *Service) WriteNote(_ context.Context, notePath string, content []byte) (*NoteDetail, error) {
	store := s.ix.Store()
	if store == nil {
		return nil, fmt.Errorf("noteservice: no workspace bound")
	}
	if _, err := store.Read(notePath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.ix.IndexPath(notePath); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(notePath, content), nil
}

// UpdateNote writes updated content with optimistic concurrency: a
// non-empty ifMatch must equal the current checksum.
func (s *Service) UpdateNote(_ context.Context, notePath string, content []byte, ifMatch string) (*NoteDetail, error) {
	store := s.ix.Store()
	if store == nil {
		return nil, apperr.ErrNotFound
	}
	existing, err := store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.ix.IndexPath(notePath); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(notePath, content), nil
}

// DeleteNote removes a note from storage and all indices.
func (s *Service) DeleteNote(_ context.Context, notePath string) error {
	store := s.ix.Store()
	if store == nil {
		return apperr.ErrNotFound
	}
	if err := store.Delete(notePath); err != nil {
		return err
	}
	s.ix.Remove(notePath)
	return nil
}

// ListNotes returns paginated notes with optional tag filter and sort.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sortBy string) ([]models.Note, int, error) {
	var notes []models.Note
	if tag != "" {
		notes = s.ix.NotesWithTag(tag)
	} else {
		notes = s.ix.All()
	}

	switch sortBy {
	case "title":
		sort.Slice(notes, func(i, j int) bool { return notes[i].Title < notes[j].Title })
	case "updated_at":
		sort.Slice(notes, func(i, j int) bool { return notes[i].LastModified.After(notes[j].LastModified) })
	default:
		// Already sorted by path.
	}

	total := len(notes)
	if offset > total {
		offset = total
	}
	notes = notes[offset:]
	if limit > 0 && limit < len(notes) {
		notes = notes[:limit]
	}
	return notes, total, nil
}

// Backlinks returns the incoming references recorded for a note.
func (s *Service) Backlinks(_ context.Context, notePath string) []models.Backlink {
	return nonNilSlice(s.ix.Backlinks(notePath))
}

// GraphData returns the full knowledge graph.
func (s *Service) GraphData(_ context.Context) ([]models.GraphNode, []models.GraphEdge) {
	nodes, edges := s.ix.GraphData()
	return nonNilSlice(nodes), nonNilSlice(edges)
}

// TagsIndex returns the aggregated tag index.
func (s *Service) TagsIndex(_ context.Context) []models.TagEntry {
	return nonNilSlice(s.ix.TagsIndex())
}

// NotesWithTag returns all notes carrying a tag.
func (s *Service) NotesWithTag(_ context.Context, tag string) []models.Note {
	return nonNilSlice(s.ix.NotesWithTag(tag))
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading
// the file.
func (s *Service) buildNoteDetail(notePath string, data []byte) *NoteDetail {
	meta, body := frontmatter.Split(data)
	basename := path.Base(notePath)
	return &NoteDetail{
		Path:        notePath,
		Title:       meta.Title(body, basename),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(meta.Tags(body)),
		Aliases:     nonNilSlice(meta.Aliases()),
		Frontmatter: meta,
		Links:       nonNilSlice(wikilink.Parse(body)),
		Backlinks:   nonNilSlice(s.ix.Backlinks(notePath)),
		UpdatedAt:   time.Now(),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
