package api

import (
	"github.com/halvard/ansuz/internal/models"
	"github.com/halvard/ansuz/internal/noteservice"
	"github.com/halvard/ansuz/internal/search"
)

// CreateNoteRequest is the request body for creating a note at an explicit path.
type CreateNoteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// CreateLinkRequest is the request body for creating the note behind an
// unresolved wiki-link target.
type CreateLinkRequest struct {
	Target      string `json:"target"`
	CurrentPath string `json:"current_path,omitempty"`
}

// DailyNoteRequest optionally names the date (YYYY-MM-DD) for a daily note.
type DailyNoteRequest struct {
	Date string `json:"date,omitempty"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// NoteSearchResponse wraps metadata search results.
type NoteSearchResponse struct {
	Notes []models.Note `json:"notes"`
}

// ResolveResponse wraps a wiki-link resolution. Note is null when the
// target has no corresponding file.
type ResolveResponse struct {
	Resolved bool         `json:"resolved"`
	Note     *models.Note `json:"note"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []models.GraphNode `json:"nodes"`
	Edges []models.GraphEdge `json:"edges"`
}

// TagsResponse wraps the aggregated tag index.
type TagsResponse struct {
	Tags []models.TagEntry `json:"tags"`
}

// BacklinksResponse wraps a note's incoming references.
type BacklinksResponse struct {
	Backlinks []models.Backlink `json:"backlinks"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}
