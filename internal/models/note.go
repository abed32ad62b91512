// Package models defines the domain types for Ansuz.
package models

import "time"

// Note represents one indexed Markdown file in the vault.
type Note struct {
	Path         string         `json:"path"`
	Basename     string         `json:"basename"`
	Title        string         `json:"title"`
	Aliases      []string       `json:"aliases,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Frontmatter  map[string]any `json:"frontmatter,omitempty"`
	Checksum     string         `json:"checksum"`
	LastModified time.Time      `json:"last_modified"`
}

// NoteMetadata is a lightweight representation returned by storage listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backlink records one incoming reference to a note, with the line it
// occurred on in the source file.
type Backlink struct {
	SourcePath  string `json:"source_path"`
	SourceTitle string `json:"source_title"`
	Line        int    `json:"line"`
	Context     string `json:"context"`
}

// Graph node types.
const (
	NodeTypeNote        = "note"
	NodeTypePlaceholder = "placeholder"
)

// GraphNode is a node in the knowledge graph: a real note, or a placeholder
// standing in for an unresolved wiki-link target.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphEdge is a directed edge from a source note to a target node.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// TagEntry is one entry in the aggregated tag index.
type TagEntry struct {
	Tag   string   `json:"tag"`
	Count int      `json:"count"`
	Notes []string `json:"notes"`
}
