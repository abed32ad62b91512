// Package vault maintains the in-memory note index for a workspace root:
// the primary note map, title and alias reverse indices, the backlink
// index, and the derived graph and tag views. The index is kept current by
// an initial scan plus fsnotify-driven incremental updates (watcher.go).
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/halvard/ansuz/internal/checksum"
	"github.com/halvard/ansuz/internal/frontmatter"
	"github.com/halvard/ansuz/internal/models"
	"github.com/halvard/ansuz/internal/storage"
	"github.com/halvard/ansuz/internal/wikilink"
)

// MaxSearchResults caps SearchNotes output.
const MaxSearchResults = 50

// PlaceholderPrefix namespaces graph node ids for unresolved link targets
// so they can never collide with real note paths.
const PlaceholderPrefix = "placeholder:"

var normalizeRe = regexp.MustCompile(`[\s_-]+`)

// TextIndex receives note bodies for full-text search. Implemented by
// search.Store; nil disables body search maintenance.
type TextIndex interface {
	Upsert(path, title, body string, tags []string) error
	Delete(path string) error
}

// Index is the in-memory note index for one workspace root. All reverse
// indices are owned exclusively by the Index and only reachable through
// query methods, so the symmetry invariants hold under concurrent callers.
type Index struct {
	logger *slog.Logger
	text   TextIndex

	mu        sync.RWMutex
	root      string
	store     storage.Provider
	notes     map[string]*models.Note
	byTitle   map[string][]string
	byAlias   map[string][]string
	backlinks map[string][]models.Backlink

	// At most one full scan runs at a time; concurrent Bind/Rescan callers
	// wait on the in-flight scan instead of starting another.
	scanMu   sync.Mutex
	scanning chan struct{}
}

// New creates an empty, unbound index. text may be nil.
func New(logger *slog.Logger, text TextIndex) *Index {
	return &Index{
		logger:    logger,
		text:      text,
		notes:     make(map[string]*models.Note),
		byTitle:   make(map[string][]string),
		byAlias:   make(map[string][]string),
		backlinks: make(map[string][]models.Backlink),
	}
}

// Root returns the bound workspace root, or "" when unbound.
func (ix *Index) Root() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.root
}

// Store returns the storage provider for the bound root, or nil.
func (ix *Index) Store() storage.Provider {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store
}

// Bind points the index at a workspace root and runs a full scan. Binding
// the same root again is a no-op. A different root discards all state
// before scanning.
func (ix *Index) Bind(ctx context.Context, root string) error {
	ix.mu.Lock()
	if ix.root == root && ix.store != nil {
		ix.mu.Unlock()
		return nil
	}
	store, err := storage.NewFS(root)
	if err != nil {
		ix.mu.Unlock()
		return fmt.Errorf("vault: bind %s: %w", root, err)
	}
	ix.root = root
	ix.store = store
	ix.notes = make(map[string]*models.Note)
	ix.byTitle = make(map[string][]string)
	ix.byAlias = make(map[string][]string)
	ix.backlinks = make(map[string][]models.Backlink)
	ix.mu.Unlock()

	return ix.Rescan(ctx)
}

// Rescan walks the bound root and brings the index up to date. Files whose
// checksum is unchanged are skipped; index entries whose files are gone
// are removed. When a scan is already in flight the call waits for it and
// returns without starting a second one.
func (ix *Index) Rescan(ctx context.Context) error {
	ix.scanMu.Lock()
	if ix.scanning != nil {
		done := ix.scanning
		ix.scanMu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	ix.scanning = done
	ix.scanMu.Unlock()

	defer func() {
		ix.scanMu.Lock()
		ix.scanning = nil
		ix.scanMu.Unlock()
		close(done)
	}()

	store := ix.Store()
	if store == nil {
		return nil
	}

	metas, err := store.List("")
	if err != nil {
		return fmt.Errorf("vault: scan: %w", err)
	}

	known := ix.Checksums()
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		if err := ix.IndexPath(m.Path); err != nil {
			ix.logger.Warn("scan: index failed",
				slog.String("path", m.Path), slog.String("error", err.Error()))
		}
	}

	for p := range known {
		if _, ok := disk[p]; !ok {
			ix.Remove(p)
			ix.logger.Debug("scan: removed stale", slog.String("path", p))
		}
	}

	// Second pass: links indexed early in the walk may point at notes
	// indexed later, so the backlink index is rebuilt once the primary
	// and reverse indices are complete.
	ix.RebuildLinks()

	return nil
}

// IndexPath reads one vault file and indexes it.
func (ix *Index) IndexPath(rel string) error {
	store := ix.Store()
	if store == nil {
		return fmt.Errorf("vault: no workspace bound")
	}
	data, err := store.Read(rel)
	if err != nil {
		return err
	}
	meta, err := store.Stat(rel)
	if err != nil {
		return err
	}
	ix.IndexFile(rel, data, meta.UpdatedAt)
	return nil
}

// IndexFile indexes one file's content. Any previous entry under the same
// path is fully removed first (primary map, reverse indices, and the
// backlinks the file contributed as a source), so stale reverse-index
// entries cannot survive a title, alias, or link change.
func (ix *Index) IndexFile(rel string, data []byte, modTime time.Time) {
	meta, body := frontmatter.Split(data)
	basename := path.Base(rel)

	note := &models.Note{
		Path:         rel,
		Basename:     basename,
		Title:        meta.Title(body, basename),
		Aliases:      meta.Aliases(),
		Tags:         meta.Tags(body),
		Frontmatter:  meta,
		Checksum:     checksum.Sum(data),
		LastModified: modTime,
	}

	ix.mu.Lock()
	ix.removeLocked(rel)
	ix.insertLocked(note)
	ix.linkLocked(rel, body)
	ix.mu.Unlock()

	if ix.text != nil {
		if err := ix.text.Upsert(rel, note.Title, body, note.Tags); err != nil {
			ix.logger.Warn("text index upsert failed",
				slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
}

// Remove deletes a note from every index symmetrically. Backlink entries
// that point *to* the removed path are kept: a still-existing source file
// still contains that (now unresolved) link.
func (ix *Index) Remove(rel string) {
	ix.mu.Lock()
	ix.removeLocked(rel)
	ix.mu.Unlock()

	if ix.text != nil {
		if err := ix.text.Delete(rel); err != nil {
			ix.logger.Warn("text index delete failed",
				slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
}

func (ix *Index) insertLocked(n *models.Note) {
	ix.notes[n.Path] = n
	tk := normalizeName(n.Title)
	ix.byTitle[tk] = append(ix.byTitle[tk], n.Path)
	for _, a := range n.Aliases {
		ak := normalizeName(a)
		ix.byAlias[ak] = append(ix.byAlias[ak], n.Path)
	}
}

func (ix *Index) removeLocked(rel string) {
	n, ok := ix.notes[rel]
	if ok {
		delete(ix.notes, rel)
		removeRef(ix.byTitle, normalizeName(n.Title), rel)
		for _, a := range n.Aliases {
			removeRef(ix.byAlias, normalizeName(a), rel)
		}
	}

	// Drop backlinks this file contributed as a source.
	for target, entries := range ix.backlinks {
		kept := entries[:0]
		for _, e := range entries {
			if e.SourcePath != rel {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(ix.backlinks, target)
		} else {
			ix.backlinks[target] = kept
		}
	}
}

// linkLocked parses rel's body and records backlink entries for every
// link whose target resolves to an indexed note.
func (ix *Index) linkLocked(rel, body string) {
	links := wikilink.Parse(body)
	if len(links) == 0 {
		return
	}
	lines := strings.Split(body, "\n")
	offsets := lineOffsets(lines)

	for _, l := range links {
		target := ix.resolveLocked(l.Target)
		if target == nil {
			continue
		}
		line := lineFor(offsets, l.Start)
		ctx := ""
		if line < len(lines) {
			ctx = strings.TrimSpace(lines[line])
		}
		ix.backlinks[target.Path] = append(ix.backlinks[target.Path], models.Backlink{
			SourcePath: rel,
			Line:       line + 1,
			Context:    ctx,
		})
	}
}

// RebuildLinks re-derives the backlink index from every indexed note's
// current content. Used after the initial scan so that links to notes
// indexed later in the walk still resolve.
func (ix *Index) RebuildLinks() {
	store := ix.Store()
	if store == nil {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.backlinks = make(map[string][]models.Backlink)
	paths := make([]string, 0, len(ix.notes))
	for p := range ix.notes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		data, err := store.Read(p)
		if err != nil {
			ix.logger.Warn("link pass: read failed",
				slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		_, body := frontmatter.Split(data)
		ix.linkLocked(p, body)
	}
}

// Get returns the indexed note for a path, or nil.
func (ix *Index) Get(rel string) *models.Note {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if n, ok := ix.notes[rel]; ok {
		cp := *n
		return &cp
	}
	return nil
}

// All returns every indexed note sorted by path.
func (ix *Index) All() []models.Note {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]models.Note, 0, len(ix.notes))
	for _, n := range ix.notes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.notes)
}

// Checksums returns path → checksum for every indexed note.
func (ix *Index) Checksums() map[string]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]string, len(ix.notes))
	for p, n := range ix.notes {
		out[p] = n.Checksum
	}
	return out
}

// FindByTitle resolves a wiki-link target or user-typed title to a note.
// A trailing .md is ignored. Targets containing a path separator resolve
// by case-insensitive path suffix; plain names resolve through the title
// index, then the alias index. Ambiguity picks the most recently modified
// note. Absence is nil, never an error.
func (ix *Index) FindByTitle(title string) *models.Note {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.resolveLocked(title)
}

func (ix *Index) resolveLocked(title string) *models.Note {
	t := strings.TrimSpace(strings.TrimSuffix(title, ".md"))
	if t == "" {
		return nil
	}

	if strings.Contains(t, "/") {
		lower := strings.ToLower(t)
		var candidates []*models.Note
		for _, n := range ix.notes {
			lp := strings.ToLower(n.Path)
			if strings.HasSuffix(lp, lower) || strings.HasSuffix(lp, lower+".md") {
				candidates = append(candidates, n)
			}
		}
		return newest(candidates)
	}

	key := normalizeName(t)
	if paths := ix.byTitle[key]; len(paths) > 0 {
		return newest(ix.lookupLocked(paths))
	}
	if paths := ix.byAlias[key]; len(paths) > 0 {
		return newest(ix.lookupLocked(paths))
	}
	return nil
}

func (ix *Index) lookupLocked(paths []string) []*models.Note {
	out := make([]*models.Note, 0, len(paths))
	for _, p := range paths {
		if n, ok := ix.notes[p]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Backlinks returns the recorded incoming references for a target path,
// joined with the live title of each source note so a source rename is
// reflected without re-parsing.
func (ix *Index) Backlinks(rel string) []models.Backlink {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entries := ix.backlinks[rel]
	out := make([]models.Backlink, len(entries))
	for i, e := range entries {
		out[i] = e
		if src, ok := ix.notes[e.SourcePath]; ok {
			out[i].SourceTitle = src.Title
		}
	}
	return out
}

// GraphData builds the full knowledge graph by re-reading and re-parsing
// every note from disk: one node per note, one placeholder node per
// distinct unresolved link target, and one edge per distinct (source,
// target) pair. Always fresh, at O(notes x links) per call.
func (ix *Index) GraphData() ([]models.GraphNode, []models.GraphEdge) {
	store := ix.Store()
	notes := ix.All()

	nodes := make([]models.GraphNode, 0, len(notes))
	var edges []models.GraphEdge
	placeholders := make(map[string]string) // target text → node id
	seenEdge := make(map[[2]string]struct{})

	for _, n := range notes {
		nodes = append(nodes, models.GraphNode{
			ID:    n.Path,
			Label: n.Title,
			Type:  models.NodeTypeNote,
		})
	}

	if store == nil {
		return nodes, edges
	}

	for _, n := range notes {
		data, err := store.Read(n.Path)
		if err != nil {
			ix.logger.Warn("graph: read failed",
				slog.String("path", n.Path), slog.String("error", err.Error()))
			continue
		}
		_, body := frontmatter.Split(data)

		for _, l := range wikilink.Parse(body) {
			var targetID string
			if resolved := ix.FindByTitle(l.Target); resolved != nil {
				targetID = resolved.Path
			} else {
				id, ok := placeholders[l.Target]
				if !ok {
					id = PlaceholderPrefix + l.Target
					placeholders[l.Target] = id
					nodes = append(nodes, models.GraphNode{
						ID:    id,
						Label: l.Target,
						Type:  models.NodeTypePlaceholder,
					})
				}
				targetID = id
			}

			key := [2]string{n.Path, targetID}
			if _, dup := seenEdge[key]; dup {
				continue
			}
			seenEdge[key] = struct{}{}
			edges = append(edges, models.GraphEdge{Source: n.Path, Target: targetID})
		}
	}

	return nodes, edges
}

// TagsIndex aggregates tags across all indexed notes, sorted by
// descending note count then alphabetically. Computed on demand.
func (ix *Index) TagsIndex() []models.TagEntry {
	ix.mu.RLock()
	byTag := make(map[string][]string)
	for _, n := range ix.notes {
		for _, t := range n.Tags {
			byTag[t] = append(byTag[t], n.Path)
		}
	}
	ix.mu.RUnlock()

	out := make([]models.TagEntry, 0, len(byTag))
	for tag, paths := range byTag {
		sort.Strings(paths)
		out = append(out, models.TagEntry{Tag: tag, Count: len(paths), Notes: paths})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// NotesWithTag returns the notes carrying a tag, sorted by path.
func (ix *Index) NotesWithTag(tag string) []models.Note {
	want := frontmatter.NormalizeTag(tag)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []models.Note
	for _, n := range ix.notes {
		for _, t := range n.Tags {
			if t == want {
				out = append(out, *n)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// SearchNotes matches query case-insensitively against title, basename,
// path, aliases, and tags, returning at most MaxSearchResults notes.
func (ix *Index) SearchNotes(query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []models.Note
	for _, n := range ix.notes {
		if noteMatches(n, q) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if len(out) > MaxSearchResults {
		out = out[:MaxSearchResults]
	}
	return out
}

func noteMatches(n *models.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Basename), q) ||
		strings.Contains(strings.ToLower(n.Path), q) {
		return true
	}
	for _, a := range n.Aliases {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	for _, t := range n.Tags {
		if strings.Contains(t, q) {
			return true
		}
	}
	return false
}

// normalizeName lowercases and collapses runs of whitespace, hyphens, and
// underscores to a single hyphen, so "My Note", "my-note", and "my_note"
// share one index key.
func normalizeName(s string) string {
	return normalizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

func newest(notes []*models.Note) *models.Note {
	var best *models.Note
	for _, n := range notes {
		if best == nil || n.LastModified.After(best.LastModified) {
			best = n
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func removeRef(m map[string][]string, key, rel string) {
	refs := m[key]
	kept := refs[:0]
	for _, r := range refs {
		if r != rel {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(m, key)
	} else {
		m[key] = kept
	}
}

func lineOffsets(lines []string) []int {
	offsets := make([]int, len(lines))
	pos := 0
	for i, l := range lines {
		offsets[i] = pos
		pos += len(l) + 1
	}
	return offsets
}

func lineFor(offsets []int, pos int) int {
	i := sort.Search(len(offsets), func(i int) bool { return offsets[i] > pos })
	if i == 0 {
		return 0
	}
	return i - 1
}
