// Package storage defines the vault file-system abstraction.
package storage

import "github.com/halvard/ansuz/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// vault root), skipping dot-entries and node_modules directories.
	List(dir string) ([]models.NoteMetadata, error)
	// Stat returns metadata for a single vault file.
	Stat(path string) (models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
}
