// Package storage defines the documentation-tree file-system abstraction.
package storage

import "github.com/starford/linkmend/internal/models"

// Provider is the interface for documentation tree file operations.
// Every path is relative to the tree root.
type Provider interface {
	// List returns metadata for every document under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, keeping its permissions.
	Write(path string, content []byte) error
	// Exists reports whether path names an existing file or directory.
	Exists(path string) bool
	// Rel turns an absolute path inside the root into a root-relative one.
	Rel(path string) (string, error)
	// Abs returns the absolute location of path, or an error if it escapes the root.
	Abs(path string) (string, error)
}
