package index

import (
	"context"

	"github.com/starford/linkmend/internal/models"
)

// RefIndex defines the interface for image reference indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type RefIndex interface {
	UpsertDocument(d DocumentRow, refs []models.ImageRef) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	References(ctx context.Context, document string) (models.DocumentRefs, bool, error)
	Documents(ctx context.Context) ([]models.DocumentRefs, error)
	Search(ctx context.Context, query string, limit int) ([]models.ImageRef, error)
	Close() error
}

// Verify *DB satisfies RefIndex at compile time.
var _ RefIndex = (*DB)(nil)
