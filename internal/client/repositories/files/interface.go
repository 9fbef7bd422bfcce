package files

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/models"
)

// Repository describes storage operations for file metadata records.
// Implementations are backed by the local SQLite database.
//
// Reads return nil (or an empty slice) on miss; "not found" is never an
// error. Writes surface storage faults wrapped in common.ErrStorage.
type Repository interface {
	// Put inserts or fully overwrites a record by identifier.
	Put(ctx context.Context, f *models.FileRecord) error

	// Get returns the record with the given identifier, or nil if absent.
	Get(ctx context.Context, id string) (*models.FileRecord, error)

	// GetAll returns every file record.
	GetAll(ctx context.Context) ([]models.FileRecord, error)

	// GetByFolder returns the files owned by the given folder; a nil
	// folderID selects files at the root.
	GetByFolder(ctx context.Context, folderID *string) ([]models.FileRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error

	// ReplaceID re-keys a record from a temp identifier to a server one.
	ReplaceID(ctx context.Context, oldID, newID string) error

	// RewriteFolder redirects every file owned by oldFolderID to newFolderID.
	RewriteFolder(ctx context.Context, oldFolderID, newFolderID string) error

	// Clear wipes the collection.
	Clear(ctx context.Context) error
}
