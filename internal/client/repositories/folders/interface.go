package folders

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/models"
)

// Repository describes storage operations for folder metadata records.
// Reads return nil (or an empty slice) on miss; "not found" is never an
// error.
type Repository interface {
	// Put inserts or fully overwrites a record by identifier.
	Put(ctx context.Context, f *models.FolderRecord) error

	// Get returns the record with the given identifier, or nil if absent.
	Get(ctx context.Context, id string) (*models.FolderRecord, error)

	// GetAll returns every folder record.
	GetAll(ctx context.Context) ([]models.FolderRecord, error)

	// GetByParent returns the child folders of the given parent; a nil
	// parentID selects folders at the root.
	GetByParent(ctx context.Context, parentID *string) ([]models.FolderRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error

	// ReplaceID re-keys a record from a temp identifier to a server one.
	ReplaceID(ctx context.Context, oldID, newID string) error

	// RewriteParent redirects every child of oldParentID to newParentID.
	RewriteParent(ctx context.Context, oldParentID, newParentID string) error

	// Clear wipes the collection.
	Clear(ctx context.Context) error
}
