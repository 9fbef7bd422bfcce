package contents

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/models"
)

// Repository caches file content blobs, keyed 1:1 by file identifier.
type Repository interface {
	// Put inserts or overwrites the blob for a file.
	Put(ctx context.Context, fileID string, data []byte) error

	// Get returns the cached blob, or nil if absent.
	Get(ctx context.Context, fileID string) ([]byte, error)

	// GetInfo returns blob metadata (no data), or nil if absent.
	GetInfo(ctx context.Context, fileID string) (*models.FileContent, error)

	// Delete evicts the blob. Absent blobs are not an error.
	Delete(ctx context.Context, fileID string) error

	// ReplaceID re-keys a blob from a temp identifier to a server one.
	ReplaceID(ctx context.Context, oldID, newID string) error

	// TotalSize returns the summed size of all cached blobs.
	TotalSize(ctx context.Context) (int64, error)

	// EvictLRU removes least-recently-updated blobs until the cache fits
	// maxTotalBytes. It returns the number of evicted blobs.
	EvictLRU(ctx context.Context, maxTotalBytes int64) (int, error)

	// Clear wipes the collection.
	Clear(ctx context.Context) error
}
