package oplog

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/models"
)

// Repository is the durable pending-operation log. Entries are appended
// with an auto-assigned, strictly increasing sequence key and removed only
// after a successful replay; a failed replay leaves the entry in place.
type Repository interface {
	// Append adds an operation to the log and returns its sequence key.
	// Existing entries are never overwritten.
	Append(ctx context.Context, p models.OpPayload) (int64, error)

	// List returns every pending operation in ascending sequence order.
	List(ctx context.Context) ([]models.PendingOp, error)

	// ListByKind returns pending operations of one kind, ascending.
	ListByKind(ctx context.Context, kind models.OpKind) ([]models.PendingOp, error)

	// Remove deletes a single entry after successful replay.
	Remove(ctx context.Context, seq int64) error

	// Count returns the number of pending operations.
	Count(ctx context.Context) (int, error)

	// RewriteID substitutes a reconciled identifier inside every pending
	// payload that still references oldID. It returns the number of
	// rewritten entries.
	RewriteID(ctx context.Context, oldID, newID string) (int, error)

	// Clear wipes the log.
	Clear(ctx context.Context) error
}
