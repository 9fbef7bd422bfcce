// Package gateway defines the narrow server contract the sync engine
// consumes, and its HTTP implementation. The engine never sees HTTP: every
// transport failure is mapped to common.ErrNetworkUnavailable so callers
// can decide between the online and offline paths with errors.Is.
package gateway

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/models"
)

// Gateway is the set of server operations the engine needs.
//
// Replay relies on these calls being idempotent from the server's point of
// view: renames and moves are pure overwrites, deletes of already-deleted
// entities succeed, and creates are only ever replayed while their queue
// entry is still pending.
type Gateway interface {
	// Ping checks server liveness.
	Ping(ctx context.Context) error

	// Login authenticates and establishes the session tokens.
	Login(ctx context.Context, username, password string) error

	// Register creates a new account.
	Register(ctx context.Context, username, password string) error

	// ListFiles returns files in a folder; nil folderID returns the full
	// file listing (everything reachable).
	ListFiles(ctx context.Context, folderID *string) ([]models.FileRecord, error)

	// Upload creates a file with the given content and returns the
	// server-issued record.
	Upload(ctx context.Context, name, mimeType string, folderID *string, data []byte) (*models.FileRecord, error)

	// RenameFile sets a file's display name.
	RenameFile(ctx context.Context, id, name string) error

	// MoveFile reparents a file; nil folderID moves it to the root.
	MoveFile(ctx context.Context, id string, folderID *string) error

	// DeleteFile removes a file and its content.
	DeleteFile(ctx context.Context, id string) error

	// Download returns a file's content bytes.
	Download(ctx context.Context, id string) ([]byte, error)

	// ListFolders returns folders under a parent; nil parentID returns the
	// full folder listing.
	ListFolders(ctx context.Context, parentID *string) ([]models.FolderRecord, error)

	// CreateFolder creates a folder and returns the server-issued record.
	CreateFolder(ctx context.Context, name string, parentID *string) (*models.FolderRecord, error)

	// RenameFolder sets a folder's display name.
	RenameFolder(ctx context.Context, id, name string) error

	// MoveFolder reparents a folder; nil parentID moves it to the root.
	MoveFolder(ctx context.Context, id string, parentID *string) error

	// DeleteFolder removes a folder.
	DeleteFolder(ctx context.Context, id string) error

	// Close releases client resources.
	Close() error
}
