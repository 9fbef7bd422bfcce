// Package models defines client-side data models for the driftbox CLI:
// file and folder metadata records, cached content blobs, and the
// pending-operation log entries used for offline sync.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix tags locally generated identifiers for entities created
// while offline. Temp identifiers are never reused and are reconciled to a
// server identifier exactly once, when the corresponding create operation
// first replays successfully.
const TempIDPrefix = "tmp-"

// NewTempID generates a fresh temp identifier.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id is a locally generated placeholder rather
// than a server-issued identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// FileRecord is one file's metadata (not its bytes).
type FileRecord struct {
	// ID is either a server identifier or a temp identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Size is the content size in bytes.
	Size int64 `json:"size"`

	// MimeType is the declared content type.
	MimeType string `json:"mime_type"`

	// FolderID is the owning folder; nil means root.
	FolderID *string `json:"folder_id"`

	// IsTemp marks records created offline whose identifier has not been
	// confirmed by the server yet.
	IsTemp bool `json:"is_temp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderRecord is one folder's metadata.
type FolderRecord struct {
	ID string `json:"id"`

	Name string `json:"name"`

	// ParentID is the parent folder; nil means root.
	ParentID *string `json:"parent_id"`

	IsTemp bool `json:"is_temp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileContent is a cached binary payload associated 1:1 with a FileRecord.
// It serves previews/downloads while offline and re-submits queued uploads.
type FileContent struct {
	FileID    string
	Data      []byte
	Size      int64
	UpdatedAt time.Time
}
