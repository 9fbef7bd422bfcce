package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpKind identifies a pending-operation variant.
type OpKind string

const (
	OpUpload       OpKind = "upload"
	OpDeleteFile   OpKind = "delete-file"
	OpDeleteFolder OpKind = "delete-folder"
	OpRenameFile   OpKind = "rename-file"
	OpRenameFolder OpKind = "rename-folder"
	OpCreateFolder OpKind = "create-folder"
	OpMoveFile     OpKind = "move-file"
	OpMoveFolder   OpKind = "move-folder"
)

// OpPayload is the tagged-union payload of a pending operation. Each kind
// carries only the fields it needs; replay dispatches on the concrete type.
type OpPayload interface {
	OpKind() OpKind
}

// UploadOp queues a file created offline. The content bytes live in the
// file-contents collection under FileID.
type UploadOp struct {
	FileID   string  `json:"file_id"`
	Name     string  `json:"name"`
	MimeType string  `json:"mime_type"`
	FolderID *string `json:"folder_id"`
}

func (UploadOp) OpKind() OpKind { return OpUpload }

// CreateFolderOp queues a folder created offline.
type CreateFolderOp struct {
	FolderID string  `json:"folder_id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

func (CreateFolderOp) OpKind() OpKind { return OpCreateFolder }

type DeleteFileOp struct {
	FileID string `json:"file_id"`
}

func (DeleteFileOp) OpKind() OpKind { return OpDeleteFile }

type DeleteFolderOp struct {
	FolderID string `json:"folder_id"`
}

func (DeleteFolderOp) OpKind() OpKind { return OpDeleteFolder }

type RenameFileOp struct {
	FileID  string `json:"file_id"`
	NewName string `json:"new_name"`
}

func (RenameFileOp) OpKind() OpKind { return OpRenameFile }

type RenameFolderOp struct {
	FolderID string `json:"folder_id"`
	NewName  string `json:"new_name"`
}

func (RenameFolderOp) OpKind() OpKind { return OpRenameFolder }

type MoveFileOp struct {
	FileID   string  `json:"file_id"`
	FolderID *string `json:"folder_id"`
}

func (MoveFileOp) OpKind() OpKind { return OpMoveFile }

type MoveFolderOp struct {
	FolderID string  `json:"folder_id"`
	ParentID *string `json:"parent_id"`
}

func (MoveFolderOp) OpKind() OpKind { return OpMoveFolder }

// PendingOp is one durable, append-only log entry. Seq is auto-assigned at
// insertion and strictly increasing; insertion order defines replay order.
// An entry stays pending until it replays successfully, then it is removed;
// failure is not a terminal state.
type PendingOp struct {
	Seq       int64
	Kind      OpKind
	Payload   OpPayload
	CreatedAt time.Time
}

// EncodePayload serializes a payload for storage.
func EncodePayload(p OpPayload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.OpKind(), err)
	}
	return b, nil
}

// DecodePayload deserializes a stored payload according to its kind.
func DecodePayload(kind OpKind, data []byte) (OpPayload, error) {
	var (
		p   OpPayload
		err error
	)
	switch kind {
	case OpUpload:
		var v UploadOp
		err, p = json.Unmarshal(data, &v), v
	case OpCreateFolder:
		var v CreateFolderOp
		err, p = json.Unmarshal(data, &v), v
	case OpDeleteFile:
		var v DeleteFileOp
		err, p = json.Unmarshal(data, &v), v
	case OpDeleteFolder:
		var v DeleteFolderOp
		err, p = json.Unmarshal(data, &v), v
	case OpRenameFile:
		var v RenameFileOp
		err, p = json.Unmarshal(data, &v), v
	case OpRenameFolder:
		var v RenameFolderOp
		err, p = json.Unmarshal(data, &v), v
	case OpMoveFile:
		var v MoveFileOp
		err, p = json.Unmarshal(data, &v), v
	case OpMoveFolder:
		var v MoveFolderOp
		err, p = json.Unmarshal(data, &v), v
	default:
		return nil, fmt.Errorf("unknown operation kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}

// RewritePayloadID substitutes a reconciled identifier in a payload.
// It returns the (possibly updated) payload and whether anything changed.
// Every variant is handled explicitly so a new kind cannot silently skip
// reconciliation.
func RewritePayloadID(p OpPayload, oldID, newID string) (OpPayload, bool) {
	switch v := p.(type) {
	case UploadOp:
		changed := false
		if v.FileID == oldID {
			v.FileID = newID
			changed = true
		}
		if v.FolderID != nil && *v.FolderID == oldID {
			id := newID
			v.FolderID = &id
			changed = true
		}
		return v, changed
	case CreateFolderOp:
		changed := false
		if v.FolderID == oldID {
			v.FolderID = newID
			changed = true
		}
		if v.ParentID != nil && *v.ParentID == oldID {
			id := newID
			v.ParentID = &id
			changed = true
		}
		return v, changed
	case DeleteFileOp:
		if v.FileID == oldID {
			v.FileID = newID
			return v, true
		}
		return v, false
	case DeleteFolderOp:
		if v.FolderID == oldID {
			v.FolderID = newID
			return v, true
		}
		return v, false
	case RenameFileOp:
		if v.FileID == oldID {
			v.FileID = newID
			return v, true
		}
		return v, false
	case RenameFolderOp:
		if v.FolderID == oldID {
			v.FolderID = newID
			return v, true
		}
		return v, false
	case MoveFileOp:
		changed := false
		if v.FileID == oldID {
			v.FileID = newID
			changed = true
		}
		if v.FolderID != nil && *v.FolderID == oldID {
			id := newID
			v.FolderID = &id
			changed = true
		}
		return v, changed
	case MoveFolderOp:
		changed := false
		if v.FolderID == oldID {
			v.FolderID = newID
			changed = true
		}
		if v.ParentID != nil && *v.ParentID == oldID {
			id := newID
			v.ParentID = &id
			changed = true
		}
		return v, changed
	default:
		return p, false
	}
}
