package syncer

import (
	"context"
	"fmt"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/common"
)

// push replays every pending operation in ascending sequence order. A
// failed entry stays in the log and does not stop later entries; it will
// be retried verbatim on the next pass, which is why every gateway call
// used here must be idempotent on the server side.
func (e *Engine) push(ctx context.Context) (Summary, error) {
	e.emit(Event{Type: EventSyncStart, Direction: DirectionToServer})

	// The log is re-read before every entry: reconciling a create-kind
	// operation rewrites temp identifiers inside payloads still queued
	// behind it, and those rewrites must be visible to later replays.
	var (
		sum     Summary
		lastSeq int64
	)
	for {
		ops, err := e.store.Oplog.List(ctx)
		if err != nil {
			e.emit(Event{Type: EventSyncError, Direction: DirectionToServer, Err: err})
			return sum, fmt.Errorf("read pending operations: %w", err)
		}

		var next *models.PendingOp
		for i := range ops {
			if ops[i].Seq > lastSeq {
				next = &ops[i]
				break
			}
		}
		if next == nil {
			break
		}
		lastSeq = next.Seq

		if err := e.replay(ctx, *next); err != nil {
			sum.Failed++
			e.logger.Warn(ctx, "pending operation failed, will retry next pass",
				"seq", next.Seq, "kind", next.Kind, "error", err)
			continue
		}
		sum.Succeeded++
	}

	e.logger.Info(ctx, "push finished", "succeeded", sum.Succeeded, "failed", sum.Failed)
	e.emit(Event{
		Type:      EventSyncComplete,
		Direction: DirectionToServer,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
	})
	return sum, nil
}

// replay sends one operation to the server and, on success, removes it
// from the log. Create-kind operations additionally reconcile the temp
// identifier with the server-issued one.
func (e *Engine) replay(ctx context.Context, op models.PendingOp) error {
	switch p := op.Payload.(type) {
	case models.UploadOp:
		return e.replayUpload(ctx, op.Seq, p)
	case models.CreateFolderOp:
		return e.replayCreateFolder(ctx, op.Seq, p)
	case models.DeleteFileOp:
		if err := e.gw.DeleteFile(ctx, p.FileID); err != nil {
			return err
		}
		// Reconciling an earlier create in this pass re-puts the row under
		// the server id; it goes away here together with any blob that was
		// kept for the queued upload.
		return e.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
			if err := c.Files.Delete(ctx, p.FileID); err != nil {
				return err
			}
			if err := c.Contents.Delete(ctx, p.FileID); err != nil {
				return err
			}
			return c.Oplog.Remove(ctx, op.Seq)
		})
	case models.DeleteFolderOp:
		if err := e.gw.DeleteFolder(ctx, p.FolderID); err != nil {
			return err
		}
		return e.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
			if err := c.Folders.Delete(ctx, p.FolderID); err != nil {
				return err
			}
			return c.Oplog.Remove(ctx, op.Seq)
		})
	case models.RenameFileOp:
		if err := e.gw.RenameFile(ctx, p.FileID, p.NewName); err != nil {
			return err
		}
		return e.store.Oplog.Remove(ctx, op.Seq)
	case models.RenameFolderOp:
		if err := e.gw.RenameFolder(ctx, p.FolderID, p.NewName); err != nil {
			return err
		}
		return e.store.Oplog.Remove(ctx, op.Seq)
	case models.MoveFileOp:
		if err := e.gw.MoveFile(ctx, p.FileID, p.FolderID); err != nil {
			return err
		}
		return e.store.Oplog.Remove(ctx, op.Seq)
	case models.MoveFolderOp:
		if err := e.gw.MoveFolder(ctx, p.FolderID, p.ParentID); err != nil {
			return err
		}
		return e.store.Oplog.Remove(ctx, op.Seq)
	default:
		return fmt.Errorf("unknown operation kind %q at seq %d", op.Kind, op.Seq)
	}
}

func (e *Engine) replayUpload(ctx context.Context, seq int64, p models.UploadOp) error {
	data, err := e.store.Contents.Get(ctx, p.FileID)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("queued upload %q has no stored content", p.FileID)
	}

	rec, err := e.gw.Upload(ctx, p.Name, p.MimeType, p.FolderID, data)
	if err != nil {
		return err
	}

	// Rewrite the temp identifier everywhere it can appear: the file row,
	// its blob key, and payloads still queued behind this one. All of it
	// commits atomically with the log removal.
	err = e.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Oplog.Remove(ctx, seq); err != nil {
			return err
		}
		if err := c.Files.ReplaceID(ctx, p.FileID, rec.ID); err != nil {
			return err
		}
		if err := c.Files.Put(ctx, rec); err != nil {
			return err
		}
		if err := c.Contents.ReplaceID(ctx, p.FileID, rec.ID); err != nil {
			return err
		}
		if _, err := c.Oplog.RewriteID(ctx, p.FileID, rec.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrReconciliation, err)
	}
	return nil
}

func (e *Engine) replayCreateFolder(ctx context.Context, seq int64, p models.CreateFolderOp) error {
	rec, err := e.gw.CreateFolder(ctx, p.Name, p.ParentID)
	if err != nil {
		return err
	}

	// A temp folder identifier can be referenced as a parent by folders
	// and as an owner by files created inside it while offline; those
	// references are redirected before any later operation replays.
	err = e.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Oplog.Remove(ctx, seq); err != nil {
			return err
		}
		if err := c.Folders.ReplaceID(ctx, p.FolderID, rec.ID); err != nil {
			return err
		}
		if err := c.Folders.Put(ctx, rec); err != nil {
			return err
		}
		if err := c.Folders.RewriteParent(ctx, p.FolderID, rec.ID); err != nil {
			return err
		}
		if err := c.Files.RewriteFolder(ctx, p.FolderID, rec.ID); err != nil {
			return err
		}
		if _, err := c.Oplog.RewriteID(ctx, p.FolderID, rec.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrReconciliation, err)
	}
	return nil
}
