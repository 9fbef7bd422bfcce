package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/driftbox/driftbox/internal/common"
)

// pull fetches the full folder and file listings and upserts them into
// the local store. The server is the source of truth for anything it
// knows about: its copy overwrites local metadata for the same
// identifier. Listing failure aborts the pull with the local cache
// intact.
func (e *Engine) pull(ctx context.Context) (Summary, error) {
	e.emit(Event{Type: EventSyncStart, Direction: DirectionFromServer})

	folders, err := e.gw.ListFolders(ctx, nil)
	if err != nil {
		e.emit(Event{Type: EventSyncError, Direction: DirectionFromServer, Err: err})
		return Summary{}, fmt.Errorf("list folders: %w", err)
	}
	files, err := e.gw.ListFiles(ctx, nil)
	if err != nil {
		e.emit(Event{Type: EventSyncError, Direction: DirectionFromServer, Err: err})
		return Summary{}, fmt.Errorf("list files: %w", err)
	}

	var sum Summary
	for i := range folders {
		if err := e.store.Folders.Put(ctx, &folders[i]); err != nil {
			sum.Failed++
			e.logger.Warn(ctx, "failed to store folder", "folder_id", folders[i].ID, "error", err)
			continue
		}
		sum.Succeeded++
	}
	for i := range files {
		if err := e.store.Files.Put(ctx, &files[i]); err != nil {
			sum.Failed++
			e.logger.Warn(ctx, "failed to store file", "file_id", files[i].ID, "error", err)
			continue
		}
		sum.Succeeded++
		e.maybeCacheContent(ctx, files[i].ID, files[i].Size, files[i].UpdatedAt)
	}

	if e.cache.MaxTotalSize > 0 {
		if _, err := e.store.Contents.EvictLRU(ctx, e.cache.MaxTotalSize); err != nil {
			e.logger.Warn(ctx, "cache eviction failed", "error", err)
		}
	}

	if err := e.store.Meta.SetTime(ctx, common.MetaKeyLastSyncAt, time.Now().UTC()); err != nil {
		e.logger.Warn(ctx, "failed to record last sync time", "error", err)
	}

	e.logger.Info(ctx, "pull finished", "succeeded", sum.Succeeded, "failed", sum.Failed)
	e.emit(Event{
		Type:      EventSyncComplete,
		Direction: DirectionFromServer,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
	})
	return sum, nil
}

// maybeCacheContent opportunistically fetches a small file's bytes so
// they are readable offline. A miss here costs nothing: the next
// download or pull fetches again.
func (e *Engine) maybeCacheContent(ctx context.Context, id string, size int64, updatedAt time.Time) {
	if e.cache.MaxFileSize > 0 && size > e.cache.MaxFileSize {
		return
	}

	info, err := e.store.Contents.GetInfo(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "failed to inspect content cache", "file_id", id, "error", err)
		return
	}
	if info != nil && !info.UpdatedAt.Before(updatedAt) {
		return
	}

	data, err := e.gw.Download(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "failed to prefetch content", "file_id", id, "error", err)
		return
	}
	if err := e.store.Contents.Put(ctx, id, data); err != nil {
		e.logger.Warn(ctx, "failed to cache content", "file_id", id, "error", err)
	}
}
