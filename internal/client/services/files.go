package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driftbox/driftbox/internal/client/gateway"
	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/logging"
)

// FileService wraps file CRUD with the two-path online/offline behavior.
type FileService struct {
	store   *store.Store
	gw      gateway.Gateway
	monitor StatusMonitor
	cache   CacheLimits
	logger  logging.Logger
}

// NewFileService creates the service. A nil monitor means "assume online".
func NewFileService(s *store.Store, gw gateway.Gateway, monitor StatusMonitor, cache CacheLimits, logger logging.Logger) *FileService {
	if monitor == nil {
		monitor = alwaysOnline{}
	}
	return &FileService{store: s, gw: gw, monitor: monitor, cache: cache, logger: logger}
}

// List returns the files in a folder from the local store. A nil folderID
// selects the root. The local view includes offline-created temp records.
func (s *FileService) List(ctx context.Context, folderID *string) ([]models.FileRecord, error) {
	return s.store.Files.GetByFolder(ctx, folderID)
}

// Get returns one file record from the local store, or nil if absent.
func (s *FileService) Get(ctx context.Context, id string) (*models.FileRecord, error) {
	return s.store.Files.Get(ctx, id)
}

// Upload stores a new file. Online it hits the server and caches the
// confirmed record; offline it creates a temp record, stores the bytes
// locally and queues an upload operation.
func (s *FileService) Upload(ctx context.Context, name, mimeType string, folderID *string, data []byte) (*models.FileRecord, Mode, error) {
	if s.monitor.Online() {
		rec, err := s.gw.Upload(ctx, name, mimeType, folderID, data)
		if err == nil {
			if err := s.store.Files.Put(ctx, rec); err != nil {
				return nil, ModeOnline, err
			}
			s.cacheContent(ctx, rec.ID, data)
			return rec, ModeOnline, nil
		}
		s.reportFailure(ctx, "upload", err)
	}

	now := time.Now().UTC()
	rec := &models.FileRecord{
		ID:        models.NewTempID(),
		Name:      name,
		Size:      int64(len(data)),
		MimeType:  mimeType,
		FolderID:  folderID,
		IsTemp:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Files.Put(ctx, rec); err != nil {
			return err
		}
		if err := c.Contents.Put(ctx, rec.ID, data); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.UploadOp{
			FileID:   rec.ID,
			Name:     name,
			MimeType: mimeType,
			FolderID: folderID,
		})
		return err
	})
	if err != nil {
		return nil, ModeOffline, err
	}
	return rec, ModeOffline, nil
}

// Download returns the file's bytes, preferring the local blob cache and
// falling back to the server. Fetched content is cached for offline use
// when it fits the per-file ceiling.
func (s *FileService) Download(ctx context.Context, id string) ([]byte, error) {
	data, err := s.store.Contents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	if !s.monitor.Online() {
		return nil, fmt.Errorf("content for %q is not cached: %w", id, common.ErrNetworkUnavailable)
	}
	data, err = s.gw.Download(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNetworkUnavailable) {
			s.monitor.SetOnline(false)
		}
		return nil, err
	}
	s.cacheContent(ctx, id, data)
	return data, nil
}

// Rename changes the display name. Temp records always take the offline
// path since the server does not know their identifier yet.
func (s *FileService) Rename(ctx context.Context, id, name string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.RenameFile(ctx, id, name)
		if err == nil {
			return ModeOnline, s.applyRename(ctx, id, name)
		}
		s.reportFailure(ctx, "rename file", err)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := applyFileRename(ctx, c, id, name); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.RenameFileOp{FileID: id, NewName: name})
		return err
	})
	return ModeOffline, err
}

// Move changes the owning folder; a nil folderID moves the file to the
// root.
func (s *FileService) Move(ctx context.Context, id string, folderID *string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.MoveFile(ctx, id, folderID)
		if err == nil {
			return ModeOnline, s.applyMove(ctx, id, folderID)
		}
		s.reportFailure(ctx, "move file", err)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := applyFileMove(ctx, c, id, folderID); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.MoveFileOp{FileID: id, FolderID: folderID})
		return err
	})
	return ModeOffline, err
}

// Delete removes the file. The offline path keeps the content blob of a
// temp record in place: a queued upload still needs those bytes, and the
// queued delete drops them once it replays.
func (s *FileService) Delete(ctx context.Context, id string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.DeleteFile(ctx, id)
		if err == nil {
			return ModeOnline, s.store.DeleteFile(ctx, id)
		}
		s.reportFailure(ctx, "delete file", err)
	}

	keepBlob := models.IsTempID(id)
	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Files.Delete(ctx, id); err != nil {
			return err
		}
		if !keepBlob {
			if err := c.Contents.Delete(ctx, id); err != nil {
				return err
			}
		}
		_, err := c.Oplog.Append(ctx, models.DeleteFileOp{FileID: id})
		return err
	})
	return ModeOffline, err
}

func (s *FileService) applyRename(ctx context.Context, id, name string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		return applyFileRename(ctx, c, id, name)
	})
}

func (s *FileService) applyMove(ctx context.Context, id string, folderID *string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		return applyFileMove(ctx, c, id, folderID)
	})
}

func applyFileRename(ctx context.Context, c *store.Collections, id, name string) error {
	rec, err := c.Files.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("file %q: %w", id, common.ErrNotFound)
	}
	rec.Name = name
	rec.UpdatedAt = time.Now().UTC()
	return c.Files.Put(ctx, rec)
}

func applyFileMove(ctx context.Context, c *store.Collections, id string, folderID *string) error {
	rec, err := c.Files.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("file %q: %w", id, common.ErrNotFound)
	}
	rec.FolderID = folderID
	rec.UpdatedAt = time.Now().UTC()
	return c.Files.Put(ctx, rec)
}

// cacheContent stores a blob if it fits the per-file ceiling, then trims
// the cache back under the total ceiling. Cache failures are logged, not
// surfaced: the user's operation already succeeded.
func (s *FileService) cacheContent(ctx context.Context, id string, data []byte) {
	if s.cache.MaxFileSize > 0 && int64(len(data)) > s.cache.MaxFileSize {
		return
	}
	if err := s.store.Contents.Put(ctx, id, data); err != nil {
		s.logger.Warn(ctx, "failed to cache file content", "file_id", id, "error", err)
		return
	}
	if s.cache.MaxTotalSize > 0 {
		if _, err := s.store.Contents.EvictLRU(ctx, s.cache.MaxTotalSize); err != nil {
			s.logger.Warn(ctx, "cache eviction failed", "error", err)
		}
	}
}

func (s *FileService) reportFailure(ctx context.Context, op string, err error) {
	if errors.Is(err, common.ErrNetworkUnavailable) {
		s.monitor.SetOnline(false)
	}
	s.logger.Warn(ctx, "direct call failed, falling back to offline path", "op", op, "error", err)
}
