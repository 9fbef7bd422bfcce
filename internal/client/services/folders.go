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

// FolderService wraps folder CRUD with the two-path online/offline
// behavior.
type FolderService struct {
	store   *store.Store
	gw      gateway.Gateway
	monitor StatusMonitor
	logger  logging.Logger
}

func NewFolderService(s *store.Store, gw gateway.Gateway, monitor StatusMonitor, logger logging.Logger) *FolderService {
	if monitor == nil {
		monitor = alwaysOnline{}
	}
	return &FolderService{store: s, gw: gw, monitor: monitor, logger: logger}
}

// List returns the folders under a parent from the local store. A nil
// parentID selects the root.
func (s *FolderService) List(ctx context.Context, parentID *string) ([]models.FolderRecord, error) {
	return s.store.Folders.GetByParent(ctx, parentID)
}

// Get returns one folder record from the local store, or nil if absent.
func (s *FolderService) Get(ctx context.Context, id string) (*models.FolderRecord, error) {
	return s.store.Folders.Get(ctx, id)
}

// Create makes a new folder. Offline it assigns a temp identifier and
// queues a create-folder operation; children created before the next sync
// reference that temp identifier and are rewritten at reconciliation.
func (s *FolderService) Create(ctx context.Context, name string, parentID *string) (*models.FolderRecord, Mode, error) {
	if s.monitor.Online() {
		rec, err := s.gw.CreateFolder(ctx, name, parentID)
		if err == nil {
			if err := s.store.Folders.Put(ctx, rec); err != nil {
				return nil, ModeOnline, err
			}
			return rec, ModeOnline, nil
		}
		s.reportFailure(ctx, "create folder", err)
	}

	now := time.Now().UTC()
	rec := &models.FolderRecord{
		ID:        models.NewTempID(),
		Name:      name,
		ParentID:  parentID,
		IsTemp:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Folders.Put(ctx, rec); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.CreateFolderOp{
			FolderID: rec.ID,
			Name:     name,
			ParentID: parentID,
		})
		return err
	})
	if err != nil {
		return nil, ModeOffline, err
	}
	return rec, ModeOffline, nil
}

func (s *FolderService) Rename(ctx context.Context, id, name string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.RenameFolder(ctx, id, name)
		if err == nil {
			return ModeOnline, s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
				return applyFolderRename(ctx, c, id, name)
			})
		}
		s.reportFailure(ctx, "rename folder", err)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := applyFolderRename(ctx, c, id, name); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.RenameFolderOp{FolderID: id, NewName: name})
		return err
	})
	return ModeOffline, err
}

func (s *FolderService) Move(ctx context.Context, id string, parentID *string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.MoveFolder(ctx, id, parentID)
		if err == nil {
			return ModeOnline, s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
				return applyFolderMove(ctx, c, id, parentID)
			})
		}
		s.reportFailure(ctx, "move folder", err)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := applyFolderMove(ctx, c, id, parentID); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.MoveFolderOp{FolderID: id, ParentID: parentID})
		return err
	})
	return ModeOffline, err
}

// Delete removes the folder record. Children are not touched locally; the
// server cascades the delete and the next pull settles the local view.
func (s *FolderService) Delete(ctx context.Context, id string) (Mode, error) {
	if !models.IsTempID(id) && s.monitor.Online() {
		err := s.gw.DeleteFolder(ctx, id)
		if err == nil {
			return ModeOnline, s.store.Folders.Delete(ctx, id)
		}
		s.reportFailure(ctx, "delete folder", err)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, c *store.Collections) error {
		if err := c.Folders.Delete(ctx, id); err != nil {
			return err
		}
		_, err := c.Oplog.Append(ctx, models.DeleteFolderOp{FolderID: id})
		return err
	})
	return ModeOffline, err
}

func applyFolderRename(ctx context.Context, c *store.Collections, id, name string) error {
	rec, err := c.Folders.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("folder %q: %w", id, common.ErrNotFound)
	}
	rec.Name = name
	rec.UpdatedAt = time.Now().UTC()
	return c.Folders.Put(ctx, rec)
}

func applyFolderMove(ctx context.Context, c *store.Collections, id string, parentID *string) error {
	rec, err := c.Folders.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("folder %q: %w", id, common.ErrNotFound)
	}
	rec.ParentID = parentID
	rec.UpdatedAt = time.Now().UTC()
	return c.Folders.Put(ctx, rec)
}

func (s *FolderService) reportFailure(ctx context.Context, op string, err error) {
	if errors.Is(err, common.ErrNetworkUnavailable) {
		s.monitor.SetOnline(false)
	}
	s.logger.Warn(ctx, "direct call failed, falling back to offline path", "op", op, "error", err)
}
