package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/logging"
)

func newFolderService(t *testing.T, online bool) (*FolderService, *store.Store, *fakeGateway) {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	gw := &fakeGateway{}
	svc := NewFolderService(s, gw, &fakeMonitor{online: online}, logging.Nop())
	return svc, s, gw
}

func TestCreateFolderOnline(t *testing.T) {
	svc, s, gw := newFolderService(t, true)
	ctx := context.Background()

	rec, mode, err := svc.Create(ctx, "docs", nil)
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, mode)
	assert.Equal(t, "srv-folder-1", rec.ID)
	assert.Equal(t, []string{"create-folder:docs"}, gw.calls)

	stored, err := s.Folders.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateFolderOfflineAssignsTempID(t *testing.T) {
	svc, s, gw := newFolderService(t, false)
	ctx := context.Background()

	rec, mode, err := svc.Create(ctx, "docs", nil)
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)
	assert.True(t, rec.IsTemp)
	assert.True(t, models.IsTempID(rec.ID))
	assert.Empty(t, gw.calls)

	listed, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, rec.ID, listed[0].ID)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.CreateFolderOp{FolderID: rec.ID, Name: "docs"}, ops[0].Payload)
}

func TestCreateNestedOfflineKeepsTempParent(t *testing.T) {
	svc, s, _ := newFolderService(t, false)
	ctx := context.Background()

	parent, _, err := svc.Create(ctx, "photos", nil)
	require.NoError(t, err)
	child, _, err := svc.Create(ctx, "vacation", &parent.ID)
	require.NoError(t, err)

	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	childOp := ops[1].Payload.(models.CreateFolderOp)
	require.NotNil(t, childOp.ParentID)
	assert.Equal(t, parent.ID, *childOp.ParentID)
}

func TestFolderRenameOfflineQueues(t *testing.T) {
	svc, s, _ := newFolderService(t, false)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Folders.Put(ctx, &models.FolderRecord{ID: "d1", Name: "old", CreatedAt: now, UpdatedAt: now}))

	mode, err := svc.Rename(ctx, "d1", "new")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)

	rec, err := s.Folders.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Name)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.RenameFolderOp{FolderID: "d1", NewName: "new"}, ops[0].Payload)
}

func TestFolderMoveOnline(t *testing.T) {
	svc, s, gw := newFolderService(t, true)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Folders.Put(ctx, &models.FolderRecord{ID: "d1", Name: "docs", CreatedAt: now, UpdatedAt: now}))

	target := "d2"
	mode, err := svc.Move(ctx, "d1", &target)
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, mode)
	assert.Equal(t, []string{"move-folder:d1"}, gw.calls)

	rec, err := s.Folders.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, rec.ParentID)
	assert.Equal(t, "d2", *rec.ParentID)
}

func TestFolderDeleteOfflineQueues(t *testing.T) {
	svc, s, gw := newFolderService(t, false)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Folders.Put(ctx, &models.FolderRecord{ID: "d1", Name: "docs", CreatedAt: now, UpdatedAt: now}))

	mode, err := svc.Delete(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)
	assert.Empty(t, gw.calls)

	rec, err := s.Folders.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.DeleteFolderOp{FolderID: "d1"}, ops[0].Payload)
}
