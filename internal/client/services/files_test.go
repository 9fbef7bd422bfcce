package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/logging"
)

type fakeMonitor struct{ online bool }

func (m *fakeMonitor) Online() bool { return m.online }
func (m *fakeMonitor) SetOnline(v bool) { m.online = v }

// fakeGateway answers every call successfully unless err is set.
type fakeGateway struct {
	err    error
	nextID int
	calls  []string

	downloadData []byte
}

func (g *fakeGateway) record(call string) error {
	g.calls = append(g.calls, call)
	return g.err
}

func (g *fakeGateway) mintID(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

func (g *fakeGateway) Ping(ctx context.Context) error { return g.err }
func (g *fakeGateway) Close() error { return nil }
func (g *fakeGateway) Login(ctx context.Context, u, p string) error { return g.record("login") }
func (g *fakeGateway) Register(ctx context.Context, u, p string) error { return g.record("register") }

func (g *fakeGateway) ListFiles(ctx context.Context, folderID *string) ([]models.FileRecord, error) {
	return nil, g.record("list-files")
}

func (g *fakeGateway) ListFolders(ctx context.Context, parentID *string) ([]models.FolderRecord, error) {
	return nil, g.record("list-folders")
}

func (g *fakeGateway) Upload(ctx context.Context, name, mimeType string, folderID *string, data []byte) (*models.FileRecord, error) {
	if err := g.record("upload:" + name); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	return &models.FileRecord{
		ID: g.mintID("srv-file"), Name: name, Size: int64(len(data)), MimeType: mimeType,
		FolderID: folderID, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (g *fakeGateway) CreateFolder(ctx context.Context, name string, parentID *string) (*models.FolderRecord, error) {
	if err := g.record("create-folder:" + name); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	return &models.FolderRecord{ID: g.mintID("srv-folder"), Name: name, ParentID: parentID, CreatedAt: now, UpdatedAt: now}, nil
}

func (g *fakeGateway) RenameFile(ctx context.Context, id, name string) error {
	return g.record("rename-file:" + id)
}

func (g *fakeGateway) MoveFile(ctx context.Context, id string, folderID *string) error {
	return g.record("move-file:" + id)
}

func (g *fakeGateway) DeleteFile(ctx context.Context, id string) error {
	return g.record("delete-file:" + id)
}

func (g *fakeGateway) Download(ctx context.Context, id string) ([]byte, error) {
	if err := g.record("download:" + id); err != nil {
		return nil, err
	}
	return g.downloadData, nil
}

func (g *fakeGateway) RenameFolder(ctx context.Context, id, name string) error {
	return g.record("rename-folder:" + id)
}

func (g *fakeGateway) MoveFolder(ctx context.Context, id string, parentID *string) error {
	return g.record("move-folder:" + id)
}

func (g *fakeGateway) DeleteFolder(ctx context.Context, id string) error {
	return g.record("delete-folder:" + id)
}

func newFileService(t *testing.T, online bool) (*FileService, *store.Store, *fakeGateway, *fakeMonitor) {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	gw := &fakeGateway{}
	mon := &fakeMonitor{online: online}
	svc := NewFileService(s, gw, mon, CacheLimits{MaxFileSize: 1 << 20, MaxTotalSize: 1 << 24}, logging.Nop())
	return svc, s, gw, mon
}

func TestUploadOnline(t *testing.T) {
	svc, s, _, _ := newFileService(t, true)
	ctx := context.Background()

	rec, mode, err := svc.Upload(ctx, "a.txt", "text/plain", nil, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, mode)
	assert.Equal(t, "srv-file-1", rec.ID)
	assert.False(t, rec.IsTemp)

	stored, err := s.Files.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)

	blob, err := s.Contents.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), blob)

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUploadOfflineIsVisibleBeforeSync(t *testing.T) {
	svc, s, gw, _ := newFileService(t, false)
	ctx := context.Background()

	rec, mode, err := svc.Upload(ctx, "a.txt", "text/plain", nil, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)
	assert.True(t, rec.IsTemp)
	assert.True(t, models.IsTempID(rec.ID))
	assert.Empty(t, gw.calls)

	// Listing the parent shows the record immediately, before any sync.
	listed, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, rec.ID, listed[0].ID)
	assert.True(t, listed[0].IsTemp)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	up := ops[0].Payload.(models.UploadOp)
	assert.Equal(t, rec.ID, up.FileID)
	assert.Equal(t, "a.txt", up.Name)

	blob, err := s.Contents.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), blob)
}

func TestUploadFallsBackWhenDirectCallFails(t *testing.T) {
	svc, s, gw, mon := newFileService(t, true)
	ctx := context.Background()

	gw.err = fmt.Errorf("dial tcp: %w", common.ErrNetworkUnavailable)

	rec, mode, err := svc.Upload(ctx, "a.txt", "text/plain", nil, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)
	assert.True(t, rec.IsTemp)
	assert.False(t, mon.Online())

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDownloadPrefersLocalCache(t *testing.T) {
	svc, s, gw, _ := newFileService(t, true)
	ctx := context.Background()

	require.NoError(t, s.Contents.Put(ctx, "f1", []byte("cached")))

	data, err := svc.Download(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), data)
	assert.Empty(t, gw.calls)
}

func TestDownloadFetchesAndCachesOnMiss(t *testing.T) {
	svc, s, gw, _ := newFileService(t, true)
	ctx := context.Background()

	gw.downloadData = []byte("remote")

	data, err := svc.Download(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)
	assert.Equal(t, []string{"download:f1"}, gw.calls)

	blob, err := s.Contents.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), blob)
}

func TestDownloadOfflineMissFails(t *testing.T) {
	svc, _, gw, _ := newFileService(t, false)

	_, err := svc.Download(context.Background(), "f1")
	assert.ErrorIs(t, err, common.ErrNetworkUnavailable)
	assert.Empty(t, gw.calls)
}

func TestRenameOnlineUpdatesLocalRecord(t *testing.T) {
	svc, s, gw, _ := newFileService(t, true)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Files.Put(ctx, &models.FileRecord{ID: "f1", Name: "old.txt", CreatedAt: now, UpdatedAt: now}))

	mode, err := svc.Rename(ctx, "f1", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, mode)
	assert.Equal(t, []string{"rename-file:f1"}, gw.calls)

	rec, err := s.Files.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", rec.Name)

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRenameOfflineQueues(t *testing.T) {
	svc, s, _, _ := newFileService(t, false)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Files.Put(ctx, &models.FileRecord{ID: "f1", Name: "old.txt", CreatedAt: now, UpdatedAt: now}))

	mode, err := svc.Rename(ctx, "f1", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)

	rec, err := s.Files.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", rec.Name)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.RenameFileOp{FileID: "f1", NewName: "new.txt"}, ops[0].Payload)
}

func TestTempRecordMutationsNeverGoDirect(t *testing.T) {
	svc, s, gw, _ := newFileService(t, true)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	tmpID := models.NewTempID()
	require.NoError(t, s.Files.Put(ctx, &models.FileRecord{ID: tmpID, Name: "a.txt", IsTemp: true, CreatedAt: now, UpdatedAt: now}))

	mode, err := svc.Rename(ctx, tmpID, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)
	assert.Empty(t, gw.calls)

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteOnline(t *testing.T) {
	svc, s, gw, _ := newFileService(t, true)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Files.Put(ctx, &models.FileRecord{ID: "f1", Name: "a.txt", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.Contents.Put(ctx, "f1", []byte("data")))

	mode, err := svc.Delete(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, mode)
	assert.Equal(t, []string{"delete-file:f1"}, gw.calls)

	rec, err := s.Files.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	blob, err := s.Contents.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestDeleteTempOfflineKeepsBlobForQueuedUpload(t *testing.T) {
	svc, s, _, _ := newFileService(t, false)
	ctx := context.Background()

	rec, _, err := svc.Upload(ctx, "a.txt", "text/plain", nil, []byte("hi"))
	require.NoError(t, err)

	mode, err := svc.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)

	gone, err := s.Files.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The queued upload still needs the bytes; the queued delete drops
	// them once it replays.
	blob, err := s.Contents.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, blob)

	ops, err := s.Oplog.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, models.OpUpload, ops[0].Kind)
	assert.Equal(t, models.OpDeleteFile, ops[1].Kind)
}

func TestRenameMissingFileFails(t *testing.T) {
	svc, _, _, _ := newFileService(t, false)

	_, err := svc.Rename(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
