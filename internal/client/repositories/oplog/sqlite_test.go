package oplog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/driftbox/driftbox/internal/client/migrations"
	"github.com/driftbox/driftbox/internal/client/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func TestAppendAssignsIncreasingSeq(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s1, err := repo.Append(ctx, models.RenameFileOp{FileID: "f1", NewName: "a"})
	require.NoError(t, err)
	s2, err := repo.Append(ctx, models.MoveFileOp{FileID: "f1"})
	require.NoError(t, err)
	s3, err := repo.Append(ctx, models.DeleteFileOp{FileID: "f1"})
	require.NoError(t, err)

	assert.Less(t, s1, s2)
	assert.Less(t, s2, s3)
}

func TestListReturnsInsertionOrder(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Append(ctx, models.RenameFileOp{FileID: "f1", NewName: "a"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.MoveFileOp{FileID: "f1"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.DeleteFileOp{FileID: "f1"})
	require.NoError(t, err)

	ops, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, models.OpRenameFile, ops[0].Kind)
	assert.Equal(t, models.OpMoveFile, ops[1].Kind)
	assert.Equal(t, models.OpDeleteFile, ops[2].Kind)
}

func TestPayloadSurvivesRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	folderID := "folder-1"
	in := models.UploadOp{FileID: "tmp-1", Name: "a.txt", MimeType: "text/plain", FolderID: &folderID}
	_, err := repo.Append(ctx, in)
	require.NoError(t, err)

	ops, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, in, ops[0].Payload)
	assert.False(t, ops[0].CreatedAt.IsZero())
}

func TestRemoveDeletesSingleEntry(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	s1, err := repo.Append(ctx, models.RenameFileOp{FileID: "f1", NewName: "a"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.DeleteFileOp{FileID: "f1"})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, s1))

	ops, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OpDeleteFile, ops[0].Kind)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListByKind(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Append(ctx, models.UploadOp{FileID: "tmp-1", Name: "a"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.DeleteFileOp{FileID: "f9"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.UploadOp{FileID: "tmp-2", Name: "b"})
	require.NoError(t, err)

	uploads, err := repo.ListByKind(ctx, models.OpUpload)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "tmp-1", uploads[0].Payload.(models.UploadOp).FileID)
	assert.Equal(t, "tmp-2", uploads[1].Payload.(models.UploadOp).FileID)
}

func TestRewriteIDPreservesSeqOrder(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	tmpFolder := "tmp-folder"
	_, err := repo.Append(ctx, models.UploadOp{FileID: "tmp-file", Name: "a.txt", FolderID: &tmpFolder})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.RenameFolderOp{FolderID: tmpFolder, NewName: "renamed"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, models.DeleteFileOp{FileID: "unrelated"})
	require.NoError(t, err)

	n, err := repo.RewriteID(ctx, tmpFolder, "srv-folder")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ops, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	up := ops[0].Payload.(models.UploadOp)
	require.NotNil(t, up.FolderID)
	assert.Equal(t, "srv-folder", *up.FolderID)
	assert.Equal(t, "tmp-file", up.FileID)

	ren := ops[1].Payload.(models.RenameFolderOp)
	assert.Equal(t, "srv-folder", ren.FolderID)

	assert.Equal(t, "unrelated", ops[2].Payload.(models.DeleteFileOp).FileID)
}

func TestClear(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Append(ctx, models.DeleteFileOp{FileID: "f1"})
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
