// Package contents caches file content blobs in the local SQLite database
// so previews and downloads keep working offline.
package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX

	// now is a test seam for eviction ordering.
	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (r *SQLiteRepository) Put(ctx context.Context, fileID string, data []byte) error {
	query := ` INSERT INTO file_contents (file_id, data, size, updated_at)
			values (?, ?, ?, ?)
			ON CONFLICT(file_id) DO UPDATE SET data = excluded.data,
				size = excluded.size,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, fileID, data, int64(len(data)), r.now().Unix())
	if err != nil {
		return storageErr("upsert content", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM file_contents WHERE file_id = ?`, fileID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get content", err)
	}
	return data, nil
}

func (r *SQLiteRepository) GetInfo(ctx context.Context, fileID string) (*models.FileContent, error) {
	c := &models.FileContent{FileID: fileID}
	var updatedAt int64
	err := r.db.QueryRowContext(ctx, `SELECT size, updated_at FROM file_contents WHERE file_id = ?`, fileID).
		Scan(&c.Size, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get content info", err)
	}
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return c, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM file_contents WHERE file_id = ?`, fileID); err != nil {
		return storageErr("delete content", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, oldID, newID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE file_contents SET file_id = ? WHERE file_id = ?`, newID, oldID); err != nil {
		return storageErr("replace content id", err)
	}
	return nil
}

func (r *SQLiteRepository) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM file_contents`).Scan(&total)
	if err != nil {
		return 0, storageErr("sum content size", err)
	}
	return total, nil
}

// EvictLRU drops blobs in updated_at order (oldest first) until the cache
// total fits within maxTotalBytes. A blob held under a temp identifier is
// the only copy of offline-created content until its queued upload is sent,
// so it is never an eviction candidate.
func (r *SQLiteRepository) EvictLRU(ctx context.Context, maxTotalBytes int64) (int, error) {
	total, err := r.TotalSize(ctx)
	if err != nil {
		return 0, err
	}
	if total <= maxTotalBytes {
		return 0, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT file_id, size FROM file_contents WHERE file_id NOT LIKE ? ORDER BY updated_at ASC, file_id ASC`,
		models.TempIDPrefix+"%")
	if err != nil {
		return 0, storageErr("list contents for eviction", err)
	}
	defer rows.Close()

	var victims []string
	for rows.Next() {
		var (
			id   string
			size int64
		)
		if err := rows.Scan(&id, &size); err != nil {
			return 0, storageErr("scan content for eviction", err)
		}
		if total <= maxTotalBytes {
			break
		}
		victims = append(victims, id)
		total -= size
	}
	if err := rows.Err(); err != nil {
		return 0, storageErr("iterate contents for eviction", err)
	}
	// Release the read cursor before deleting.
	if err := rows.Close(); err != nil {
		return 0, storageErr("close eviction cursor", err)
	}

	for _, id := range victims {
		if err := r.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(victims), nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM file_contents`); err != nil {
		return storageErr("clear contents", err)
	}
	return nil
}
