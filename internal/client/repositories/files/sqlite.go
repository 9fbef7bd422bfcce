// Package files stores file metadata records in the local SQLite database.
package files

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
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (r *SQLiteRepository) Put(ctx context.Context, f *models.FileRecord) error {
	query := ` INSERT INTO files (id, name, size, mime_type, folder_id, is_temp, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				size = excluded.size,
				mime_type = excluded.mime_type,
				folder_id = excluded.folder_id,
				is_temp = excluded.is_temp,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.Size, f.MimeType, f.FolderID, f.IsTemp,
		f.CreatedAt.Unix(), f.UpdatedAt.Unix())
	if err != nil {
		return storageErr("upsert file", err)
	}
	return nil
}

func scanFile(row interface{ Scan(...any) error }) (*models.FileRecord, error) {
	f := &models.FileRecord{}
	var (
		folderID           sql.NullString
		isTemp             int
		createdAt, updated int64
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Size, &f.MimeType, &folderID, &isTemp, &createdAt, &updated); err != nil {
		return nil, err
	}
	if folderID.Valid {
		f.FolderID = &folderID.String
	}
	f.IsTemp = isTemp != 0
	f.CreatedAt = time.Unix(createdAt, 0).UTC()
	f.UpdatedAt = time.Unix(updated, 0).UTC()
	return f, nil
}

const fileColumns = `id, name, size, mime_type, folder_id, is_temp, created_at, updated_at`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get file", err)
	}
	return f, nil
}

func (r *SQLiteRepository) selectFiles(ctx context.Context, query string, args ...any) ([]models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select files", err)
	}
	defer rows.Close()

	var result []models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, storageErr("scan file", err)
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate files", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.FileRecord, error) {
	return r.selectFiles(ctx, `SELECT `+fileColumns+` FROM files ORDER BY name`)
}

func (r *SQLiteRepository) GetByFolder(ctx context.Context, folderID *string) ([]models.FileRecord, error) {
	if folderID == nil {
		return r.selectFiles(ctx, `SELECT `+fileColumns+` FROM files WHERE folder_id IS NULL ORDER BY name`)
	}
	return r.selectFiles(ctx, `SELECT `+fileColumns+` FROM files WHERE folder_id = ? ORDER BY name`, *folderID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return storageErr("delete file", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, oldID, newID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE files SET id = ? WHERE id = ?`, newID, oldID); err != nil {
		return storageErr("replace file id", err)
	}
	return nil
}

func (r *SQLiteRepository) RewriteFolder(ctx context.Context, oldFolderID, newFolderID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE files SET folder_id = ? WHERE folder_id = ?`, newFolderID, oldFolderID); err != nil {
		return storageErr("rewrite file folder", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return storageErr("clear files", err)
	}
	return nil
}
