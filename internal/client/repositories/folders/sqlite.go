// Package folders stores folder metadata records in the local SQLite database.
package folders

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

func (r *SQLiteRepository) Put(ctx context.Context, f *models.FolderRecord) error {
	query := ` INSERT INTO folders (id, name, parent_id, is_temp, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				parent_id = excluded.parent_id,
				is_temp = excluded.is_temp,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.ParentID, f.IsTemp, f.CreatedAt.Unix(), f.UpdatedAt.Unix())
	if err != nil {
		return storageErr("upsert folder", err)
	}
	return nil
}

const folderColumns = `id, name, parent_id, is_temp, created_at, updated_at`

func scanFolder(row interface{ Scan(...any) error }) (*models.FolderRecord, error) {
	f := &models.FolderRecord{}
	var (
		parentID           sql.NullString
		isTemp             int
		createdAt, updated int64
	)
	if err := row.Scan(&f.ID, &f.Name, &parentID, &isTemp, &createdAt, &updated); err != nil {
		return nil, err
	}
	if parentID.Valid {
		f.ParentID = &parentID.String
	}
	f.IsTemp = isTemp != 0
	f.CreatedAt = time.Unix(createdAt, 0).UTC()
	f.UpdatedAt = time.Unix(updated, 0).UTC()
	return f, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.FolderRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get folder", err)
	}
	return f, nil
}

func (r *SQLiteRepository) selectFolders(ctx context.Context, query string, args ...any) ([]models.FolderRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select folders", err)
	}
	defer rows.Close()

	var result []models.FolderRecord
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, storageErr("scan folder", err)
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate folders", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.FolderRecord, error) {
	return r.selectFolders(ctx, `SELECT `+folderColumns+` FROM folders ORDER BY name`)
}

func (r *SQLiteRepository) GetByParent(ctx context.Context, parentID *string) ([]models.FolderRecord, error) {
	if parentID == nil {
		return r.selectFolders(ctx, `SELECT `+folderColumns+` FROM folders WHERE parent_id IS NULL ORDER BY name`)
	}
	return r.selectFolders(ctx, `SELECT `+folderColumns+` FROM folders WHERE parent_id = ? ORDER BY name`, *parentID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return storageErr("delete folder", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, oldID, newID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE folders SET id = ? WHERE id = ?`, newID, oldID); err != nil {
		return storageErr("replace folder id", err)
	}
	return nil
}

func (r *SQLiteRepository) RewriteParent(ctx context.Context, oldParentID, newParentID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE folders SET parent_id = ? WHERE parent_id = ?`, newParentID, oldParentID); err != nil {
		return storageErr("rewrite folder parent", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders`); err != nil {
		return storageErr("clear folders", err)
	}
	return nil
}
