// Package oplog stores the durable queue of mutations not yet acknowledged
// by the server.
package oplog

import (
	"context"
	"fmt"
	"time"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX

	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (r *SQLiteRepository) Append(ctx context.Context, p models.OpPayload) (int64, error) {
	payload, err := models.EncodePayload(p)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pending_operations (kind, payload, created_at) VALUES (?, ?, ?)`,
		string(p.OpKind()), payload, r.now().Unix())
	if err != nil {
		return 0, storageErr("append operation", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("operation sequence", err)
	}
	return seq, nil
}

func (r *SQLiteRepository) selectOps(ctx context.Context, query string, args ...any) ([]models.PendingOp, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select operations", err)
	}
	defer rows.Close()

	var result []models.PendingOp
	for rows.Next() {
		var (
			op        models.PendingOp
			kind      string
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&op.Seq, &kind, &payload, &createdAt); err != nil {
			return nil, storageErr("scan operation", err)
		}
		op.Kind = models.OpKind(kind)
		op.CreatedAt = time.Unix(createdAt, 0).UTC()
		op.Payload, err = models.DecodePayload(op.Kind, payload)
		if err != nil {
			return nil, err
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate operations", err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingOp, error) {
	return r.selectOps(ctx, `SELECT seq, kind, payload, created_at FROM pending_operations ORDER BY seq ASC`)
}

func (r *SQLiteRepository) ListByKind(ctx context.Context, kind models.OpKind) ([]models.PendingOp, error) {
	return r.selectOps(ctx,
		`SELECT seq, kind, payload, created_at FROM pending_operations WHERE kind = ? ORDER BY seq ASC`,
		string(kind))
}

func (r *SQLiteRepository) Remove(ctx context.Context, seq int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE seq = ?`, seq); err != nil {
		return storageErr("remove operation", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&n); err != nil {
		return 0, storageErr("count operations", err)
	}
	return n, nil
}

// RewriteID decodes every pending payload, substitutes oldID for newID
// where referenced, and writes the changed entries back in place. The
// sequence keys are untouched so replay order is preserved.
func (r *SQLiteRepository) RewriteID(ctx context.Context, oldID, newID string) (int, error) {
	ops, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	rewritten := 0
	for _, op := range ops {
		p, changed := models.RewritePayloadID(op.Payload, oldID, newID)
		if !changed {
			continue
		}
		payload, err := models.EncodePayload(p)
		if err != nil {
			return rewritten, err
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE pending_operations SET payload = ? WHERE seq = ?`, payload, op.Seq); err != nil {
			return rewritten, storageErr("rewrite operation", err)
		}
		rewritten++
	}
	return rewritten, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_operations`); err != nil {
		return storageErr("clear operations", err)
	}
	return nil
}
