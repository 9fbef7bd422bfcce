// Package store assembles the local persistent store: a SQLite database
// holding five independent collections (files, folders, file contents, the
// pending-operation log, and user meta), each behind its own repository.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/driftbox/driftbox/internal/client/migrations"
	"github.com/driftbox/driftbox/internal/client/repositories/contents"
	"github.com/driftbox/driftbox/internal/client/repositories/files"
	"github.com/driftbox/driftbox/internal/client/repositories/folders"
	"github.com/driftbox/driftbox/internal/client/repositories/oplog"
	"github.com/driftbox/driftbox/internal/client/repositories/usermeta"
	"github.com/driftbox/driftbox/internal/dbx"
)

// Collections groups the five repositories over one DBTX, so the same set
// can be bound to the database or to a transaction.
type Collections struct {
	Files    files.Repository
	Folders  folders.Repository
	Contents contents.Repository
	Oplog    oplog.Repository
	Meta     usermeta.Repository
}

func newCollections(db dbx.DBTX) *Collections {
	return &Collections{
		Files:    files.NewSQLiteRepository(db),
		Folders:  folders.NewSQLiteRepository(db),
		Contents: contents.NewSQLiteRepository(db),
		Oplog:    oplog.NewSQLiteRepository(db),
		Meta:     usermeta.NewSQLiteRepository(db),
	}
}

// Store is the durable local store. Individual operations are atomic per
// collection; the few cross-collection invariants (file+blob delete,
// clear-all, identifier reconciliation) run inside explicit transactions.
type Store struct {
	*Collections

	db *sql.DB
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if necessary) the SQLite database at dsn and brings
// its schema up to date.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The modernc driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{Collections: newCollections(db), db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn with a transaction-bound set of collections. Commits on
// success, rolls back on error.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, c *Collections) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newCollections(tx))
	})
}

// DeleteFile removes a file record and its cached content blob in one
// transaction: both or neither.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(ctx context.Context, c *Collections) error {
		if err := c.Files.Delete(ctx, id); err != nil {
			return err
		}
		return c.Contents.Delete(ctx, id)
	})
}

// ClearAll wipes every collection. Used on logout.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.WithTx(ctx, func(ctx context.Context, c *Collections) error {
		if err := c.Files.Clear(ctx); err != nil {
			return err
		}
		if err := c.Folders.Clear(ctx); err != nil {
			return err
		}
		if err := c.Contents.Clear(ctx); err != nil {
			return err
		}
		if err := c.Oplog.Clear(ctx); err != nil {
			return err
		}
		return c.Meta.Clear(ctx)
	})
}
