package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// versionedRepo gives a table with a row_version column its single-row read
// and its optimistic update loop. Concrete repositories embed it and supply
// the SELECT ... WHERE id=$1 statement plus a scanner that maps
// pgx.ErrNoRows to a nil row.
type versionedRepo[T VersionedRow] struct {
	db         DB
	selectByID string
	scan       func(row pgx.Row) (T, error)
}

func newVersionedRepo[T VersionedRow](db DB, selectByID string, scan func(pgx.Row) (T, error)) *versionedRepo[T] {
	return &versionedRepo[T]{db: db, selectByID: selectByID, scan: scan}
}

func (b *versionedRepo[T]) getByID(ctx context.Context, id uuid.UUID) (T, error) {
	return b.scan(b.db.QueryRow(ctx, b.selectByID, id))
}

func (b *versionedRepo[T]) updateWithRetry(
	ctx context.Context,
	id uuid.UUID,
	mutate func(T) error,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	return RetryVersionedUpdate(ctx, maxVersionRetries, id, b.getByID, updateIfVersion, mutate)
}
