package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/listings-service/internal/utils"
)

// maxVersionRetries bounds how often a status change re-reads a property
// after losing a row_version race.
const maxVersionRetries = 3

// VersionedRow is a row guarded by a row_version column. Pointer types only:
// a nil value means the row does not exist.
type VersionedRow interface {
	comparable
	GetID() uuid.UUID
	GetRowVersion() int64
	SetRowVersion(int64)
}

// UpdateIfVersionFunc writes row only when its stored version still equals
// expected. Zero rows affected means another writer got there first.
type UpdateIfVersionFunc[T VersionedRow] func(ctx context.Context, row T, expected int64) (pgconn.CommandTag, error)

type GetByIDFunc[T VersionedRow] func(ctx context.Context, id uuid.UUID) (T, error)

// RetryVersionedUpdate re-reads the row, applies mutate and writes it back
// guarded by row_version, up to attempts times. A missing row yields
// pgx.ErrNoRows; running out of attempts yields utils.ErrRowVersionConflict.
func RetryVersionedUpdate[T VersionedRow](
	ctx context.Context,
	attempts int,
	id uuid.UUID,
	get GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	var missing T
	for attempt := 1; attempt <= attempts; attempt++ {
		row, err := get(ctx, id)
		if err != nil {
			return err
		}
		if row == missing {
			return pgx.ErrNoRows
		}

		seen := row.GetRowVersion()
		if err := mutate(row); err != nil {
			return err
		}

		tag, err := updateIfVersion(ctx, row, seen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			row.SetRowVersion(seen + 1)
			return nil
		}
		utils.Logger.WithField("row_id", id).
			Debugf("row_version %d is stale, re-reading (attempt %d/%d)", seen, attempt, attempts)
	}
	return fmt.Errorf("row %s kept changing underneath the update: %w", id, utils.ErrRowVersionConflict)
}
