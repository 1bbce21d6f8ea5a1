package repositories

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/poofware/listings-service/internal/utils"
)

const (
	readRetryAttempts = 3
	readRetryBackoff  = 100 * time.Millisecond

	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgUniqueViolation     = "23505"
	pgNumericOutOfRange   = "22003"
)

// MapStorageError turns transient failures (timeouts, refused or lost
// connections, a closed pool) into *utils.StorageUnavailableError. Any other
// error is returned unchanged.
func MapStorageError(op string, err error) error {
	if err == nil || !isTransient(err) {
		return err
	}
	var already *utils.StorageUnavailableError
	if errors.As(err, &already) {
		return err
	}
	return utils.NewStorageUnavailableError(op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	// refused or reset dials surface as *net.OpError under pgconn's connect error
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx connection exception, 57P0x operator shutdown, 53300 too many connections
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "57P0") ||
			pgErr.Code == "53300"
	}
	if errors.Is(err, utils.ErrStorageUnavailable) {
		return true
	}
	return strings.Contains(err.Error(), "closed pool")
}

// WithReadRetry runs an idempotent read up to three times, backing off
// exponentially from 100ms while the failure stays transient. Writes must
// never go through here.
func WithReadRetry[T any](ctx context.Context, op string, read func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := readRetryBackoff

	for attempt := 1; ; attempt++ {
		v, err := read(ctx)
		if err == nil {
			return v, nil
		}
		mapped := MapStorageError(op, err)
		if !errors.Is(mapped, utils.ErrStorageUnavailable) || attempt >= readRetryAttempts || ctx.Err() != nil {
			return zero, mapped
		}

		utils.Logger.WithError(err).WithField("op", op).
			Warnf("transient read failure, retrying in %s (attempt %d/%d)", backoff, attempt, readRetryAttempts)

		select {
		case <-ctx.Done():
			return zero, MapStorageError(op, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// IsForeignKeyViolation reports a 23503 error from Postgres.
func IsForeignKeyViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}

// IsConstraintViolation reports a CHECK, FK or UNIQUE violation.
func IsConstraintViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation) ||
		hasPgCode(err, pgCheckViolation) ||
		hasPgCode(err, pgUniqueViolation)
}

// IsDataRangeViolation reports a value the schema rejects: a failed CHECK
// (23514) or a numeric overflow (22003).
func IsDataRangeViolation(err error) bool {
	return hasPgCode(err, pgCheckViolation) || hasPgCode(err, pgNumericOutOfRange)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
