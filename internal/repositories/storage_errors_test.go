package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStorageError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"closed pool", errors.New("closed pool"), true},
		{"fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapStorageError("op", tc.err)
			if tc.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tc.transient, errors.Is(got, utils.ErrStorageUnavailable))
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestMapStorageError_RefusedConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nothing listens on port 1.
	conn, err := pgconn.Connect(ctx, "postgres://listings@127.0.0.1:1/listings?sslmode=disable&connect_timeout=1")
	if conn != nil {
		_ = conn.Close(ctx)
	}
	require.Error(t, err)

	got := MapStorageError("connect", err)
	assert.ErrorIs(t, got, utils.ErrStorageUnavailable)
	var unavailable *utils.StorageUnavailableError
	assert.ErrorAs(t, got, &unavailable)
}

func TestMapStorageError_DoesNotDoubleWrap(t *testing.T) {
	once := MapStorageError("op", context.DeadlineExceeded)
	twice := MapStorageError("op2", once)
	assert.Same(t, once, twice)
}

func TestWithReadRetry_RecoversFromTransientFailure(t *testing.T) {
	calls := 0
	v, err := WithReadRetry(context.Background(), "read", func(context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, &pgconn.PgError{Code: "08006"}
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestWithReadRetry_GivesUpAfterThreeAttempts(t *testing.T) {
	calls := 0
	_, err := WithReadRetry(context.Background(), "read", func(context.Context) (string, error) {
		calls++
		return "", errors.New("closed pool")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrStorageUnavailable)
	assert.Equal(t, readRetryAttempts, calls)
}

func TestWithReadRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	boom := errors.New("syntax error")
	_, err := WithReadRetry(context.Background(), "read", func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestConstraintViolationHelpers(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
	assert.True(t, IsForeignKeyViolation(fk))
	assert.True(t, IsConstraintViolation(fk))
	assert.True(t, IsConstraintViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsForeignKeyViolation(errors.New("x")))

	assert.True(t, IsDataRangeViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, IsDataRangeViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22003"})))
	assert.False(t, IsDataRangeViolation(fk))
}
