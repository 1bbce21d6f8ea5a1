package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/utils"
)

// withTimeout bounds one service call. A non-positive d leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// mapWriteError keeps taxonomy errors raised inside a unit of work, turns
// values the schema refuses (failed CHECK, numeric overflow) into a
// ValidationError and maps everything else through MapStorageError.
func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, utils.ErrValidation) || errors.Is(err, utils.ErrNotFound) {
		return err
	}
	if repositories.IsDataRangeViolation(err) {
		utils.Logger.WithError(err).WithField("op", op).Debug("Schema rejected a value")
		return utils.NewValidationError(rejectedField(err), "value is out of range")
	}
	return repositories.MapStorageError(op, err)
}

// rejectedField names the column behind a schema rejection when Postgres
// reports one, either directly or through a "<table>_<column>_check" name.
func rejectedField(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	name := strings.TrimSuffix(pgErr.ConstraintName, "_check")
	if name == pgErr.ConstraintName || pgErr.TableName == "" {
		return ""
	}
	return strings.TrimPrefix(name, pgErr.TableName+"_")
}

func ensureOwner(ctx context.Context, users repositories.UserRepository, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return utils.NewNotFoundError("user", ownerID.String())
	}
	exists, err := repositories.WithReadRetry(ctx, "check owner", func(ctx context.Context) (bool, error) {
		return users.Exists(ctx, ownerID)
	})
	if err != nil {
		return err
	}
	if !exists {
		return utils.NewNotFoundError("user", ownerID.String())
	}
	return nil
}

// insertProperty writes the parent row for a validated input. The owner FK
// is reported as NotFound in case the user vanished after ensureOwner.
func insertProperty(ctx context.Context, props repositories.PropertyRepository, in PropertyInput) (*models.Property, error) {
	p := &models.Property{
		ID:      uuid.New(),
		OwnerID: in.OwnerID,
		Title:   in.Title,
		Price:   in.Price,
		Status:  in.Status,
		Address: in.Address,
		Type:    in.Type,
	}
	if err := props.Create(ctx, p); err != nil {
		if repositories.IsForeignKeyViolation(err) {
			return nil, utils.NewNotFoundError("user", in.OwnerID.String())
		}
		return nil, err
	}
	return p, nil
}
