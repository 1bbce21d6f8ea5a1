package repositories

import (
	"context"
	"fmt"

	"github.com/poofware/listings-service/internal/utils"
)

// Repos bundles every repository over one connection or transaction.
type Repos struct {
	Properties PropertyRepository
	Details    PropertyDetailRepository
	Images     PropertyImageRepository
	Listings   ListingQueryRepository
	Users      UserRepository
}

// NewRepos builds the repository set over db, which may be a pool or a tx.
func NewRepos(db DB) Repos {
	return Repos{
		Properties: NewPropertyRepository(db),
		Details:    NewPropertyDetailRepository(db),
		Images:     NewPropertyImageRepository(db),
		Listings:   NewListingQueryRepository(db),
		Users:      NewUserRepository(db),
	}
}

// UnitOfWork runs fn against repositories that share one transaction. The
// transaction commits only when fn returns nil.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Repos) error) error
}

type pgUnitOfWork struct {
	db DB
}

func NewPgUnitOfWork(db DB) UnitOfWork {
	return &pgUnitOfWork{db: db}
}

func (u *pgUnitOfWork) Do(ctx context.Context, fn func(Repos) error) (err error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				utils.Logger.WithError(rbErr).Warn("transaction rollback failed")
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	err = fn(NewRepos(tx))
	return err
}
