package testhelpers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLand(owner uuid.UUID) *models.Property {
	return &models.Property{
		ID: uuid.New(), OwnerID: owner, Title: "Plot", Price: 10,
		Status: models.PropertyStatusAvailable, Address: "Lane 1", Type: models.PropertyTypeLand,
	}
}

func TestMemStore_ImageIDsNeverRewind(t *testing.T) {
	s := NewMemStore()
	owner := s.AddUser(models.RoleOwner)
	ctx := context.Background()

	var lost []models.PropertyImage
	err := s.Do(ctx, func(r repositories.Repos) error {
		p := newLand(owner.ID)
		require.NoError(t, r.Properties.Create(ctx, p))
		var err error
		lost, err = r.Images.InsertMany(ctx, p.ID, []string{"/uploads/a.png", "/uploads/b.png"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)
	require.Len(t, lost, 2)
	assert.Zero(t, s.ImageCount())
	assert.Zero(t, s.PropertyCount())

	var kept []models.PropertyImage
	err = s.Do(ctx, func(r repositories.Repos) error {
		p := newLand(owner.ID)
		if err := r.Properties.Create(ctx, p); err != nil {
			return err
		}
		var err error
		kept, err = r.Images.InsertMany(ctx, p.ID, []string{"/uploads/c.png"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Greater(t, kept[0].ID, lost[1].ID)
}

func TestMemStore_RollbackRestoresRows(t *testing.T) {
	s := NewMemStore()
	owner := s.AddUser(models.RoleOwner)
	ctx := context.Background()
	s.FailOn("UnitOfWork.Commit", errors.New("commit lost"))

	err := s.Do(ctx, func(r repositories.Repos) error {
		p := newLand(owner.ID)
		if err := r.Properties.Create(ctx, p); err != nil {
			return err
		}
		return r.Details.Insert(ctx, &models.LandDetail{PropertyID: p.ID, Area: 100})
	})
	require.Error(t, err)
	assert.Zero(t, s.PropertyCount())
}
