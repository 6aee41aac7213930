package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/workorders/models"
)

func TestEmployees(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository(db)
	ctx := context.Background()

	lead := createEmployee(t, db, "Lead@X.hr", models.RoleLead, nil)
	createEmployee(t, db, "tech@x.hr", models.RoleTechnician, &lead.ID)

	got, err := repo.GetByEmail(ctx, " LEAD@x.hr ")
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)

	dup := models.Employee{FirstName: "A", LastName: "B", Email: "lead@x.hr", PasswordHash: "x"}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	rows, total, err := repo.List(ctx, EmployeeFilter{ManagerID: &lead.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "tech@x.hr", rows[0].Email)

	rows, _, err = repo.List(ctx, EmployeeFilter{Role: models.RoleLead})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.Deactivate(ctx, lead.ID))
	inactive := false
	_, total, err = repo.List(ctx, EmployeeFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.ErrorIs(t, repo.Deactivate(ctx, uuid.New()), ErrNotFound)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCRUD_Vehicles(t *testing.T) {
	db := newTestDB(t)
	repo := NewCRUD[models.Vehicle](db, "registration")
	ctx := context.Background()

	v := models.Vehicle{Registration: "ZG-1234-AB", Make: "Renault", IsActive: true}
	require.NoError(t, repo.Create(ctx, &v))
	require.NoError(t, repo.Create(ctx, &models.Vehicle{Registration: "ST-555-C"}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Vehicle{Registration: "ZG-1234-AB"}), ErrDuplicate)

	rows, total, err := repo.List(ctx, Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "ST-555-C", rows[0].Registration)

	v.Model = "Kangoo"
	require.NoError(t, repo.Update(ctx, &v))
	got, err := repo.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kangoo", got.Model)

	require.NoError(t, repo.Delete(ctx, v.ID))
	_, err = repo.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, v.ID), ErrNotFound)
}

func TestSettings(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, map[string]string{models.SettingCompanyName: "Servis d.o.o."}))
	require.NoError(t, repo.Set(ctx, map[string]string{models.SettingCompanyName: "Servis j.d.o.o."}))
	assert.ErrorIs(t, repo.Set(ctx, map[string]string{"theme": "dark"}), ErrUnknownSetting)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Servis j.d.o.o.", all[models.SettingCompanyName])
	assert.Len(t, all, len(models.SettingKeys))
}

func TestSignatures(t *testing.T) {
	db := newTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()
	e := createEmployee(t, db, "tech@x.hr", models.RoleTechnician, nil)

	_, err := repo.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Put(ctx, e.ID, "data:image/png;base64,AA")
	require.NoError(t, err)
	_, err = repo.Put(ctx, e.ID, "/uploads/signatures/b.png")
	require.NoError(t, err)

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/signatures/b.png", got.Image)
}
