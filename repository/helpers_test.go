package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/workorders/config"
	"p9e.in/workorders/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Connect(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createEmployee(t *testing.T, db *gorm.DB, email string, role models.Role, manager *uuid.UUID) models.Employee {
	t.Helper()
	e := models.Employee{
		FirstName:    "Test",
		LastName:     email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		ManagerID:    manager,
		IsActive:     true,
	}
	require.NoError(t, NewEmployeeRepository(db).Create(context.Background(), &e))
	return e
}

func actorOf(e models.Employee) Actor {
	return Actor{EmployeeID: e.ID, Role: e.Role}
}
