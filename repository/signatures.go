package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/workorders/models"
)

// SignatureRepository stores the one reusable technician signature per employee.
type SignatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

func (r *SignatureRepository) Get(ctx context.Context, employeeID uuid.UUID) (*models.UserSignature, error) {
	var s models.UserSignature
	if err := r.db.WithContext(ctx).First(&s, "employee_id = ?", employeeID).Error; err != nil {
		return nil, wrap(err)
	}
	return &s, nil
}

func (r *SignatureRepository) Put(ctx context.Context, employeeID uuid.UUID, image string) (*models.UserSignature, error) {
	s := &models.UserSignature{EmployeeID: employeeID, Image: image}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"image", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return nil, wrap(err)
	}
	return s, nil
}
