package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/workorders/models"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// EmployeeFilter narrows List. Zero values match everything.
type EmployeeFilter struct {
	Role      models.Role
	ManagerID *uuid.UUID
	Active    *bool
	Search    string
	Page
}

func (r *EmployeeRepository) List(ctx context.Context, f EmployeeFilter) ([]models.Employee, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.ManagerID != nil {
		q = q.Where("manager_id = ?", *f.ManagerID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}
	var rows []models.Employee
	err := f.Page.apply(q.Order("last_name, first_name")).
		Preload("Location").Preload("Vehicle").
		Find(&rows).Error
	return rows, total, wrap(err)
}

func (r *EmployeeRepository) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var e models.Employee
	err := r.db.WithContext(ctx).Preload("Location").Preload("Vehicle").First(&e, "id = ?", id).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &e, nil
}

// GetByEmail matches case-insensitively.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var e models.Employee
	err := r.db.WithContext(ctx).First(&e, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &e, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	return wrap(r.db.WithContext(ctx).Create(e).Error)
}

func (r *EmployeeRepository) Update(ctx context.Context, e *models.Employee) error {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	return wrap(r.db.WithContext(ctx).Omit("Location", "Vehicle", "Manager").Save(e).Error)
}

// Deactivate disables the login but keeps the employee's work orders intact.
func (r *EmployeeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound)
	}
	return nil
}
