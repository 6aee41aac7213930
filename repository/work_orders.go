package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"p9e.in/workorders/models"
)

// maxOrderNumberAttempts bounds order-number regeneration on collisions.
const maxOrderNumberAttempts = 5

// WorkOrderRepository applies the row-level rules:
//
//   - admin reads and writes everything
//   - lead reads everything, writes own orders and those of employees they manage
//   - technician reads and writes own orders only and never deletes
type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// WorkOrderFilter narrows List. Dates are inclusive YYYY-MM-DD strings.
type WorkOrderFilter struct {
	EmployeeID *uuid.UUID
	From       string
	To         string
	Search     string
	Page
}

// readScope restricts q to the rows actor may see.
func readScope(q *gorm.DB, actor Actor) *gorm.DB {
	switch actor.Role {
	case models.RoleAdmin, models.RoleLead:
		return q
	case models.RoleTechnician:
		return q.Where("work_orders.employee_id = ?", actor.EmployeeID)
	}
	return q.Where("1 = 0")
}

func (r *WorkOrderRepository) List(ctx context.Context, actor Actor, f WorkOrderFilter) ([]models.WorkOrderRecord, int64, error) {
	q := readScope(r.db.WithContext(ctx).Model(&models.WorkOrderRecord{}), actor)
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(order_number) LIKE ? OR LOWER(client_company_name) LIKE ? OR LOWER(client_last_name) LIKE ?",
			like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}
	var rows []models.WorkOrderRecord
	err := f.Page.apply(q.Order("date desc, created_at desc")).Preload("Employee").Find(&rows).Error
	return rows, total, wrap(err)
}

// Get returns ErrNotFound for rows outside the actor's read scope.
func (r *WorkOrderRepository) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.WorkOrderRecord, error) {
	var rec models.WorkOrderRecord
	err := readScope(r.db.WithContext(ctx), actor).Preload("Employee").First(&rec, "work_orders.id = ?", id).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &rec, nil
}

// Create stores rec as owned by actor. When the order number is taken,
// regenerate supplies a new one, up to maxOrderNumberAttempts times.
func (r *WorkOrderRepository) Create(ctx context.Context, actor Actor, rec *models.WorkOrderRecord, regenerate func() string) error {
	if !canCreate(actor.Role) {
		return errors.WithStack(ErrForbidden)
	}
	rec.EmployeeID = actor.EmployeeID
	rec.Employee = nil

	var err error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		err = wrap(r.db.WithContext(ctx).Create(rec).Error)
		if !errors.Is(err, ErrDuplicate) || regenerate == nil {
			return err
		}
		if r.orderNumberFree(ctx, rec.OrderNumber) {
			// duplicate on something other than the order number
			return err
		}
		rec.OrderNumber = regenerate()
	}
	return err
}

func (r *WorkOrderRepository) orderNumberFree(ctx context.Context, number string) bool {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.WorkOrderRecord{}).
		Where("order_number = ?", number).Count(&n).Error
	return err == nil && n == 0
}

func canCreate(role models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleLead, models.RoleTechnician:
		return true
	}
	return false
}

// canWrite reports whether actor may modify rec.
func (r *WorkOrderRepository) canWrite(ctx context.Context, actor Actor, rec *models.WorkOrderRecord) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleLead:
		if rec.EmployeeID == actor.EmployeeID {
			return true, nil
		}
		var n int64
		err := r.db.WithContext(ctx).Model(&models.Employee{}).
			Where("id = ? AND manager_id = ?", rec.EmployeeID, actor.EmployeeID).Count(&n).Error
		if err != nil {
			return false, wrap(err)
		}
		return n > 0, nil
	case models.RoleTechnician:
		return rec.EmployeeID == actor.EmployeeID, nil
	}
	return false, nil
}

// Update loads the row, checks write access and saves the result of apply.
func (r *WorkOrderRepository) Update(ctx context.Context, actor Actor, id uuid.UUID, apply func(*models.WorkOrderRecord)) (*models.WorkOrderRecord, error) {
	rec, err := r.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ok, err := r.canWrite(ctx, actor, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithStack(ErrForbidden)
	}
	apply(rec)
	rec.Employee = nil
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, wrap(err)
	}
	return rec, nil
}

// Delete soft-deletes the row. Technicians may not delete.
func (r *WorkOrderRepository) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleLead {
		return errors.WithStack(ErrForbidden)
	}
	rec, err := r.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	ok, err := r.canWrite(ctx, actor, rec)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithStack(ErrForbidden)
	}
	return wrap(r.db.WithContext(ctx).Delete(&models.WorkOrderRecord{}, "id = ?", rec.ID).Error)
}
