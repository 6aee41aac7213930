package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CRUD is the plain admin repository used for reference entities such as
// vehicles and locations.
type CRUD[T any] struct {
	db    *gorm.DB
	order string
}

func NewCRUD[T any](db *gorm.DB, order string) *CRUD[T] {
	return &CRUD[T]{db: db, order: order}
}

// List returns active and inactive rows; soft-deleted rows are excluded.
func (r *CRUD[T]) List(ctx context.Context, page Page) ([]T, int64, error) {
	var (
		rows  []T
		total int64
	)
	q := r.db.WithContext(ctx).Model(new(T))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}
	err := page.apply(q.Order(r.order)).Find(&rows).Error
	return rows, total, wrap(err)
}

func (r *CRUD[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &row, nil
}

func (r *CRUD[T]) Create(ctx context.Context, row *T) error {
	return wrap(r.db.WithContext(ctx).Create(row).Error)
}

// Update saves all fields of row, which must carry its id.
func (r *CRUD[T]) Update(ctx context.Context, row *T) error {
	return wrap(r.db.WithContext(ctx).Save(row).Error)
}

func (r *CRUD[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(gorm.ErrRecordNotFound)
	}
	return nil
}
