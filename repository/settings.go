package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/workorders/models"
)

var ErrUnknownSetting = errors.New("unknown setting")

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// All returns every setting as key/value.
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []models.GlobalSetting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

// Set upserts values. Keys outside models.SettingKeys are rejected before
// anything is written.
func (r *SettingsRepository) Set(ctx context.Context, values map[string]string) error {
	rows := make([]models.GlobalSetting, 0, len(values))
	for k, v := range values {
		if !slices.Contains(models.SettingKeys, k) {
			return errors.WithStack(fmt.Errorf("%w: %s", ErrUnknownSetting, k))
		}
		rows = append(rows, models.GlobalSetting{Key: k, Value: v})
	}
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	return wrap(err)
}
