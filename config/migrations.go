package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/workorders/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20240301_create_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Location{}, &models.Vehicle{}, &models.Employee{},
					&models.WorkOrderRecord{}, &models.GlobalSetting{}, &models.UserSignature{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("user_signatures", "global_settings", "work_orders",
					"employees", "vehicles", "locations")
			},
		},
		{
			ID: "20240315_default_settings",
			Migrate: func(tx *gorm.DB) error {
				rows := make([]models.GlobalSetting, 0, len(models.SettingKeys))
				for _, k := range models.SettingKeys {
					rows = append(rows, models.GlobalSetting{Key: k})
				}
				return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
			},
		},
		{
			// rows written before this migration keep field_trip NULL and are
			// read with the distance > 0 fallback
			ID: "20240402_work_order_field_trip",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.WorkOrderRecord{}, "FieldTrip") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.WorkOrderRecord{}, "FieldTrip")
			},
		},
	})

	return m.Migrate()
}
