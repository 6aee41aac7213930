package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is a company vehicle that can be assigned to an employee.
type Vehicle struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Registration string         `gorm:"size:20;uniqueIndex;not null" json:"registration"` // e.g. "ZG-1234-AB"
	Make         string         `gorm:"size:50" json:"make"`
	Model        string         `gorm:"size:50" json:"model"`
	Year         int            `json:"year,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}
