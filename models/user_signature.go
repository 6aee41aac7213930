package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSignature is the technician signature an employee stores once and
// reuses on every new work order.
type UserSignature struct {
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"employeeId"`
	Image      string    `gorm:"type:text;not null" json:"image"` // storage URL or data URL
	UpdatedAt  time.Time `json:"updatedAt"`
}
