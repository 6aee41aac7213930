package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is a person who logs in and owns work orders.
type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName    string     `gorm:"size:100;not null" json:"firstName"`
	LastName     string     `gorm:"size:100;not null" json:"lastName"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"size:30" json:"phone"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:20;not null;default:technician" json:"role"`
	LocationID   *uuid.UUID `gorm:"type:uuid;index" json:"locationId,omitempty"`
	Location     *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	VehicleID    *uuid.UUID `gorm:"type:uuid;index" json:"vehicleId,omitempty"`
	Vehicle      *Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index" json:"managerId,omitempty"`
	Manager      *Employee  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Role == "" {
		e.Role = RoleTechnician
	}
	return
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Manages reports whether e is the direct manager of other.
func (e *Employee) Manages(other *Employee) bool {
	return other != nil && other.ManagerID != nil && *other.ManagerID == e.ID
}
