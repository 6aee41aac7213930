package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkOrderRecord is the persisted, flat form of one work order (radni nalog).
// Itemized sections are bullet-prefixed lines joined by newlines, materials are
// a JSON array and the duration is stored in whole minutes.
type WorkOrderRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string    `gorm:"column:order_number;size:32;uniqueIndex;not null" json:"orderNumber"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;index;not null" json:"employeeId"`
	Employee    *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	// Naručitelj (client)
	ClientCompanyName    string `gorm:"column:client_company_name;not null" json:"clientCompanyName"`
	ClientCompanyAddress string `gorm:"column:client_company_address;not null" json:"clientCompanyAddress"`
	ClientOIB            string `gorm:"column:client_oib;size:20;not null" json:"clientOib"`
	ClientFirstName      string `gorm:"column:client_first_name;not null" json:"clientFirstName"`
	ClientLastName       string `gorm:"column:client_last_name;not null" json:"clientLastName"`
	ClientMobile         string `gorm:"column:client_mobile;not null" json:"clientMobile"`
	ClientEmail          string `gorm:"column:client_email;not null" json:"clientEmail"`

	// Korisnik (customer), only when the order is placed on a customer's behalf
	OrderForCustomer       bool    `gorm:"column:order_for_customer;default:false" json:"orderForCustomer"`
	CustomerCompanyName    *string `gorm:"column:customer_company_name" json:"customerCompanyName,omitempty"`
	CustomerCompanyAddress *string `gorm:"column:customer_company_address" json:"customerCompanyAddress,omitempty"`
	CustomerOIB            *string `gorm:"column:customer_oib;size:20" json:"customerOib,omitempty"`
	CustomerFirstName      *string `gorm:"column:customer_first_name" json:"customerFirstName,omitempty"`
	CustomerLastName       *string `gorm:"column:customer_last_name" json:"customerLastName,omitempty"`
	CustomerMobile         *string `gorm:"column:customer_mobile" json:"customerMobile,omitempty"`
	CustomerEmail          *string `gorm:"column:customer_email" json:"customerEmail,omitempty"`

	Description       *string `gorm:"column:description;type:text" json:"description,omitempty"`
	FoundCondition    *string `gorm:"column:found_condition;type:text" json:"foundCondition,omitempty"`
	PerformedWork     *string `gorm:"column:performed_work;type:text" json:"performedWork,omitempty"`
	TechnicianComment *string `gorm:"column:technician_comment;type:text" json:"technicianComment,omitempty"`

	Materials datatypes.JSON `gorm:"column:materials;type:jsonb" json:"materials"`

	Date           string  `gorm:"column:date;size:10;not null" json:"date"` // YYYY-MM-DD
	ArrivalTime    *string `gorm:"column:arrival_time;size:5" json:"arrivalTime,omitempty"`
	CompletionTime *string `gorm:"column:completion_time;size:5" json:"completionTime,omitempty"`
	Hours          int     `gorm:"column:hours;default:0" json:"hours"` // minutes

	FieldTrip *bool    `gorm:"column:field_trip" json:"fieldTrip,omitempty"` // nil on rows written before the column existed
	Distance  *float64 `gorm:"column:distance;type:numeric(10,2)" json:"distance,omitempty"`

	TechnicianSignature  *string `gorm:"column:technician_signature;type:text" json:"technicianSignature,omitempty"`
	CustomerSignature    *string `gorm:"column:customer_signature;type:text" json:"customerSignature,omitempty"`
	CustomerSignerName   *string `gorm:"column:customer_signer_name" json:"customerSignerName,omitempty"`
	SignatureTimestamp   *string `gorm:"column:signature_timestamp" json:"signatureTimestamp,omitempty"`
	SignatureCoordinates *string `gorm:"column:signature_coordinates" json:"signatureCoordinates,omitempty"` // "(lon,lat)"
	SignatureAddress     *string `gorm:"column:signature_address" json:"signatureAddress,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WorkOrderRecord) TableName() string {
	return "work_orders"
}

func (w *WorkOrderRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
