package models

import "time"

// Keys of the global settings shown on exported documents.
const (
	SettingCompanyName    = "company_name"
	SettingCompanyAddress = "company_address"
	SettingCompanyOIB     = "company_oib"
	SettingCompanyPhone   = "company_phone"
	SettingCompanyEmail   = "company_email"
)

// SettingKeys lists the keys an admin may write.
var SettingKeys = []string{
	SettingCompanyName,
	SettingCompanyAddress,
	SettingCompanyOIB,
	SettingCompanyPhone,
	SettingCompanyEmail,
}

// GlobalSetting is a single company-wide key/value pair.
type GlobalSetting struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
