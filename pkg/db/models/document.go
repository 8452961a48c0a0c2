package models

import "github.com/sione-id/backoffice-backend/pkg/enums"

// Document is master data for a physical document tracked by the lending
// system. The document number is the natural key used on loan details.
type Document struct {
	Number   string               `gorm:"primaryKey;column:number" json:"number"`
	Name     string               `gorm:"type:text;not null" json:"name"`
	Year     int                  `gorm:"not null" json:"year"`
	Type     string               `gorm:"type:text;not null" json:"type"`
	Status   enums.DocumentStatus `gorm:"type:text;not null;default:'Available'" json:"status"`
	FilePath *string              `gorm:"type:text" json:"file_path,omitempty"`
}
