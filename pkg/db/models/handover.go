package models

import "time"

// Handover records the intake of new documents into the archive, identified
// by the engine-minted RCV-YYMM-NNN business id.
type Handover struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	DivisionID       int64     `gorm:"not null;index" json:"division_id"`
	HandlerName      string    `gorm:"type:text;not null" json:"handler_name"`
	HandoverDate     time.Time `gorm:"type:date;not null" json:"handover_date"`
	HandlerSignature string    `gorm:"type:text;not null;default:'n/a'" json:"handler_signature"`
	OfficerSignature string    `gorm:"type:text;not null;default:'n/a'" json:"officer_signature"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
