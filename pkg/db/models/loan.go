package models

import (
	"time"

	"github.com/sione-id/backoffice-backend/pkg/enums"
)

// LoanTransaction is a loan header. Its identifier is the engine-minted
// TRX-YYMM-NNN business id, not a surrogate key. The stored status is a
// cached projection of the detail rows plus the due date; DeriveStatus in
// internal/lending is the source of truth.
type LoanTransaction struct {
	ID                string           `gorm:"primaryKey" json:"id"`
	DivisionID        int64            `gorm:"not null;index" json:"division_id"`
	BorrowerName      string           `gorm:"type:text;not null" json:"borrower_name"`
	LoanDate          time.Time        `gorm:"type:date;not null" json:"loan_date"`
	DueDate           time.Time        `gorm:"type:date;not null" json:"due_date"`
	Status            enums.LoanStatus `gorm:"type:text;not null;default:'Loaned'" json:"status"`
	AttachmentPath    *string          `gorm:"type:text" json:"attachment_path,omitempty"`
	BorrowerSignature string           `gorm:"type:text;not null;default:'n/a'" json:"borrower_signature"`
	OfficerSignature  string           `gorm:"type:text;not null;default:'n/a'" json:"officer_signature"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`

	Details []LoanDetail `gorm:"foreignKey:LoanID" json:"details,omitempty"`
}

// LoanDetail tracks one document inside a loan. Rows are exclusively owned
// by their header and removed with it.
type LoanDetail struct {
	ID             int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID         string                 `gorm:"not null;index" json:"loan_id"`
	DocumentNumber string                 `gorm:"not null;index" json:"document_number"`
	Status         enums.LoanDetailStatus `gorm:"type:text;not null;default:'Loaned'" json:"status"`
	ReturnedAt     *time.Time             `gorm:"type:date" json:"returned_at,omitempty"`
}

// ReturnLog is the append-only record of a return batch: one row per batch,
// not per document.
type ReturnLog struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID            string    `gorm:"not null;index" json:"loan_id"`
	ReturnDate        time.Time `gorm:"type:date;not null" json:"return_date"`
	ReturnerName      string    `gorm:"type:text;not null" json:"returner_name"`
	ReturnerSignature string    `gorm:"type:text;not null;default:'n/a'" json:"returner_signature"`
	OfficerSignature  string    `gorm:"type:text;not null;default:'n/a'" json:"officer_signature"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}
