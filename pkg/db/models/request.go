package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceRequest is a quotation workflow header. Status is free-form text:
// the legacy workflow lets admins write any stage label and that
// permissiveness is preserved. TicketNumber is the engine-minted yearly
// REQ-YYYY-NNN id.
type ServiceRequest struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketNumber    string `gorm:"uniqueIndex;not null" json:"ticket_number"`
	CustomerID      *int64 `gorm:"index" json:"customer_id,omitempty"`
	ServiceID       *int64 `gorm:"index" json:"service_id,omitempty"`
	GuestName       string `gorm:"type:text;not null;default:''" json:"guest_name"`
	GuestPhone      string `gorm:"type:text;not null;default:''" json:"guest_phone"`
	ProjectLocation string `gorm:"type:text;not null;default:''" json:"project_location"`
	Specification   string `gorm:"type:text;not null;default:''" json:"specification"`
	WorkMethod      string `gorm:"type:text;not null;default:''" json:"work_method"`
	AdditionalNotes string `gorm:"type:text;not null;default:''" json:"additional_notes"`
	Status          string `gorm:"type:text;not null;default:'New Request'" json:"status"`

	ProjectValue   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"project_value"`
	DurationMonths int             `gorm:"not null;default:0" json:"duration_months"`
	PaymentTerms   int             `gorm:"not null;default:1" json:"payment_terms"`

	SubTotal         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"sub_total"`
	AdjustmentAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"adjustment_amount"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TaxRate          decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount        decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"tax_amount"`
	GrandTotal       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"grand_total"`

	AssignedAdminID *int64    `gorm:"index" json:"assigned_admin_id,omitempty"`
	RequestDate     time.Time `gorm:"autoCreateTime" json:"request_date"`
	LastUpdated     time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

// RequestItem is one service line item on a request.
type RequestItem struct {
	ID                int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID         int64            `gorm:"not null;index" json:"request_id"`
	ServiceType       string           `gorm:"type:text;not null;default:''" json:"service_type"`
	Location          string           `gorm:"type:text;not null;default:''" json:"location"`
	Specification     string           `gorm:"type:text;not null;default:''" json:"specification"`
	WorkMethod        string           `gorm:"type:text;not null;default:''" json:"work_method"`
	CustomDescription string           `gorm:"type:text;not null;default:''" json:"custom_description"`
	EstimatedPrice    decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"estimated_price"`
	FinalPrice        *decimal.Decimal `gorm:"type:numeric(18,2)" json:"final_price,omitempty"`
}

// ParameterValue is the client-filled quantity for one pricing parameter on
// one request item.
type ParameterValue struct {
	ID       int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID   int64           `gorm:"not null;index" json:"item_id"`
	ParamID  int64           `gorm:"not null;index" json:"param_id"`
	Quantity decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"quantity"`
}
