package requests

import (
	"github.com/shopspring/decimal"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
)

// ParameterValueInput is one quantity against a pricing parameter.
type ParameterValueInput struct {
	ParamID  int64
	Quantity decimal.Decimal
}

// ItemInput is one service line item on a new request.
type ItemInput struct {
	ServiceType       string
	Location          string
	Specification     string
	WorkMethod        string
	CustomDescription string
	EstimatedPrice    decimal.Decimal
	ParameterValues   []ParameterValueInput
}

// CreateRequestInput opens a new service request. When CompanyName is set
// the customer is upserted by company name; otherwise the guest fields
// identify the requester.
type CreateRequestInput struct {
	CustomerID  *int64
	CompanyName string
	PICName     string
	PICPhone    string
	PICEmail    string

	GuestName  string
	GuestPhone string

	ServiceID       *int64
	ProjectLocation string
	Specification   string
	WorkMethod      string
	AdditionalNotes string

	Items []ItemInput
}

// UpdateRequestInput is the general partial update. Nil fields stay
// untouched. Supplying Status here still triggers the status notification,
// mirroring the legacy general update endpoint.
type UpdateRequestInput struct {
	Status           *string
	ProjectValue     *decimal.Decimal
	DurationMonths   *int
	PaymentTerms     *int
	SubTotal         *decimal.Decimal
	AdjustmentAmount *decimal.Decimal
	DiscountAmount   *decimal.Decimal
	TaxRate          *decimal.Decimal
	TaxAmount        *decimal.Decimal
	GrandTotal       *decimal.Decimal
	AdditionalNotes  *string
	AssignedAdminID  *int64
}

// UpdateStatusInput is the dedicated status transition. Status stays
// free-form; any non-empty value is accepted.
type UpdateStatusInput struct {
	Status           string
	SubTotal         *decimal.Decimal
	AdjustmentAmount *decimal.Decimal
	DiscountAmount   *decimal.Decimal
	TaxRate          *decimal.Decimal
	TaxAmount        *decimal.Decimal
	GrandTotal       *decimal.Decimal
}

// NegotiationInput adds one round to a request's negotiation history.
type NegotiationInput struct {
	ProposedBy    enums.Proposer
	ProposedTotal decimal.Decimal
	Notes         string
}

// MessageInput appends to a request's discussion thread.
type MessageInput struct {
	Sender         string
	MessageText    string
	AttachmentData *string
}

// Detail bundles a request header with its line items.
type Detail struct {
	Request models.ServiceRequest `json:"request"`
	Items   []models.RequestItem  `json:"items"`
}

// Stats summarizes the quotation dashboard counters.
type Stats struct {
	Total     int64 `json:"total"`
	InProcess int64 `json:"in_process"`
	Deal      int64 `json:"deal"`
	Rejected  int64 `json:"rejected"`
}
