package lending

import "time"

// CreateLoanInput carries everything needed to open a loan transaction.
type CreateLoanInput struct {
	DivisionID        int64
	BorrowerName      string
	LoanDate          time.Time
	DueDate           time.Time
	DocumentNumbers   []string
	AttachmentPath    *string
	BorrowerSignature string
	OfficerSignature  string
}

// ReturnInput describes one return batch against an open loan.
type ReturnInput struct {
	LoanID            string
	DocumentNumbers   []string
	ReturnDate        time.Time
	ReturnerName      string
	ReturnerSignature string
	OfficerSignature  string
}

// NewDocument is a master document registered through a handover.
type NewDocument struct {
	Number   string
	Name     string
	Year     int
	Type     string
	FilePath *string
}

// CreateHandoverInput registers incoming documents under one receipt.
type CreateHandoverInput struct {
	DivisionID       int64
	HandlerName      string
	HandoverDate     time.Time
	HandlerSignature string
	OfficerSignature string
	Documents        []NewDocument
}

// CreateDivisionInput carries division master data.
type CreateDivisionInput struct {
	Category string
	Name     string
}

// Stats summarizes the lending dashboard counters.
type Stats struct {
	ActiveLoans        int64 `json:"active_loans"`
	OverdueLoans       int64 `json:"overdue_loans"`
	LoansThisMonth     int64 `json:"loans_this_month"`
	AvailableDocuments int64 `json:"available_documents"`
}
