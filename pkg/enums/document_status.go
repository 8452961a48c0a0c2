package enums

import "fmt"

// DocumentStatus describes availability of a master document.
type DocumentStatus string

const (
	DocumentStatusAvailable DocumentStatus = "Available"
	DocumentStatusLoaned    DocumentStatus = "Loaned"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusAvailable,
	DocumentStatusLoaned,
}

// IsValid reports whether the value matches the canonical document status enum.
func (d DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentStatus converts the raw string to DocumentStatus.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}

// LoanDetailStatus describes the per-document state inside a loan.
type LoanDetailStatus string

const (
	LoanDetailStatusLoaned   LoanDetailStatus = "Loaned"
	LoanDetailStatusReturned LoanDetailStatus = "Returned"
)
