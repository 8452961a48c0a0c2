package enums

import "fmt"

// LoanStatus describes the allowed values for the `status` column on loan
// transaction headers. Overdue is a derived overlay for non-completed loans
// past their due date; it is re-persisted opportunistically on reads.
type LoanStatus string

const (
	LoanStatusLoaned            LoanStatus = "Loaned"
	LoanStatusPartiallyReturned LoanStatus = "Partially Returned"
	LoanStatusCompleted         LoanStatus = "Completed"
	LoanStatusOverdue           LoanStatus = "Overdue"
)

var validLoanStatuses = []LoanStatus{
	LoanStatusLoaned,
	LoanStatusPartiallyReturned,
	LoanStatusCompleted,
	LoanStatusOverdue,
}

// IsValid reports whether the value matches the canonical loan status enum.
func (l LoanStatus) IsValid() bool {
	for _, candidate := range validLoanStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoanStatus converts the raw string to LoanStatus.
func ParseLoanStatus(value string) (LoanStatus, error) {
	for _, candidate := range validLoanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loan status %q", value)
}
