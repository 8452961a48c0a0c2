package lending

import (
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
)

// DeriveStatus computes the loan header status from its detail rows and the
// due date. The stored column is only a cached projection of this function.
// A loan is Completed once every detail is returned; short of that it is
// Partially Returned when at least one detail came back, otherwise Loaned.
// Non-completed loans past their due date read as Overdue.
func DeriveStatus(details []models.LoanDetail, dueDate, today time.Time) enums.LoanStatus {
	outstanding := 0
	returned := 0
	for _, detail := range details {
		if detail.Status == enums.LoanDetailStatusReturned {
			returned++
		} else {
			outstanding++
		}
	}

	if outstanding == 0 && returned > 0 {
		return enums.LoanStatusCompleted
	}

	if truncateToDay(dueDate).Before(truncateToDay(today)) {
		return enums.LoanStatusOverdue
	}

	if returned > 0 {
		return enums.LoanStatusPartiallyReturned
	}
	return enums.LoanStatusLoaned
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
