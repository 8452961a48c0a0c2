package lending

import (
	"context"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the lending tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindDocuments(ctx context.Context, numbers []string) ([]models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	CreateDocuments(ctx context.Context, docs []models.Document) error
	UpdateDocumentStatus(ctx context.Context, numbers []string, status enums.DocumentStatus) error
	CountDocumentsByStatus(ctx context.Context, status enums.DocumentStatus) (int64, error)

	CreateLoan(ctx context.Context, loan *models.LoanTransaction) error
	CreateLoanDetails(ctx context.Context, details []models.LoanDetail) error
	FindLoan(ctx context.Context, id string) (*models.LoanTransaction, error)
	ListLoans(ctx context.Context) ([]models.LoanTransaction, error)
	UpdateLoanStatus(ctx context.Context, id string, status enums.LoanStatus) error
	MarkDetailsReturned(ctx context.Context, loanID string, numbers []string, returnedAt time.Time) (int64, error)
	CountOutstandingDetails(ctx context.Context, loanID string) (int64, error)
	CreateReturnLog(ctx context.Context, log *models.ReturnLog) error

	CreateHandover(ctx context.Context, handover *models.Handover) error

	ListDivisions(ctx context.Context) ([]models.Division, error)
	CreateDivision(ctx context.Context, division *models.Division) error
	DeleteDivision(ctx context.Context, id int64) (int64, error)
	FindDivision(ctx context.Context, id int64) (*models.Division, error)
	CountLoansByDivision(ctx context.Context, divisionID int64) (int64, error)

	CountLoansByStatuses(ctx context.Context, statuses []enums.LoanStatus) (int64, error)
	CountOverdueLoans(ctx context.Context, today time.Time) (int64, error)
	CountLoansCreatedSince(ctx context.Context, from time.Time) (int64, error)
}
