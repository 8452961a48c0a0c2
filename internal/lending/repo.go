package lending

import (
	"context"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lending repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDocuments(ctx context.Context, numbers []string) ([]models.Document, error) {
	var docs []models.Document
	if len(numbers) == 0 {
		return docs, nil
	}
	err := r.db.WithContext(ctx).
		Where("number IN ?", numbers).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Order("number ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) CreateDocuments(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&docs).Error
}

func (r *repository) UpdateDocumentStatus(ctx context.Context, numbers []string, status enums.DocumentStatus) error {
	if len(numbers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("number IN ?", numbers).
		Update("status", status).Error
}

func (r *repository) CountDocumentsByStatus(ctx context.Context, status enums.DocumentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	return r.db.WithContext(ctx).Omit("Details").Create(loan).Error
}

func (r *repository) CreateLoanDetails(ctx context.Context, details []models.LoanDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

func (r *repository) FindLoan(ctx context.Context, id string) (*models.LoanTransaction, error) {
	var loan models.LoanTransaction
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *repository) ListLoans(ctx context.Context) ([]models.LoanTransaction, error) {
	var loans []models.LoanTransaction
	err := r.db.WithContext(ctx).
		Preload("Details").
		Order("created_at DESC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) UpdateLoanStatus(ctx context.Context, id string, status enums.LoanStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) MarkDetailsReturned(ctx context.Context, loanID string, numbers []string, returnedAt time.Time) (int64, error) {
	if len(numbers) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.LoanDetail{}).
		Where("loan_id = ? AND document_number IN ? AND status = ?", loanID, numbers, enums.LoanDetailStatusLoaned).
		Updates(map[string]any{
			"status":      enums.LoanDetailStatusReturned,
			"returned_at": returnedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) CountOutstandingDetails(ctx context.Context, loanID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanDetail{}).
		Where("loan_id = ? AND status = ?", loanID, enums.LoanDetailStatusLoaned).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateReturnLog(ctx context.Context, log *models.ReturnLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) CreateHandover(ctx context.Context, handover *models.Handover) error {
	return r.db.WithContext(ctx).Create(handover).Error
}

func (r *repository) ListDivisions(ctx context.Context) ([]models.Division, error) {
	var divisions []models.Division
	err := r.db.WithContext(ctx).
		Order("category ASC, name ASC").
		Find(&divisions).Error
	if err != nil {
		return nil, err
	}
	return divisions, nil
}

func (r *repository) CreateDivision(ctx context.Context, division *models.Division) error {
	return r.db.WithContext(ctx).Create(division).Error
}

func (r *repository) DeleteDivision(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Division{})
	return result.RowsAffected, result.Error
}

func (r *repository) FindDivision(ctx context.Context, id int64) (*models.Division, error) {
	var division models.Division
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&division).Error
	if err != nil {
		return nil, err
	}
	return &division, nil
}

func (r *repository) CountLoansByDivision(ctx context.Context, divisionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("division_id = ?", divisionID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountLoansByStatuses(ctx context.Context, statuses []enums.LoanStatus) (int64, error) {
	var count int64
	if len(statuses) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

func (r *repository) CountOverdueLoans(ctx context.Context, today time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("status <> ? AND due_date < ?", enums.LoanStatusCompleted, today).
		Count(&count).Error
	return count, err
}

func (r *repository) CountLoansCreatedSince(ctx context.Context, from time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("created_at >= ?", from).
		Count(&count).Error
	return count, err
}
