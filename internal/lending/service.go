package lending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/sequence"
	"gorm.io/gorm"
)

const (
	loanPrefix     = "TRX"
	handoverPrefix = "RCV"

	txMaxRetries      = 3
	txInitialBackoff  = 50 * time.Millisecond
	defaultSignature  = "n/a"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sequencer interface {
	Next(tx *gorm.DB, prefix, bucket string) (string, error)
}

// Service defines the lending workflow operations.
type Service interface {
	CreateLoan(ctx context.Context, input CreateLoanInput) (*models.LoanTransaction, error)
	ReturnDocuments(ctx context.Context, input ReturnInput) (*models.LoanTransaction, error)
	ListLoans(ctx context.Context) ([]models.LoanTransaction, error)
	GetLoan(ctx context.Context, id string) (*models.LoanTransaction, error)
	CreateHandover(ctx context.Context, input CreateHandoverInput) (*models.Handover, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListDivisions(ctx context.Context) ([]models.Division, error)
	CreateDivision(ctx context.Context, input CreateDivisionInput) (*models.Division, error)
	DeleteDivision(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo Repository
	tx   txRunner
	seq  sequencer
	now  func() time.Time
}

// NewService builds the lending service with the required dependencies.
func NewService(repo Repository, tx txRunner, seq sequencer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lending repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence generator required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		seq:  seq,
		now:  time.Now,
	}, nil
}

// runTx executes fn in a transaction, retrying transient conflicts with
// backoff. The whole function reruns on retry, so fn must be safe to repeat
// from scratch.
func (s *service) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(txMaxRetries, retry.NewExponential(txInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if txErr := s.tx.WithTx(ctx, fn); txErr != nil {
			if db.IsRetryable(txErr) {
				return retry.RetryableError(txErr)
			}
			return txErr
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "lending transaction aborted")
}

func (s *service) CreateLoan(ctx context.Context, input CreateLoanInput) (*models.LoanTransaction, error) {
	if input.DivisionID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "division id required")
	}
	if strings.TrimSpace(input.BorrowerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower name required")
	}
	if input.LoanDate.IsZero() || input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan date and due date required")
	}
	numbers := dedupeNumbers(input.DocumentNumbers)
	if len(numbers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one document required")
	}

	var created *models.LoanTransaction
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindDivision(ctx, input.DivisionID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "division not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load division")
		}

		docs, err := repo.FindDocuments(ctx, numbers)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load documents")
		}
		if missing := missingNumbers(numbers, docs); len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found").
				WithDetails(map[string]any{"documents": missing})
		}
		if unavailable := unavailableNumbers(docs); len(unavailable) > 0 {
			return pkgerrors.New(pkgerrors.CodeDocumentUnavailable, "document already loaned").
				WithDetails(map[string]any{"documents": unavailable})
		}

		id, err := s.seq.Next(tx, loanPrefix, sequence.MonthBucket(s.now()))
		if err != nil {
			return err
		}

		loan := &models.LoanTransaction{
			ID:                id,
			DivisionID:        input.DivisionID,
			BorrowerName:      input.BorrowerName,
			LoanDate:          input.LoanDate,
			DueDate:           input.DueDate,
			Status:            enums.LoanStatusLoaned,
			AttachmentPath:    input.AttachmentPath,
			BorrowerSignature: orDefaultSignature(input.BorrowerSignature),
			OfficerSignature:  orDefaultSignature(input.OfficerSignature),
		}
		if err := repo.CreateLoan(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert loan header")
		}

		details := make([]models.LoanDetail, 0, len(numbers))
		for _, number := range numbers {
			details = append(details, models.LoanDetail{
				LoanID:         id,
				DocumentNumber: number,
				Status:         enums.LoanDetailStatusLoaned,
			})
		}
		if err := repo.CreateLoanDetails(ctx, details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert loan details")
		}
		if err := repo.UpdateDocumentStatus(ctx, numbers, enums.DocumentStatusLoaned); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip documents to loaned")
		}

		loan.Details = details
		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ReturnDocuments(ctx context.Context, input ReturnInput) (*models.LoanTransaction, error) {
	if strings.TrimSpace(input.LoanID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan id required")
	}
	if strings.TrimSpace(input.ReturnerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returner name required")
	}
	numbers := dedupeNumbers(input.DocumentNumbers)
	if len(numbers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one document required")
	}
	returnDate := input.ReturnDate
	if returnDate.IsZero() {
		returnDate = s.now()
	}

	var updated *models.LoanTransaction
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loan, err := repo.FindLoan(ctx, input.LoanID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loan")
		}

		owned := make(map[string]bool, len(loan.Details))
		for _, detail := range loan.Details {
			owned[detail.DocumentNumber] = true
		}
		for _, number := range numbers {
			if !owned[number] {
				return pkgerrors.New(pkgerrors.CodeValidation, "document not part of loan").
					WithDetails(map[string]any{"document": number})
			}
		}

		if _, err := repo.MarkDetailsReturned(ctx, loan.ID, numbers, returnDate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark details returned")
		}
		if err := repo.UpdateDocumentStatus(ctx, numbers, enums.DocumentStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip documents to available")
		}

		// One log row per batch regardless of how many documents came back.
		entry := &models.ReturnLog{
			LoanID:            loan.ID,
			ReturnDate:        returnDate,
			ReturnerName:      input.ReturnerName,
			ReturnerSignature: orDefaultSignature(input.ReturnerSignature),
			OfficerSignature:  orDefaultSignature(input.OfficerSignature),
		}
		if err := repo.CreateReturnLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append return log")
		}

		outstanding, err := repo.CountOutstandingDetails(ctx, loan.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count outstanding details")
		}
		status := enums.LoanStatusCompleted
		if outstanding > 0 {
			status = enums.LoanStatusPartiallyReturned
		}
		if err := repo.UpdateLoanStatus(ctx, loan.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute header status")
		}

		refreshed, err := repo.FindLoan(ctx, loan.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload loan")
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListLoans serves loans with their derived status. The Overdue overlay is
// recomputed and re-persisted inside the same read transaction so a
// concurrent caller never sees a stale stored value.
func (s *service) ListLoans(ctx context.Context) ([]models.LoanTransaction, error) {
	var loans []models.LoanTransaction
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.ListLoans(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loans")
		}
		today := s.now()
		for i := range found {
			derived := DeriveStatus(found[i].Details, found[i].DueDate, today)
			if derived != found[i].Status {
				if err := repo.UpdateLoanStatus(ctx, found[i].ID, derived); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist derived status")
				}
				found[i].Status = derived
			}
		}
		loans = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

func (s *service) GetLoan(ctx context.Context, id string) (*models.LoanTransaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loan id required")
	}
	var loan *models.LoanTransaction
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindLoan(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loan")
		}
		derived := DeriveStatus(found.Details, found.DueDate, s.now())
		if derived != found.Status {
			if err := repo.UpdateLoanStatus(ctx, found.ID, derived); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist derived status")
			}
			found.Status = derived
		}
		loan = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *service) CreateHandover(ctx context.Context, input CreateHandoverInput) (*models.Handover, error) {
	if input.DivisionID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "division id required")
	}
	if strings.TrimSpace(input.HandlerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handler name required")
	}
	if len(input.Documents) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one document required")
	}
	for _, doc := range input.Documents {
		if strings.TrimSpace(doc.Number) == "" || strings.TrimSpace(doc.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "document number and name required")
		}
	}
	handoverDate := input.HandoverDate
	if handoverDate.IsZero() {
		handoverDate = s.now()
	}

	var created *models.Handover
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindDivision(ctx, input.DivisionID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "division not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load division")
		}

		id, err := s.seq.Next(tx, handoverPrefix, sequence.MonthBucket(s.now()))
		if err != nil {
			return err
		}

		handover := &models.Handover{
			ID:               id,
			DivisionID:       input.DivisionID,
			HandlerName:      input.HandlerName,
			HandoverDate:     handoverDate,
			HandlerSignature: orDefaultSignature(input.HandlerSignature),
			OfficerSignature: orDefaultSignature(input.OfficerSignature),
		}
		if err := repo.CreateHandover(ctx, handover); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert handover")
		}

		docs := make([]models.Document, 0, len(input.Documents))
		for _, doc := range input.Documents {
			docs = append(docs, models.Document{
				Number:   doc.Number,
				Name:     doc.Name,
				Year:     doc.Year,
				Type:     doc.Type,
				Status:   enums.DocumentStatusAvailable,
				FilePath: doc.FilePath,
			})
		}
		if err := repo.CreateDocuments(ctx, docs); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "document number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register documents")
		}

		created = handover
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}

func (s *service) ListDivisions(ctx context.Context) ([]models.Division, error) {
	divisions, err := s.repo.ListDivisions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list divisions")
	}
	return divisions, nil
}

func (s *service) CreateDivision(ctx context.Context, input CreateDivisionInput) (*models.Division, error) {
	if strings.TrimSpace(input.Category) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "division category and name required")
	}
	division := &models.Division{
		Category: input.Category,
		Name:     input.Name,
	}
	if err := s.repo.CreateDivision(ctx, division); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert division")
	}
	return division, nil
}

func (s *service) DeleteDivision(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "division id required")
	}
	refs, err := s.repo.CountLoansByDivision(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count division loans")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "division still referenced by loans").
			WithDetails(map[string]any{"loans": refs})
	}
	removed, err := s.repo.DeleteDivision(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete division")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "division not found")
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()

	active, err := s.repo.CountLoansByStatuses(ctx, []enums.LoanStatus{
		enums.LoanStatusLoaned,
		enums.LoanStatusPartiallyReturned,
		enums.LoanStatusOverdue,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active loans")
	}

	overdue, err := s.repo.CountOverdueLoans(ctx, truncateToDay(now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overdue loans")
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	thisMonth, err := s.repo.CountLoansCreatedSince(ctx, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count loans this month")
	}

	available, err := s.repo.CountDocumentsByStatus(ctx, enums.DocumentStatusAvailable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count available documents")
	}

	return &Stats{
		ActiveLoans:        active,
		OverdueLoans:       overdue,
		LoansThisMonth:     thisMonth,
		AvailableDocuments: available,
	}, nil
}

func dedupeNumbers(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, number := range numbers {
		trimmed := strings.TrimSpace(number)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

func missingNumbers(requested []string, docs []models.Document) []string {
	found := make(map[string]bool, len(docs))
	for _, doc := range docs {
		found[doc.Number] = true
	}
	var missing []string
	for _, number := range requested {
		if !found[number] {
			missing = append(missing, number)
		}
	}
	return missing
}

func unavailableNumbers(docs []models.Document) []string {
	var unavailable []string
	for _, doc := range docs {
		if doc.Status != enums.DocumentStatusAvailable {
			unavailable = append(unavailable, doc.Number)
		}
	}
	return unavailable
}

func orDefaultSignature(value string) string {
	if strings.TrimSpace(value) == "" {
		return defaultSignature
	}
	return value
}
