package lending

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubLendingRepo struct {
	documents map[string]*models.Document
	divisions map[int64]*models.Division
	loans     map[string]*models.LoanTransaction
	details   []*models.LoanDetail
	logs      []*models.ReturnLog
	handovers []*models.Handover

	createLoanErr error
	logErr        error
}

func newStubLendingRepo() *stubLendingRepo {
	return &stubLendingRepo{
		documents: make(map[string]*models.Document),
		divisions: make(map[int64]*models.Division),
		loans:     make(map[string]*models.LoanTransaction),
	}
}

func (s *stubLendingRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubLendingRepo) FindDocuments(ctx context.Context, numbers []string) ([]models.Document, error) {
	var docs []models.Document
	for _, number := range numbers {
		if doc, ok := s.documents[number]; ok {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (s *stubLendingRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	for _, doc := range s.documents {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (s *stubLendingRepo) CreateDocuments(ctx context.Context, docs []models.Document) error {
	for i := range docs {
		if _, exists := s.documents[docs[i].Number]; exists {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
		doc := docs[i]
		s.documents[doc.Number] = &doc
	}
	return nil
}

func (s *stubLendingRepo) UpdateDocumentStatus(ctx context.Context, numbers []string, status enums.DocumentStatus) error {
	for _, number := range numbers {
		if doc, ok := s.documents[number]; ok {
			doc.Status = status
		}
	}
	return nil
}

func (s *stubLendingRepo) CountDocumentsByStatus(ctx context.Context, status enums.DocumentStatus) (int64, error) {
	var count int64
	for _, doc := range s.documents {
		if doc.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *stubLendingRepo) CreateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	if s.createLoanErr != nil {
		return s.createLoanErr
	}
	copied := *loan
	s.loans[loan.ID] = &copied
	return nil
}

func (s *stubLendingRepo) CreateLoanDetails(ctx context.Context, details []models.LoanDetail) error {
	for i := range details {
		detail := details[i]
		detail.ID = int64(len(s.details) + 1)
		s.details = append(s.details, &detail)
	}
	return nil
}

func (s *stubLendingRepo) FindLoan(ctx context.Context, id string) (*models.LoanTransaction, error) {
	loan, ok := s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *loan
	copied.Details = nil
	for _, detail := range s.details {
		if detail.LoanID == id {
			copied.Details = append(copied.Details, *detail)
		}
	}
	return &copied, nil
}

func (s *stubLendingRepo) ListLoans(ctx context.Context) ([]models.LoanTransaction, error) {
	var loans []models.LoanTransaction
	for id := range s.loans {
		loan, err := s.FindLoan(ctx, id)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	return loans, nil
}

func (s *stubLendingRepo) UpdateLoanStatus(ctx context.Context, id string, status enums.LoanStatus) error {
	loan, ok := s.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	loan.Status = status
	return nil
}

func (s *stubLendingRepo) MarkDetailsReturned(ctx context.Context, loanID string, numbers []string, returnedAt time.Time) (int64, error) {
	wanted := make(map[string]bool, len(numbers))
	for _, number := range numbers {
		wanted[number] = true
	}
	var affected int64
	for _, detail := range s.details {
		if detail.LoanID == loanID && wanted[detail.DocumentNumber] && detail.Status == enums.LoanDetailStatusLoaned {
			detail.Status = enums.LoanDetailStatusReturned
			at := returnedAt
			detail.ReturnedAt = &at
			affected++
		}
	}
	return affected, nil
}

func (s *stubLendingRepo) CountOutstandingDetails(ctx context.Context, loanID string) (int64, error) {
	var count int64
	for _, detail := range s.details {
		if detail.LoanID == loanID && detail.Status == enums.LoanDetailStatusLoaned {
			count++
		}
	}
	return count, nil
}

func (s *stubLendingRepo) CreateReturnLog(ctx context.Context, log *models.ReturnLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubLendingRepo) CreateHandover(ctx context.Context, handover *models.Handover) error {
	s.handovers = append(s.handovers, handover)
	return nil
}

func (s *stubLendingRepo) ListDivisions(ctx context.Context) ([]models.Division, error) {
	var divisions []models.Division
	for _, division := range s.divisions {
		divisions = append(divisions, *division)
	}
	return divisions, nil
}

func (s *stubLendingRepo) CreateDivision(ctx context.Context, division *models.Division) error {
	division.ID = int64(len(s.divisions) + 1)
	s.divisions[division.ID] = division
	return nil
}

func (s *stubLendingRepo) DeleteDivision(ctx context.Context, id int64) (int64, error) {
	if _, ok := s.divisions[id]; !ok {
		return 0, nil
	}
	delete(s.divisions, id)
	return 1, nil
}

func (s *stubLendingRepo) FindDivision(ctx context.Context, id int64) (*models.Division, error) {
	division, ok := s.divisions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return division, nil
}

func (s *stubLendingRepo) CountLoansByDivision(ctx context.Context, divisionID int64) (int64, error) {
	var count int64
	for _, loan := range s.loans {
		if loan.DivisionID == divisionID {
			count++
		}
	}
	return count, nil
}

func (s *stubLendingRepo) CountLoansByStatuses(ctx context.Context, statuses []enums.LoanStatus) (int64, error) {
	var count int64
	for _, loan := range s.loans {
		for _, status := range statuses {
			if loan.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *stubLendingRepo) CountOverdueLoans(ctx context.Context, today time.Time) (int64, error) {
	var count int64
	for _, loan := range s.loans {
		if loan.Status != enums.LoanStatusCompleted && loan.DueDate.Before(today) {
			count++
		}
	}
	return count, nil
}

func (s *stubLendingRepo) CountLoansCreatedSince(ctx context.Context, from time.Time) (int64, error) {
	var count int64
	for _, loan := range s.loans {
		if !loan.CreatedAt.Before(from) {
			count++
		}
	}
	return count, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSequencer struct {
	counters map[string]int
}

func (s *stubSequencer) Next(tx *gorm.DB, prefix, bucket string) (string, error) {
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	key := prefix + "-" + bucket
	s.counters[key]++
	return fmt.Sprintf("%s-%s-%03d", prefix, bucket, s.counters[key]), nil
}

func newTestService(t *testing.T, repo *stubLendingRepo, now time.Time) *service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, &stubSequencer{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	impl := svc.(*service)
	impl.now = func() time.Time { return now }
	return impl
}

func seedDivisionAndDocs(repo *stubLendingRepo) {
	repo.divisions[1] = &models.Division{ID: 1, Category: "Engineering", Name: "Civil"}
	repo.documents["D1"] = &models.Document{Number: "D1", Name: "Blueprint A", Status: enums.DocumentStatusAvailable}
	repo.documents["D2"] = &models.Document{Number: "D2", Name: "Blueprint B", Status: enums.DocumentStatusAvailable}
}

func TestCreateLoanFlipsDocumentsAndMintsID(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)

	loan, err := svc.CreateLoan(context.Background(), CreateLoanInput{
		DivisionID:      1,
		BorrowerName:    "Budi",
		LoanDate:        now,
		DueDate:         now.AddDate(0, 0, 7),
		DocumentNumbers: []string{"D1", "D2"},
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if loan.ID != "TRX-2501-001" {
		t.Fatalf("expected TRX-2501-001, got %s", loan.ID)
	}
	if loan.Status != enums.LoanStatusLoaned {
		t.Fatalf("expected initial status Loaned, got %s", loan.Status)
	}
	if len(loan.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(loan.Details))
	}
	for _, number := range []string{"D1", "D2"} {
		if repo.documents[number].Status != enums.DocumentStatusLoaned {
			t.Fatalf("expected %s flipped to Loaned", number)
		}
	}
	if loan.BorrowerSignature != "n/a" {
		t.Fatalf("expected signature default, got %q", loan.BorrowerSignature)
	}
}

func TestCreateLoanRejectsUnavailableDocument(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	repo.documents["D2"].Status = enums.DocumentStatusLoaned
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)

	_, err := svc.CreateLoan(context.Background(), CreateLoanInput{
		DivisionID:      1,
		BorrowerName:    "Budi",
		LoanDate:        now,
		DueDate:         now.AddDate(0, 0, 7),
		DocumentNumbers: []string{"D1", "D2"},
	})
	if err == nil {
		t.Fatalf("expected error for loaned document")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDocumentUnavailable {
		t.Fatalf("expected DOCUMENT_UNAVAILABLE, got %v", err)
	}
	if repo.documents["D1"].Status != enums.DocumentStatusAvailable {
		t.Fatalf("available document must remain untouched on failure")
	}
	if len(repo.loans) != 0 {
		t.Fatalf("no loan header may be written on failure")
	}
}

func TestCreateLoanRejectsUnknownDocument(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)

	_, err := svc.CreateLoan(context.Background(), CreateLoanInput{
		DivisionID:      1,
		BorrowerName:    "Budi",
		LoanDate:        now,
		DueDate:         now.AddDate(0, 0, 7),
		DocumentNumbers: []string{"D1", "D9"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func createSeededLoan(t *testing.T, svc *service, now time.Time) *models.LoanTransaction {
	t.Helper()
	loan, err := svc.CreateLoan(context.Background(), CreateLoanInput{
		DivisionID:      1,
		BorrowerName:    "Budi",
		LoanDate:        now,
		DueDate:         now.AddDate(0, 0, 7),
		DocumentNumbers: []string{"D1", "D2"},
	})
	if err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return loan
}

func TestReturnSubsetYieldsPartiallyReturned(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)
	loan := createSeededLoan(t, svc, now)

	updated, err := svc.ReturnDocuments(context.Background(), ReturnInput{
		LoanID:          loan.ID,
		DocumentNumbers: []string{"D1"},
		ReturnerName:    "Budi",
	})
	if err != nil {
		t.Fatalf("return batch: %v", err)
	}
	if updated.Status != enums.LoanStatusPartiallyReturned {
		t.Fatalf("expected Partially Returned, got %s", updated.Status)
	}
	if repo.documents["D1"].Status != enums.DocumentStatusAvailable {
		t.Fatalf("returned document must be Available again")
	}
	if repo.documents["D2"].Status != enums.DocumentStatusLoaned {
		t.Fatalf("outstanding document must stay Loaned")
	}
	if len(repo.logs) != 1 {
		t.Fatalf("expected exactly one return log per batch, got %d", len(repo.logs))
	}
}

func TestReturningEverythingCompletesLoan(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)
	loan := createSeededLoan(t, svc, now)

	if _, err := svc.ReturnDocuments(context.Background(), ReturnInput{
		LoanID:          loan.ID,
		DocumentNumbers: []string{"D1"},
		ReturnerName:    "Budi",
	}); err != nil {
		t.Fatalf("first return: %v", err)
	}

	updated, err := svc.ReturnDocuments(context.Background(), ReturnInput{
		LoanID:          loan.ID,
		DocumentNumbers: []string{"D2"},
		ReturnerName:    "Budi",
	})
	if err != nil {
		t.Fatalf("second return: %v", err)
	}
	if updated.Status != enums.LoanStatusCompleted {
		t.Fatalf("expected Completed after full return, got %s", updated.Status)
	}
	if len(repo.logs) != 2 {
		t.Fatalf("expected one log per batch, got %d", len(repo.logs))
	}
}

func TestReturnRejectsDocumentOutsideLoan(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)
	loan := createSeededLoan(t, svc, now)

	_, err := svc.ReturnDocuments(context.Background(), ReturnInput{
		LoanID:          loan.ID,
		DocumentNumbers: []string{"D9"},
		ReturnerName:    "Budi",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestListLoansPersistsOverdueOverlay(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	start := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, start)
	loan := createSeededLoan(t, svc, start)

	// Move the clock past the due date before serving the list.
	svc.now = func() time.Time { return start.AddDate(0, 0, 10) }

	loans, err := svc.ListLoans(context.Background())
	if err != nil {
		t.Fatalf("list loans: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("expected one loan, got %d", len(loans))
	}
	if loans[0].Status != enums.LoanStatusOverdue {
		t.Fatalf("expected Overdue overlay, got %s", loans[0].Status)
	}
	if repo.loans[loan.ID].Status != enums.LoanStatusOverdue {
		t.Fatalf("overlay must be persisted back in the same read")
	}
}

func TestCreateHandoverRegistersDocuments(t *testing.T) {
	repo := newStubLendingRepo()
	repo.divisions[1] = &models.Division{ID: 1, Category: "Engineering", Name: "Civil"}
	now := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)

	handover, err := svc.CreateHandover(context.Background(), CreateHandoverInput{
		DivisionID:  1,
		HandlerName: "Sari",
		Documents: []NewDocument{
			{Number: "D10", Name: "Contract X", Year: 2024, Type: "Contract"},
		},
	})
	if err != nil {
		t.Fatalf("create handover: %v", err)
	}
	if handover.ID != "RCV-2502-001" {
		t.Fatalf("expected RCV-2502-001, got %s", handover.ID)
	}
	doc, ok := repo.documents["D10"]
	if !ok {
		t.Fatalf("expected document registered")
	}
	if doc.Status != enums.DocumentStatusAvailable {
		t.Fatalf("new documents must start Available, got %s", doc.Status)
	}
}

func TestCreateHandoverRejectsDuplicateNumber(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)

	_, err := svc.CreateHandover(context.Background(), CreateHandoverInput{
		DivisionID:  1,
		HandlerName: "Sari",
		Documents:   []NewDocument{{Number: "D1", Name: "Duplicate"}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for duplicate document number, got %v", err)
	}
}

func TestDeleteDivisionGuardedByLoans(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)
	createSeededLoan(t, svc, now)

	err := svc.DeleteDivision(context.Background(), 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if _, ok := repo.divisions[1]; !ok {
		t.Fatalf("division must not be removed while referenced")
	}
}

func TestStatsCountsLendingDashboard(t *testing.T) {
	repo := newStubLendingRepo()
	seedDivisionAndDocs(repo)
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, now)
	loan := createSeededLoan(t, svc, now)
	repo.loans[loan.ID].CreatedAt = now

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ActiveLoans != 1 {
		t.Fatalf("expected 1 active loan, got %d", stats.ActiveLoans)
	}
	if stats.LoansThisMonth != 1 {
		t.Fatalf("expected 1 loan this month, got %d", stats.LoansThisMonth)
	}
	if stats.AvailableDocuments != 0 {
		t.Fatalf("expected 0 available documents while loaned, got %d", stats.AvailableDocuments)
	}
}
