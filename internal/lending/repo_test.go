package lending

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLendingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS divisions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category TEXT NOT NULL,
  name TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS documents (
  number TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  year INTEGER NOT NULL DEFAULT 0,
  type TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'Available',
  file_path TEXT
);`,
		`CREATE TABLE IF NOT EXISTS loan_transactions (
  id TEXT PRIMARY KEY,
  division_id INTEGER NOT NULL,
  borrower_name TEXT NOT NULL,
  loan_date DATETIME NOT NULL,
  due_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'Loaned',
  attachment_path TEXT,
  borrower_signature TEXT NOT NULL DEFAULT 'n/a',
  officer_signature TEXT NOT NULL DEFAULT 'n/a',
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loan_details (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  loan_id TEXT NOT NULL,
  document_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'Loaned',
  returned_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS return_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  loan_id TEXT NOT NULL,
  return_date DATETIME NOT NULL,
  returner_name TEXT NOT NULL,
  returner_signature TEXT NOT NULL DEFAULT 'n/a',
  officer_signature TEXT NOT NULL DEFAULT 'n/a',
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS handovers (
  id TEXT PRIMARY KEY,
  division_id INTEGER NOT NULL,
  handler_name TEXT NOT NULL,
  handover_date DATETIME NOT NULL,
  handler_signature TEXT NOT NULL DEFAULT 'n/a',
  officer_signature TEXT NOT NULL DEFAULT 'n/a',
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedLoanFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	repo := NewRepository(db)

	require.NoError(t, repo.CreateDivision(ctx, &models.Division{Category: "Engineering", Name: "Civil"}))
	require.NoError(t, repo.CreateDocuments(ctx, []models.Document{
		{Number: "D1", Name: "Blueprint A", Status: enums.DocumentStatusLoaned},
		{Number: "D2", Name: "Blueprint B", Status: enums.DocumentStatusLoaned},
	}))

	loanDate := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLoan(ctx, &models.LoanTransaction{
		ID:           "TRX-2501-001",
		DivisionID:   1,
		BorrowerName: "Budi",
		LoanDate:     loanDate,
		DueDate:      loanDate.AddDate(0, 0, 7),
		Status:       enums.LoanStatusLoaned,
	}))
	require.NoError(t, repo.CreateLoanDetails(ctx, []models.LoanDetail{
		{LoanID: "TRX-2501-001", DocumentNumber: "D1", Status: enums.LoanDetailStatusLoaned},
		{LoanID: "TRX-2501-001", DocumentNumber: "D2", Status: enums.LoanDetailStatusLoaned},
	}))
}

func TestMarkDetailsReturnedOnlyTouchesOutstandingRows(t *testing.T) {
	db := setupLendingTestDB(t)
	seedLoanFixture(t, db)
	ctx := context.Background()
	repo := NewRepository(db)
	returnedAt := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	affected, err := repo.MarkDetailsReturned(ctx, "TRX-2501-001", []string{"D1"}, returnedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// A second return of the same document is a no-op.
	affected, err = repo.MarkDetailsReturned(ctx, "TRX-2501-001", []string{"D1"}, returnedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	outstanding, err := repo.CountOutstandingDetails(ctx, "TRX-2501-001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), outstanding)

	loan, err := repo.FindLoan(ctx, "TRX-2501-001")
	require.NoError(t, err)
	require.Len(t, loan.Details, 2)
	for _, detail := range loan.Details {
		if detail.DocumentNumber == "D1" {
			assert.Equal(t, enums.LoanDetailStatusReturned, detail.Status)
			require.NotNil(t, detail.ReturnedAt)
		} else {
			assert.Equal(t, enums.LoanDetailStatusLoaned, detail.Status)
			assert.Nil(t, detail.ReturnedAt)
		}
	}
}

func TestUpdateDocumentStatusFlipsOnlyListedNumbers(t *testing.T) {
	db := setupLendingTestDB(t)
	seedLoanFixture(t, db)
	ctx := context.Background()
	repo := NewRepository(db)

	require.NoError(t, repo.UpdateDocumentStatus(ctx, []string{"D1"}, enums.DocumentStatusAvailable))

	docs, err := repo.FindDocuments(ctx, []string{"D1", "D2"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	byNumber := map[string]enums.DocumentStatus{}
	for _, doc := range docs {
		byNumber[doc.Number] = doc.Status
	}
	assert.Equal(t, enums.DocumentStatusAvailable, byNumber["D1"])
	assert.Equal(t, enums.DocumentStatusLoaned, byNumber["D2"])
}

func TestCountOverdueLoansExcludesCompleted(t *testing.T) {
	db := setupLendingTestDB(t)
	seedLoanFixture(t, db)
	ctx := context.Background()
	repo := NewRepository(db)

	today := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	count, err := repo.CountOverdueLoans(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.UpdateLoanStatus(ctx, "TRX-2501-001", enums.LoanStatusCompleted))

	count, err = repo.CountOverdueLoans(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCountLoansByDivisionGuardsDelete(t *testing.T) {
	db := setupLendingTestDB(t)
	seedLoanFixture(t, db)
	ctx := context.Background()
	repo := NewRepository(db)

	count, err := repo.CountLoansByDivision(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	removed, err := repo.DeleteDivision(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}
