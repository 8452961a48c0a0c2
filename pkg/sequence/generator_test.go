package sequence

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pkgdb "github.com/sione-id/backoffice-backend/pkg/db"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS sequence_counters (
  prefix TEXT NOT NULL,
  bucket TEXT NOT NULL,
  value INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (prefix, bucket)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestNextMintsGapFreeSequence(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator()

	want := []string{"TRX-2501-001", "TRX-2501-002", "TRX-2501-003"}
	for _, expected := range want {
		id, err := gen.Next(db, "TRX", "2501")
		require.NoError(t, err)
		assert.Equal(t, expected, id)
	}
}

func TestNextIsolatesBuckets(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator()

	id, err := gen.Next(db, "RCV", "2502")
	require.NoError(t, err)
	assert.Equal(t, "RCV-2502-001", id)

	id, err = gen.Next(db, "RCV", "2503")
	require.NoError(t, err)
	assert.Equal(t, "RCV-2503-001", id)

	id, err = gen.Next(db, "REQ", "2502")
	require.NoError(t, err)
	assert.Equal(t, "REQ-2502-001", id)
}

func TestNextFailsWhenCounterExhausted(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator()

	seed := `INSERT INTO sequence_counters (prefix, bucket, value) VALUES ('TRX', '2412', 999);`
	require.NoError(t, db.Exec(seed).Error)

	_, err := gen.Next(db, "TRX", "2412")
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeSequenceExhausted, typed.Code())
}

func TestNextRejectsMissingInputs(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator()

	_, err := gen.Next(nil, "TRX", "2501")
	require.Error(t, err)

	_, err = gen.Next(db, "", "2501")
	require.Error(t, err)

	_, err = gen.Next(db, "TRX", "")
	require.Error(t, err)
}

func TestNextUnderConcurrentTransactions(t *testing.T) {
	// A file-backed database gives each worker a real writer lock, so losing
	// transactions fail with the retryable busy error and rerun, the same way
	// runTx reruns them in production.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=500", filepath.Join(t.TempDir(), "counters.db"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS sequence_counters (
  prefix TEXT NOT NULL,
  bucket TEXT NOT NULL,
  value INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (prefix, bucket)
);`
	require.NoError(t, gdb.Exec(ddl).Error)

	gen := NewGenerator()
	const workers = 16

	var (
		mu  sync.Mutex
		ids []string
		wg  sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, mintErr := mintInOwnTx(gdb, gen, "TRX", "2506")
				if mintErr != nil {
					if pkgdb.IsRetryable(mintErr) {
						time.Sleep(time.Millisecond)
						continue
					}
					t.Errorf("mint: %v", mintErr)
					return
				}
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
				return
			}
		}()
	}
	wg.Wait()

	require.Len(t, ids, workers)
	seen := make(map[string]struct{}, workers)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, workers, "every worker must mint a distinct identifier")
	for n := 1; n <= workers; n++ {
		_, ok := seen[Format("TRX", "2506", n)]
		assert.True(t, ok, "sequence has a gap at %s", Format("TRX", "2506", n))
	}
}

func mintInOwnTx(gdb *gorm.DB, gen *Generator, prefix, bucket string) (string, error) {
	tx := gdb.Begin()
	if tx.Error != nil {
		return "", tx.Error
	}
	id, err := gen.Next(tx, prefix, bucket)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}
	if err := tx.Commit().Error; err != nil {
		return "", err
	}
	return id, nil
}

func TestBuckets(t *testing.T) {
	at := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2501", MonthBucket(at))
	assert.Equal(t, "2025", YearBucket(at))

	december := time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2412", MonthBucket(december))
	assert.Equal(t, "2024", YearBucket(december))
}
