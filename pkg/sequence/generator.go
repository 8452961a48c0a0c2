// Package sequence mints the human-readable business identifiers used across
// the back office: TRX-YYMM-NNN loan ids, RCV-YYMM-NNN handover ids and
// REQ-YYYY-NNN ticket numbers. Counters live in the sequence_counters table
// and are incremented with a single atomic upsert executed on the caller's
// transaction, so an identifier is only ever consumed together with the row
// that carries it.
package sequence

import (
	"fmt"
	"time"

	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

// MaxCounter is the largest value the fixed three-digit suffix can carry.
// The generator fails loudly beyond it rather than widening the format.
const MaxCounter = 999

// MonthBucket returns the YYMM bucket for t, e.g. "2501" for January 2025.
func MonthBucket(t time.Time) string {
	return fmt.Sprintf("%02d%02d", t.Year()%100, int(t.Month()))
}

// YearBucket returns the YYYY bucket for t.
func YearBucket(t time.Time) string {
	return fmt.Sprintf("%04d", t.Year())
}

// Format renders an identifier without touching the counter.
func Format(prefix, bucket string, value int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, bucket, value)
}

// Generator mints identifiers from the shared counter table.
type Generator struct{}

// NewGenerator returns a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next reserves the next identifier for (prefix, bucket) on the supplied
// transaction. The increment and the read happen in one statement, so two
// transactions can never observe the same counter value; the loser of a
// write conflict surfaces a retryable error and the caller reruns the whole
// transaction.
func (g *Generator) Next(tx *gorm.DB, prefix, bucket string) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "sequence generator requires a transaction")
	}
	if prefix == "" || bucket == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sequence prefix and bucket required")
	}

	var value int
	err := tx.Raw(`
		INSERT INTO sequence_counters (prefix, bucket, value)
		VALUES (?, ?, 1)
		ON CONFLICT (prefix, bucket)
		DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, prefix, bucket).Scan(&value).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment sequence counter")
	}

	if value > MaxCounter {
		return "", pkgerrors.New(pkgerrors.CodeSequenceExhausted,
			fmt.Sprintf("sequence %s-%s exhausted", prefix, bucket)).
			WithDetails(map[string]any{"prefix": prefix, "bucket": bucket, "value": value})
	}

	return Format(prefix, bucket, value), nil
}
