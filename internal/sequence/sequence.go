// Package sequence allocates gap-free, human readable document numbers per scope and year.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Scope prefixes a document number.
type Scope string

const (
	ScopeOrder   Scope = "ORD"
	ScopeSale    Scope = "SALE"
	ScopePayment Scope = "PAY"
	ScopeReceipt Scope = "RCP"
)

// Allocator hands out the next number inside the caller's transaction. The counter row stays
// locked until commit, so numbers of rolled back transactions are reused.
type Allocator struct {
	now func() time.Time
	loc *time.Location
}

func NewAllocator(loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.UTC
	}
	return &Allocator{now: time.Now, loc: loc}
}

// Next returns e.g. "ORD-2026-001". Values past 999 keep growing ("ORD-2026-1000").
func (a *Allocator) Next(ctx context.Context, tx *gorm.DB, scope Scope) (string, error) {
	if tx == nil {
		return "", errors.New("transaction required")
	}
	year := a.now().In(a.loc).Year()
	var value int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (scope, year, last_value)
		VALUES (?, ?, 1)
		ON CONFLICT (scope, year) DO UPDATE
		SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, string(scope), year).
		Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", scope, err)
	}
	if value <= 0 {
		return "", fmt.Errorf("allocate %s number: no value returned", scope)
	}
	return Format(scope, year, value), nil
}

func Format(scope Scope, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%03d", scope, year, value)
}
