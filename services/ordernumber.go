// Package services holds the order/payment workflow logic: order numbering,
// stock reservation, payment-intent issuance and webhook reconciliation.
package services

import (
	"context"
	"fmt"
	"time"
)

// SequenceStore hands out the next value of a per-day counter. The increment
// must be atomic; uniqueness of order numbers rests entirely on it.
type SequenceStore interface {
	NextSequence(ctx context.Context, date string) (int64, error)
}

// OrderNumbers generates human-facing order identifiers.
type OrderNumbers struct {
	seq SequenceStore
	now func() time.Time
}

// NewOrderNumbers returns a generator backed by the given sequence store.
func NewOrderNumbers(seq SequenceStore) *OrderNumbers {
	return &OrderNumbers{seq: seq, now: time.Now}
}

// Generate returns a fresh order number of the form
// "{YYYYMMDD}-{HHMMSS}-{sequence}". The date and time parts are cosmetic; the
// zero-padded daily sequence is what makes the number unique. Past 9999 the
// sequence simply grows wider and still cannot collide.
func (g *OrderNumbers) Generate(ctx context.Context) (string, error) {
	now := g.now()
	seq, err := g.seq.NextSequence(ctx, now.Format("2006-01-02"))
	if err != nil {
		return "", fmt.Errorf("order number sequence: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", now.Format("20060102"), now.Format("150405"), seq), nil
}
