package idissuer

import (
	"context"
	"fmt"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/metrics"
)

// counterStore performs an atomic increment-and-fetch on a named counter.
type counterStore interface {
	Increment(ctx context.Context, name string) (int64, error)
}

// Issuer hands out registrant identifiers of the form AKVORA:<year>:<seq>.
// The sequence is global and never resets; the year is informational.
type Issuer struct {
	store counterStore
	now   func() time.Time
}

func New(store counterStore) *Issuer {
	return &Issuer{store: store, now: time.Now}
}

// WithClock replaces the issuance clock.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// IssueNext consumes one sequence value. Every call yields a distinct
// identifier; a failed increment issues nothing.
func (i *Issuer) IssueNext(ctx context.Context) (*domain.IssuedIdentifier, error) {
	seq, err := i.store.Increment(ctx, domain.AkvoraCounter)
	if err != nil {
		return nil, fmt.Errorf("issue akvora id: %w", err)
	}
	year := i.now().Year()
	metrics.IdentifiersIssued.Inc()
	return &domain.IssuedIdentifier{
		Identifier: domain.FormatAkvoraID(year, seq),
		Year:       year,
		Sequence:   seq,
	}, nil
}
