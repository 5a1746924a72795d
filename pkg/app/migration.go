package app

import (
	"context"

	"tableflip.dev/habitdash/pkg/ledger"
)

// MigrationPlan lists the legacy per-day records still in the store.
type MigrationPlan struct {
	Pending []ledger.LegacyKey
	// Unreadable counts the pending keys that Compact will leave alone.
	Unreadable int
}

// MigrationCandidates reports what Migrate would fold into the ledger.
func (s *Service) MigrationCandidates(ctx context.Context) (MigrationPlan, error) {
	keys, err := s.Ledger.LegacyKeys(ctx)
	if err != nil {
		return MigrationPlan{}, err
	}
	plan := MigrationPlan{Pending: keys}
	for _, k := range keys {
		if k.Err != nil {
			plan.Unreadable++
		}
	}
	return plan, nil
}

// Migrate folds legacy per-day records into the ledger and removes them.
func (s *Service) Migrate(ctx context.Context) ([]string, error) {
	return s.Ledger.Compact(ctx)
}
