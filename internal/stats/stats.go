// Package stats aggregates usage counters across every stored record. The
// scan is O(n) over the whole store and runs on demand only; it must never
// sit on the request hot path.
package stats

import (
	"github.com/sataddr/sataddr/internal/models"
)

// Summary totals the counters across all addresses.
type Summary struct {
	Invoices uint64 `json:"invoices"`
	Calls    uint64 `json:"calls"`
	Edits    uint64 `json:"edits"`
}

// Report is the full aggregation result.
type Report struct {
	PerAddress map[string]models.Stats `json:"data"`
	Summary    Summary                 `json:"summary"`
}

// Collect scans the store and builds the report.
func Collect(repo models.Repository) (*Report, error) {
	records, err := repo.All()
	if err != nil {
		return nil, err
	}

	report := &Report{PerAddress: make(map[string]models.Stats, len(records))}
	for _, rec := range records {
		report.PerAddress[rec.Key()] = rec.Stats
		report.Summary.Invoices += rec.Stats.Invoices.Num
		report.Summary.Calls += rec.Stats.Calls.Num
		report.Summary.Edits += rec.Stats.Edits.Num
	}
	return report, nil
}
