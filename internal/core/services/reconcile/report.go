package reconcile

import (
	"PropDesk/internal/core/domain"
	"fmt"

	"go.uber.org/multierr"
)

// SourceReport describes what one source contributed to a run.
type SourceReport struct {
	Source     domain.Source
	Available  bool
	Profiles   int
	Challenges int
	Err        error
}

// Report summarizes a reconciliation run. A run with errors is degraded, not failed.
type Report struct {
	Sources    []SourceReport
	AuthErr    error
	Unresolved int
}

// Err combines every per-source failure, or returns nil.
func (r Report) Err() error {
	var err error
	for _, s := range r.Sources {
		if s.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.Source, s.Err))
		}
	}
	if r.AuthErr != nil {
		err = multierr.Append(err, fmt.Errorf("auth directory: %w", r.AuthErr))
	}
	return err
}

// Degraded reports whether any configured source or the auth directory
// failed. A source that is not configured contributes no rows and does not
// degrade the run.
func (r Report) Degraded() bool {
	if r.AuthErr != nil {
		return true
	}
	for _, s := range r.Sources {
		if s.Err != nil {
			return true
		}
	}
	return false
}
