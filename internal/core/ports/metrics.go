package ports

import (
	"PropDesk/internal/core/domain"
	"time"
)

// ReconcileMetrics observes reconciliation and lifecycle activity.
type ReconcileMetrics interface {
	ObserveFetch(source domain.Source, entity string, err error, elapsed time.Duration)
	IncUnresolvedProfile(source domain.Source)
	ObserveTransition(action string, err error)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveFetch(domain.Source, string, error, time.Duration) {}
func (NopMetrics) IncUnresolvedProfile(domain.Source) {}
func (NopMetrics) ObserveTransition(string, error) {}
