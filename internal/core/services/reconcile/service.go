package reconcile

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"PropDesk/internal/shared/validation"
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFetchTimeout bounds each source query when none is configured.
const DefaultFetchTimeout = 8 * time.Second

// Config tunes a Service.
type Config struct {
	FetchTimeout time.Duration
	Policy       MergePolicy
}

// Result is one reconciliation run.
type Result struct {
	Pending  []Account
	Rejected []Account
	Accounts []Account
	Profiles map[string]domain.UserProfile
	Stats    domain.Stats
	Report   Report
}

// Service runs the fetch, merge and reconcile pipeline across all sources.
type Service struct {
	sources    ports.SourceSet
	auth       ports.AuthDirectory
	merger     *ProfileMerger
	reconciler *Reconciler
	timeout    time.Duration
	metrics    ports.ReconcileMetrics
	log        zerolog.Logger
}

// NewService wires the pipeline. sources must be in precedence order.
func NewService(
	sources ports.SourceSet,
	auth ports.AuthDirectory,
	cfg Config,
	metrics ports.ReconcileMetrics,
	baseLogger *zerolog.Logger,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Service{
		sources:    sources,
		auth:       auth,
		merger:     NewProfileMerger(cfg.Policy, baseLogger),
		reconciler: NewReconciler(metrics, baseLogger),
		timeout:    timeout,
		metrics:    metrics,
		log:        baseLogger.With().Str("component", "reconcile_service").Logger(),
	}
}

// ForAdmin reconciles every user's challenges.
func (s *Service) ForAdmin(ctx context.Context) (*Result, error) {
	return s.run(ctx, domain.Filter{})
}

// ForUser reconciles one user's challenges for the trader dashboard.
func (s *Service) ForUser(ctx context.Context, userID string) (*Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validation.Field("user_id", "required")
	}
	return s.run(ctx, domain.Filter{UserID: userID})
}

func (s *Service) run(ctx context.Context, filter domain.Filter) (*Result, error) {
	log := s.log.With().Str("user_filter", filter.UserID).Logger()
	start := time.Now()

	// 1. Fan out to every source and wait for all of them
	rows, authUsers, authErr := s.fetchAll(ctx, filter)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Merge profiles in precedence order
	profileLists := make([][]domain.UserProfile, 0, len(rows))
	batches := make([]Batch, 0, len(rows))
	report := Report{AuthErr: authErr}
	for _, r := range rows {
		profileLists = append(profileLists, r.profiles)
		batches = append(batches, Batch{Source: r.report.Source, Challenges: keepUser(r.challenges, filter)})
		report.Sources = append(report.Sources, r.report)
	}
	profiles := s.merger.Merge(profileLists, authUsers)

	// 3. Partition and format challenges
	part := s.reconciler.Reconcile(batches, profiles)
	report.Unresolved = part.Unresolved

	res := &Result{
		Pending:  part.Pending,
		Rejected: part.Rejected,
		Accounts: part.Accounts,
		Profiles: profiles,
		Stats:    ComputeStats(part),
		Report:   report,
	}

	evt := log.Info()
	if report.Degraded() {
		evt = log.Warn().AnErr("sources_err", report.Err())
	}
	evt.
		Int("accounts", len(res.Accounts)).
		Int("pending", len(res.Pending)).
		Int("rejected", len(res.Rejected)).
		Int("unresolved", report.Unresolved).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation finished")

	return res, nil
}

// keepUser drops rows that do not belong to the filtered user, in case a
// source ignored the filter.
func keepUser(rows []domain.Challenge, filter domain.Filter) []domain.Challenge {
	if filter.UserID == "" {
		return rows
	}
	out := rows[:0:0]
	for _, c := range rows {
		if c.UserID == filter.UserID {
			out = append(out, c)
		}
	}
	return out
}

// Active returns accounts that are live and not in a terminal status.
func (r *Result) Active() []Account {
	return r.filterAccounts(func(a Account) bool { return !a.DisplayStatus.Terminal() })
}

// Breached returns breached accounts.
func (r *Result) Breached() []Account {
	return r.filterAccounts(func(a Account) bool { return a.DisplayStatus == domain.DisplayBreached })
}

// AwaitingCredentials returns pending purchases with no trading account yet.
func (r *Result) AwaitingCredentials() []Account {
	var out []Account
	for _, a := range r.Pending {
		if a.DisplayStatus == domain.DisplayAwaitingCredentials {
			out = append(out, a)
		}
	}
	return out
}

func (r *Result) filterAccounts(keep func(Account) bool) []Account {
	var out []Account
	for _, a := range r.Accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
