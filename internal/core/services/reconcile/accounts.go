package reconcile

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"sort"

	"github.com/rs/zerolog"
)

// Placeholders used when a challenge's owner has no merged profile.
const (
	UnknownName  = "Unknown"
	NotAvailable = "N/A"
)

// Account is a challenge joined with its owner's display fields.
type Account struct {
	domain.Challenge

	UserEmail              string
	UserName               string
	FriendlyID             string
	DisplayStatus          domain.DisplayStatus
	CredentialsDisplayable bool
}

// Batch is one source's challenge rows.
type Batch struct {
	Source     domain.Source
	Challenges []domain.Challenge
}

// Partition is the categorized output of a reconciliation.
type Partition struct {
	// Pending holds purchases still needing admin provisioning.
	Pending []Account
	// Rejected holds pending purchases an admin rejected.
	Rejected []Account
	// Accounts holds every provisioned challenge.
	Accounts []Account
	// Unresolved counts rows whose owner had no profile.
	Unresolved int
}

// Reconciler tags, partitions and formats challenge rows.
type Reconciler struct {
	metrics ports.ReconcileMetrics
	log     zerolog.Logger
}

// NewReconciler creates a reconciler. A nil metrics sink discards observations.
func NewReconciler(metrics ports.ReconcileMetrics, baseLogger *zerolog.Logger) *Reconciler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Reconciler{
		metrics: metrics,
		log:     baseLogger.With().Str("component", "challenge_reconciler").Logger(),
	}
}

// Reconcile partitions the batches against the merged profiles.
func (r *Reconciler) Reconcile(batches []Batch, profiles map[string]domain.UserProfile) Partition {
	var out Partition

	for _, batch := range batches {
		for i := range batch.Challenges {
			c := batch.Challenges[i]
			c.DBSource = batch.Source

			if c.UserID == "" {
				r.log.Warn().Str("source", c.DBSource.String()).Str("challenge_id", c.ID).Msg("Dropping challenge without user_id")
				continue
			}
			if c.Status == domain.StatusPendingPayment {
				continue
			}

			acct, resolved := r.format(c, profiles)
			if !resolved {
				out.Unresolved++
			}

			if !c.IsProvisioned() || !c.CredentialsSent {
				if c.Status == domain.StatusRejected {
					out.Rejected = append(out.Rejected, acct)
				} else {
					out.Pending = append(out.Pending, acct)
				}
			}
			if c.IsProvisioned() {
				out.Accounts = append(out.Accounts, acct)
			}
		}
	}

	sortAccounts(out.Pending)
	sortAccounts(out.Rejected)
	sortAccounts(out.Accounts)
	return out
}

// format joins the owner's profile and applies redaction.
func (r *Reconciler) format(c domain.Challenge, profiles map[string]domain.UserProfile) (Account, bool) {
	status := domain.DeriveStatus(&c)
	if status == domain.DisplayBreached {
		redacted := domain.RedactedPassword
		c.TradingAccountPassword = &redacted
	}

	acct := Account{
		Challenge:              c,
		DisplayStatus:          status,
		CredentialsDisplayable: status.CredentialsDisplayable(),
	}

	profile, ok := profiles[c.UserID]
	if !ok {
		r.log.Warn().
			Str("user_id", c.UserID).
			Str("challenge_id", c.ID).
			Str("source", c.DBSource.String()).
			Msg("No merged profile for challenge owner")
		r.metrics.IncUnresolvedProfile(c.DBSource)
		acct.UserEmail = NotAvailable
		acct.UserName = UnknownName
		acct.FriendlyID = NotAvailable
		return acct, false
	}

	acct.UserEmail = orDefault(profile.Email, NotAvailable)
	acct.UserName = orDefault(profile.DisplayName(), UnknownName)
	acct.FriendlyID = orDefault(profile.FriendlyID, NotAvailable)
	return acct, true
}

// sortAccounts orders newest purchases first, with a stable tie-break on provenance.
func sortAccounts(accts []Account) {
	sort.SliceStable(accts, func(i, j int) bool {
		ti, tj := accts[i].PurchasedAt(), accts[j].PurchasedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		if accts[i].DBSource != accts[j].DBSource {
			return sourceRank(accts[i].DBSource) < sourceRank(accts[j].DBSource)
		}
		return accts[i].ID < accts[j].ID
	})
}

func sourceRank(s domain.Source) int {
	for i, name := range domain.SourceOrder {
		if name == s {
			return i
		}
	}
	return len(domain.SourceOrder)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
