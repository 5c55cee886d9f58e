package reconcile

import (
	"PropDesk/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ComputeStats reduces a partition to dashboard counters. Amounts are summed
// as decimals, and each challenge counts once however many collections hold it.
func ComputeStats(p Partition) domain.Stats {
	stats := domain.Stats{
		TotalAccounts:      len(p.Accounts),
		PendingChallenges:  len(p.Pending),
		RejectedChallenges: len(p.Rejected),
		TotalAccountSize:   decimal.Zero,
		ActiveAccountSize:  decimal.Zero,
		TotalAmountPaid:    decimal.Zero,
	}

	for _, a := range p.Accounts {
		stats.TotalAccountSize = stats.TotalAccountSize.Add(a.AccountSize)
		switch {
		case a.DisplayStatus == domain.DisplayBreached:
			stats.BreachedAccounts++
		case a.DisplayStatus == domain.DisplayPassed:
			stats.PassedAccounts++
		case !a.DisplayStatus.Terminal():
			stats.ActiveAccounts++
			stats.ActiveAccountSize = stats.ActiveAccountSize.Add(a.AccountSize)
		}
	}

	for _, a := range p.Pending {
		if a.DisplayStatus == domain.DisplayAwaitingCredentials {
			stats.AwaitingCredentials++
		}
	}

	seen := make(map[domain.ChallengeRef]struct{})
	for _, group := range [][]Account{p.Accounts, p.Pending, p.Rejected} {
		for i := range group {
			ref := group[i].Ref()
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			stats.TotalAmountPaid = stats.TotalAmountPaid.Add(group[i].AmountPaid)
		}
	}

	return stats
}
