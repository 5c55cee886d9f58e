package domain

// DisplayStatus is the trader-facing status derived from a challenge's stored fields.
type DisplayStatus string

const (
	DisplayHidden              DisplayStatus = "hidden"
	DisplayBreached            DisplayStatus = "breached"
	DisplayRejected            DisplayStatus = "rejected"
	DisplayPassed              DisplayStatus = "passed"
	DisplayAwaitingCredentials DisplayStatus = "awaiting_credentials"
	DisplayAwaitingContract    DisplayStatus = "awaiting_contract"
	DisplayContractSigned      DisplayStatus = "contract_signed"
	DisplayCredentialsGiven    DisplayStatus = "credentials_given"
)

// RedactedPassword replaces the trading password of breached accounts.
const RedactedPassword = "********"

// DeriveStatus maps a challenge to its display status. The first matching
// rule wins; breach takes precedence over everything else.
func DeriveStatus(c *Challenge) DisplayStatus {
	switch {
	case c.Status == StatusBreached:
		return DisplayBreached
	case c.Status == StatusRejected:
		return DisplayRejected
	case c.Status == StatusPassed:
		return DisplayPassed
	case c.Status == StatusPendingPayment:
		return DisplayHidden
	case !c.IsProvisioned():
		return DisplayAwaitingCredentials
	case !c.ContractSigned:
		return DisplayAwaitingContract
	case !c.CredentialsVisible && !c.CredentialsSent:
		return DisplayContractSigned
	default:
		return DisplayCredentialsGiven
	}
}

// Visible reports whether the status is shown on any dashboard.
func (s DisplayStatus) Visible() bool {
	return s != DisplayHidden
}

// Terminal reports whether no further forward transition exists.
// Breached can still be reverted by an admin unbreach.
func (s DisplayStatus) Terminal() bool {
	switch s {
	case DisplayBreached, DisplayRejected, DisplayPassed:
		return true
	}
	return false
}

// CredentialsDisplayable reports whether the trading login may be shown.
func (s DisplayStatus) CredentialsDisplayable() bool {
	return s == DisplayCredentialsGiven
}
