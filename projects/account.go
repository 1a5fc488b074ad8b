package projects

import "github.com/warp/timecard-engine/dates"

// ResolveAccount decides whether a candidate profit/loss account applies at
// a point in time. It returns the candidate only when it is non-nil, its
// account type matches, and asOf falls strictly inside the effective window:
//
//	AsStartDate < asOf < AsEndDate
//
// Both bounds are exclusive on purpose: an account is never applicable on
// the exact day its window opens or closes. A nil result is the normal
// "no applicable account" outcome, not an error.
func ResolveAccount(candidate *ProfitLossAccount, asOf dates.Date, required AccountType) *ProfitLossAccount {
	if candidate == nil {
		return nil
	}
	if candidate.AccountType != required {
		return nil
	}
	if !candidate.AsStartDate.Before(asOf) {
		return nil
	}
	if !candidate.AsEndDate.After(asOf) {
		return nil
	}
	return candidate
}
