package ledger

import (
	"github.com/TripTally/trip-tally-backend/types"
)

// ComputeBalances folds every expense into per-participant positions:
// the payer is credited the full amount, everyone in the split is
// debited their resolved share (payers debit themselves too when they
// are part of the split). The fold is pure and order-independent, and
// the nets of a consistent expense set always sum to zero.
//
// Errors from share resolution propagate unchanged; no new failure
// modes are introduced here.
func ComputeBalances(expenses []*types.Expense) (map[string]*types.MemberBalance, error) {
	balances := make(map[string]*types.MemberBalance)

	get := func(id string) *types.MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &types.MemberBalance{UserID: id}
			balances[id] = b
		}
		return b
	}

	for _, expense := range expenses {
		shares, err := ResolveShares(expense)
		if err != nil {
			return nil, err
		}

		get(expense.PaidBy).Paid += expense.Amount
		for id, share := range shares {
			get(id).Owed += share
		}
	}

	for _, b := range balances {
		b.Net = b.Paid - b.Owed
	}
	return balances, nil
}

// NetBalances reduces full balances to the participant -> net mapping
// consumed by the settlement planner.
func NetBalances(balances map[string]*types.MemberBalance) map[string]int64 {
	nets := make(map[string]int64, len(balances))
	for id, b := range balances {
		nets[id] = b.Net
	}
	return nets
}
