package ledger

import (
	"fmt"
	"sort"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/shopspring/decimal"
)

// ResolveShares computes each participant's owed portion of an expense
// in minor currency units. Whatever the split type, the returned shares
// sum to exactly expense.Amount and no share is negative.
func ResolveShares(expense *types.Expense) (map[string]int64, error) {
	if expense.Amount <= 0 {
		return nil, errors.ValidationFailed(
			"invalid expense amount",
			"amount must be positive",
		)
	}

	switch expense.SplitType {
	case types.SplitEqual:
		return resolveEqual(expense)
	case types.SplitPercentage:
		return resolvePercentage(expense)
	case types.SplitCustom:
		return resolveCustom(expense)
	default:
		return nil, errors.ValidationFailed(
			"invalid split type",
			fmt.Sprintf("unknown split type %q", expense.SplitType),
		)
	}
}

// resolveEqual divides the amount evenly. The remainder (amount mod n)
// is handed out one minor unit at a time in ascending participant-ID
// order, so the result is deterministic and reconstructs the total.
func resolveEqual(expense *types.Expense) (map[string]int64, error) {
	ids, err := uniqueSorted(expense.Participants)
	if err != nil {
		return nil, err
	}

	n := int64(len(ids))
	base := expense.Amount / n
	remainder := expense.Amount % n

	shares := make(map[string]int64, n)
	for i, id := range ids {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[id] = share
	}
	return shares, nil
}

// resolvePercentage assigns round-down shares of amount x weight and
// corrects with the largest-remainder method so shares sum exactly to
// the amount. Weights must be non-negative and sum to exactly 1.
func resolvePercentage(expense *types.Expense) (map[string]int64, error) {
	if len(expense.Weights) == 0 {
		return nil, errors.ValidationFailed(
			"invalid percentage split",
			"at least one weight is required",
		)
	}

	total := decimal.Zero
	for id, w := range expense.Weights {
		if w.IsNegative() {
			return nil, errors.ValidationFailed(
				"invalid percentage split",
				fmt.Sprintf("weight for %s is negative", id),
			)
		}
		total = total.Add(w)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		return nil, errors.SplitMismatch(
			"percentage weights must sum to 1",
			fmt.Sprintf("weights sum to %s", total.String()),
		)
	}

	ids := make([]string, 0, len(expense.Weights))
	for id := range expense.Weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	amount := decimal.NewFromInt(expense.Amount)
	shares := make(map[string]int64, len(ids))
	type rem struct {
		id   string
		frac decimal.Decimal
	}
	remainders := make([]rem, 0, len(ids))

	var assigned int64
	for _, id := range ids {
		exact := amount.Mul(expense.Weights[id])
		floor := exact.Floor()
		shares[id] = floor.IntPart()
		assigned += floor.IntPart()
		remainders = append(remainders, rem{id: id, frac: exact.Sub(floor)})
	}

	// Largest remainder first; equal remainders resolve by participant ID.
	sort.SliceStable(remainders, func(i, j int) bool {
		cmp := remainders[i].frac.Cmp(remainders[j].frac)
		if cmp != 0 {
			return cmp > 0
		}
		return remainders[i].id < remainders[j].id
	})

	leftover := expense.Amount - assigned
	for i := int64(0); i < leftover; i++ {
		shares[remainders[i].id]++
	}
	return shares, nil
}

// resolveCustom validates explicitly given shares. Shares that do not
// reconcile to the total are rejected, never scaled or clamped.
func resolveCustom(expense *types.Expense) (map[string]int64, error) {
	if len(expense.Shares) == 0 {
		return nil, errors.ValidationFailed(
			"invalid custom split",
			"at least one share is required",
		)
	}

	var sum int64
	for id, share := range expense.Shares {
		if share < 0 {
			return nil, errors.ValidationFailed(
				"invalid custom split",
				fmt.Sprintf("share for %s is negative", id),
			)
		}
		sum += share
	}
	if sum != expense.Amount {
		return nil, errors.SplitMismatch(
			"custom shares must add up to the expense amount",
			fmt.Sprintf("shares sum to %d, expense amount is %d", sum, expense.Amount),
		)
	}

	shares := make(map[string]int64, len(expense.Shares))
	for id, share := range expense.Shares {
		shares[id] = share
	}
	return shares, nil
}

func uniqueSorted(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.ValidationFailed(
			"invalid split",
			"at least one participant is required",
		)
	}
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			return nil, errors.ValidationFailed(
				"invalid split",
				fmt.Sprintf("participant %s listed more than once", out[i]),
			)
		}
	}
	return out, nil
}
