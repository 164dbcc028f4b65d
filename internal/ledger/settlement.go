package ledger

import (
	"sort"

	"github.com/TripTally/trip-tally-backend/types"
)

// PlanSettlements converts net balances into a transfer list that zeroes
// every balance. It greedily matches the largest debtor against the
// largest creditor, which keeps the plan short: at most n-1 transfers
// for n participants with a nonzero net. The greedy choice is a
// heuristic, not a proof of global optimality.
//
// Ties in magnitude resolve by participant ID so the plan is
// deterministic. Already-balanced input yields an empty plan.
func PlanSettlements(nets map[string]int64) []types.Settlement {
	type party struct {
		id  string
		amt int64 // always positive
	}

	var creditors, debtors []party
	for id, net := range nets {
		switch {
		case net > 0:
			creditors = append(creditors, party{id: id, amt: net})
		case net < 0:
			debtors = append(debtors, party{id: id, amt: -net})
		}
	}

	largestFirst := func(parties []party) {
		sort.SliceStable(parties, func(i, j int) bool {
			if parties[i].amt != parties[j].amt {
				return parties[i].amt > parties[j].amt
			}
			return parties[i].id < parties[j].id
		})
	}

	settlements := []types.Settlement{}
	for len(creditors) > 0 && len(debtors) > 0 {
		largestFirst(creditors)
		largestFirst(debtors)

		c := &creditors[0]
		d := &debtors[0]

		transfer := c.amt
		if d.amt < transfer {
			transfer = d.amt
		}

		settlements = append(settlements, types.Settlement{
			From:   d.id,
			To:     c.id,
			Amount: transfer,
		})

		c.amt -= transfer
		d.amt -= transfer
		if c.amt == 0 {
			creditors = creditors[1:]
		}
		if d.amt == 0 {
			debtors = debtors[1:]
		}
	}

	return settlements
}
