package types

// MemberBalance is a participant's derived ledger position. All values
// are minor currency units. Net = Paid - Owed; positive means the group
// owes this participant.
type MemberBalance struct {
	UserID string `json:"userId"`
	Paid   int64  `json:"paid"`
	Owed   int64  `json:"owed"`
	Net    int64  `json:"net"`
}

// Settlement is a single transfer instruction in a settlement plan:
// From pays To the given amount of minor currency units.
type Settlement struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// LedgerSummary is the engine's output at the API boundary: current
// balances plus the transfer plan that zeroes them.
type LedgerSummary struct {
	TripID      string          `json:"tripId"`
	Currency    string          `json:"currency"`
	Balances    []MemberBalance `json:"balances"`
	Settlements []Settlement    `json:"settlements"`
}
