// Package ledger implements the expense ledger for a single trip:
// an in-memory store of participants and expenses plus the pure
// derivations over it (share resolution, balances, settlement plans).
//
// A Ledger is not internally synchronized. Callers serialize mutations
// per trip; derived views are recomputed on demand and never cached.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/google/uuid"
)

// Ledger holds the authoritative participants and expenses of one trip.
type Ledger struct {
	tripID       string
	currency     string
	participants map[string]*types.Participant
	expenses     []*types.Expense
	byID         map[string]*types.Expense
}

// New creates an empty ledger for a trip. All expenses added to it must
// use the given currency.
func New(tripID, currency string) *Ledger {
	return &Ledger{
		tripID:       tripID,
		currency:     currency,
		participants: make(map[string]*types.Participant),
		byID:         make(map[string]*types.Expense),
	}
}

// TripID returns the trip this ledger belongs to.
func (l *Ledger) TripID() string { return l.tripID }

// Currency returns the ledger currency code.
func (l *Ledger) Currency() string { return l.currency }

// AddParticipant enrolls a member. Re-adding a deactivated participant
// reactivates them; re-adding an active one is a conflict.
func (l *Ledger) AddParticipant(p *types.Participant) error {
	if p.ID == "" {
		return errors.ValidationFailed("invalid participant", "participant ID is required")
	}
	if existing, ok := l.participants[p.ID]; ok {
		if existing.IsActive {
			return errors.NewConflictError(
				"participant already enrolled",
				fmt.Sprintf("participant %s is already a member of trip %s", p.ID, l.tripID),
			)
		}
		existing.IsActive = true
		return nil
	}

	member := *p
	member.TripID = l.tripID
	member.IsActive = true
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	l.participants[p.ID] = &member
	return nil
}

// Participant returns a member by ID.
func (l *Ledger) Participant(id string) (*types.Participant, error) {
	p, ok := l.participants[id]
	if !ok {
		return nil, errors.NotFound("Participant", id)
	}
	return p, nil
}

// Participants returns all members in ascending ID order.
func (l *Ledger) Participants() []*types.Participant {
	out := make([]*types.Participant, 0, len(l.participants))
	for _, p := range l.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeactivateParticipant freezes a member without touching the ledger
// history. Deactivated members stay visible in balances until settled.
func (l *Ledger) DeactivateParticipant(id string) error {
	p, ok := l.participants[id]
	if !ok {
		return errors.NotFound("Participant", id)
	}
	p.IsActive = false
	return nil
}

// RemoveParticipant unenrolls a member entirely. Removal is rejected
// while the member has a nonzero net balance or appears in any recorded
// expense; deactivation is the alternative that preserves ledger
// integrity.
func (l *Ledger) RemoveParticipant(id string) error {
	if _, ok := l.participants[id]; !ok {
		return errors.NotFound("Participant", id)
	}

	balances, err := l.Balances()
	if err != nil {
		return err
	}
	if b, ok := balances[id]; ok && b.Net != 0 {
		return errors.NewConflictError(
			"participant has an outstanding balance",
			fmt.Sprintf("participant %s has net balance %d; settle or deactivate instead", id, b.Net),
		)
	}
	for _, e := range l.expenses {
		if l.expenseReferences(e, id) {
			return errors.NewConflictError(
				"participant appears in recorded expenses",
				fmt.Sprintf("participant %s is referenced by expense %s; deactivate instead", id, e.ID),
			)
		}
	}

	delete(l.participants, id)
	return nil
}

// AddExpense validates and appends an expense, assigning it a generated
// ID. The expense is returned with ID and timestamps populated.
func (l *Ledger) AddExpense(expense *types.Expense) (*types.Expense, error) {
	e := *expense
	e.TripID = l.tripID
	if err := l.validateExpense(&e); err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Date.IsZero() {
		e.Date = now
	}

	l.expenses = append(l.expenses, &e)
	l.byID[e.ID] = &e
	return &e, nil
}

// UpdateExpense replaces a stored expense with the given one, matched
// by ID, after re-validating the whole split.
func (l *Ledger) UpdateExpense(expense *types.Expense) (*types.Expense, error) {
	existing, ok := l.byID[expense.ID]
	if !ok {
		return nil, errors.NotFound("Expense", expense.ID)
	}

	e := *expense
	e.TripID = l.tripID
	if err := l.validateExpense(&e); err != nil {
		return nil, err
	}

	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	*existing = e
	return existing, nil
}

// GetExpense returns an expense by ID.
func (l *Ledger) GetExpense(id string) (*types.Expense, error) {
	e, ok := l.byID[id]
	if !ok {
		return nil, errors.NotFound("Expense", id)
	}
	return e, nil
}

// RemoveExpense deletes an expense by ID. Derived balances and
// settlement plans computed earlier are stale after this returns;
// callers recompute on demand.
func (l *Ledger) RemoveExpense(id string) error {
	if _, ok := l.byID[id]; !ok {
		return errors.NotFound("Expense", id)
	}
	delete(l.byID, id)
	for i, e := range l.expenses {
		if e.ID == id {
			l.expenses = append(l.expenses[:i], l.expenses[i+1:]...)
			break
		}
	}
	return nil
}

// ListExpenses returns expenses matching the filter, ordered by the
// given sort field. The listing never mutates the store.
func (l *Ledger) ListExpenses(filter types.ExpenseFilter, sortBy types.ExpenseSortField, descending bool) []*types.Expense {
	search := strings.ToLower(filter.SearchText)

	out := make([]*types.Expense, 0, len(l.expenses))
	for _, e := range l.expenses {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Notes), search) {
			continue
		}
		out = append(out, e)
	}

	less := func(a, b *types.Expense) bool { return a.Date.Before(b.Date) }
	if sortBy == types.SortByAmount {
		less = func(a, b *types.Expense) bool { return a.Amount < b.Amount }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Balances recomputes every participant's position from the current
// expense list. Nothing is cached; each call reflects the latest state.
func (l *Ledger) Balances() (map[string]*types.MemberBalance, error) {
	return ComputeBalances(l.expenses)
}

// Summary produces the full API-boundary view: balances in participant
// order plus the settlement plan that zeroes them.
func (l *Ledger) Summary() (*types.LedgerSummary, error) {
	balances, err := l.Balances()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ordered := make([]types.MemberBalance, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, *balances[id])
	}

	return &types.LedgerSummary{
		TripID:      l.tripID,
		Currency:    l.currency,
		Balances:    ordered,
		Settlements: PlanSettlements(NetBalances(balances)),
	}, nil
}

func (l *Ledger) validateExpense(e *types.Expense) error {
	var problems []string

	if e.Title == "" {
		problems = append(problems, "title is required")
	}
	if e.Amount <= 0 {
		problems = append(problems, "amount must be positive")
	}
	if e.Currency != l.currency {
		problems = append(problems, fmt.Sprintf("currency %s does not match ledger currency %s", e.Currency, l.currency))
	}
	if !types.ValidCategory(e.Category) {
		problems = append(problems, fmt.Sprintf("unknown category %q", e.Category))
	}
	if e.PaidBy == "" {
		problems = append(problems, "payer is required")
	} else if _, ok := l.participants[e.PaidBy]; !ok {
		problems = append(problems, fmt.Sprintf("payer %s is not a trip member", e.PaidBy))
	}
	for _, id := range e.SplitParticipants() {
		if _, ok := l.participants[id]; !ok {
			problems = append(problems, fmt.Sprintf("split participant %s is not a trip member", id))
		}
	}
	if len(problems) > 0 {
		return errors.ValidationFailed("Invalid expense", strings.Join(problems, "; "))
	}

	// Resolving the shares runs the full split validation, including
	// the reconciliation of weights and custom shares.
	if _, err := ResolveShares(e); err != nil {
		return err
	}
	return nil
}

func (l *Ledger) expenseReferences(e *types.Expense, participantID string) bool {
	if e.PaidBy == participantID {
		return true
	}
	for _, id := range e.SplitParticipants() {
		if id == participantID {
			return true
		}
	}
	return false
}
