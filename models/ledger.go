package models

import (
	"context"
	"sort"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/internal/events"
	"github.com/TripTally/trip-tally-backend/internal/ledger"
	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/TripTally/trip-tally-backend/pkg/valueobjects"
	"github.com/TripTally/trip-tally-backend/types"
)

// LedgerModel is the business layer over the trip ledger: it verifies
// membership, validates expenses through the split resolver, persists
// them, and publishes change events. Balances and settlements are
// always recomputed from the stored expenses, never cached.
type LedgerModel struct {
	expenses       store.ExpenseStore
	participants   store.ParticipantStore
	eventPublisher types.EventPublisher
}

func NewLedgerModel(expenses store.ExpenseStore, participants store.ParticipantStore, eventPublisher types.EventPublisher) *LedgerModel {
	return &LedgerModel{
		expenses:       expenses,
		participants:   participants,
		eventPublisher: eventPublisher,
	}
}

// verifyTripMembership ensures userID is an active participant of the trip.
func (lm *LedgerModel) verifyTripMembership(ctx context.Context, tripID, userID string) error {
	p, err := lm.participants.GetParticipant(ctx, tripID, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.TripAccessDenied(userID, tripID)
		}
		return errors.NewDatabaseError(err)
	}
	if !p.IsActive {
		return errors.TripAccessDenied(userID, tripID)
	}
	return nil
}

func (lm *LedgerModel) activeMemberSet(ctx context.Context, tripID string) (map[string]struct{}, error) {
	members, err := lm.participants.ListParticipants(ctx, tripID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m.IsActive {
			set[m.ID] = struct{}{}
		}
	}
	return set, nil
}

// buildExpense converts the create request into a domain expense,
// parsing decimal amount strings into minor units.
func buildExpense(tripID string, req *types.CreateExpenseRequest) (*types.Expense, error) {
	amount, err := valueobjects.NewMoneyFromString(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	expense := &types.Expense{
		TripID:       tripID,
		Title:        req.Title,
		Amount:       amount.MinorUnits(),
		Currency:     string(amount.Currency()),
		Category:     req.Category,
		PaidBy:       req.PaidBy,
		SplitType:    req.SplitType,
		Participants: req.Participants,
		Weights:      req.Weights,
		Date:         req.Date,
		Notes:        req.Notes,
		ReceiptURL:   req.ReceiptURL,
	}

	if len(req.Shares) > 0 {
		expense.Shares = make(map[string]int64, len(req.Shares))
		for id, s := range req.Shares {
			share, err := valueobjects.NewMoneyFromString(s, req.Currency)
			if err != nil {
				return nil, errors.ValidationFailed("invalid share amount", err.Error())
			}
			expense.Shares[id] = share.MinorUnits()
		}
	}
	return expense, nil
}

// validateExpense checks the expense against trip membership and runs
// the split resolver so that irreconcilable splits never reach storage.
func (lm *LedgerModel) validateExpense(ctx context.Context, expense *types.Expense) error {
	if expense.Title == "" {
		return errors.ValidationFailed("invalid expense", "title is required")
	}
	if expense.Amount <= 0 {
		return errors.ValidationFailed("invalid expense", "amount must be positive")
	}
	if !types.ValidCategory(expense.Category) {
		return errors.ValidationFailed("invalid expense", "unknown category: "+string(expense.Category))
	}

	members, err := lm.activeMemberSet(ctx, expense.TripID)
	if err != nil {
		return err
	}
	if _, ok := members[expense.PaidBy]; !ok {
		return errors.ValidationFailed("invalid expense", "payer is not an active trip member: "+expense.PaidBy)
	}
	for _, id := range expense.SplitParticipants() {
		if _, ok := members[id]; !ok {
			return errors.ValidationFailed("invalid expense", "split participant is not an active trip member: "+id)
		}
	}

	// Currency is uniform across a trip's ledger.
	existing, err := lm.expenses.ListExpenses(ctx, expense.TripID, types.ExpenseFilter{}, types.SortByDate, false)
	if err != nil {
		return errors.NewDatabaseError(err)
	}
	for _, e := range existing {
		if e.ID != expense.ID && e.Currency != expense.Currency {
			return errors.ValidationFailed("invalid expense",
				"currency "+expense.Currency+" does not match ledger currency "+e.Currency)
		}
	}

	_, err = ledger.ResolveShares(expense)
	return err
}

// CreateExpense validates and records a new expense for the trip.
func (lm *LedgerModel) CreateExpense(ctx context.Context, tripID, userID string, req *types.CreateExpenseRequest) (*types.Expense, error) {
	log := logger.GetLogger()

	if err := lm.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}

	expense, err := buildExpense(tripID, req)
	if err != nil {
		return nil, err
	}
	if err := lm.validateExpense(ctx, expense); err != nil {
		return nil, err
	}

	id, err := lm.expenses.CreateExpense(ctx, expense)
	if err != nil {
		log.Errorw("Failed to create expense", "tripId", tripID, "error", err)
		return nil, errors.NewDatabaseError(err)
	}
	expense.ID = id

	lm.publish(ctx, types.EventTypeExpenseCreated, tripID, userID, expense)
	return expense, nil
}

// GetExpense loads a single expense, scoped to the trip.
func (lm *LedgerModel) GetExpense(ctx context.Context, tripID, userID, expenseID string) (*types.Expense, error) {
	if err := lm.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	expense, err := lm.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("Expense", expenseID)
		}
		return nil, errors.NewDatabaseError(err)
	}
	if expense.TripID != tripID {
		return nil, errors.NotFound("Expense", expenseID)
	}
	return expense, nil
}

// ListExpenses returns the trip's expenses, filtered and sorted. The
// listing never mutates the ledger.
func (lm *LedgerModel) ListExpenses(ctx context.Context, tripID, userID string, filter types.ExpenseFilter, sortBy types.ExpenseSortField, descending bool) ([]*types.Expense, error) {
	if err := lm.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	list, err := lm.expenses.ListExpenses(ctx, tripID, filter, sortBy, descending)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return list, nil
}

// UpdateExpense applies a partial update and re-validates the result.
func (lm *LedgerModel) UpdateExpense(ctx context.Context, tripID, userID, expenseID string, update *types.UpdateExpenseRequest) (*types.Expense, error) {
	log := logger.GetLogger()

	expense, err := lm.GetExpense(ctx, tripID, userID, expenseID)
	if err != nil {
		return nil, err
	}

	if err := applyExpenseUpdate(expense, update); err != nil {
		return nil, err
	}
	if err := lm.validateExpense(ctx, expense); err != nil {
		return nil, err
	}

	updated, err := lm.expenses.UpdateExpense(ctx, expense)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("Expense", expenseID)
		}
		log.Errorw("Failed to update expense", "expenseId", expenseID, "error", err)
		return nil, errors.NewDatabaseError(err)
	}

	lm.publish(ctx, types.EventTypeExpenseUpdated, tripID, userID, updated)
	return updated, nil
}

func applyExpenseUpdate(expense *types.Expense, update *types.UpdateExpenseRequest) error {
	if update.Title != nil {
		expense.Title = *update.Title
	}
	if update.Amount != nil {
		amount, err := valueobjects.NewMoneyFromString(*update.Amount, expense.Currency)
		if err != nil {
			return err
		}
		expense.Amount = amount.MinorUnits()
	}
	if update.Category != nil {
		expense.Category = *update.Category
	}
	if update.PaidBy != nil {
		expense.PaidBy = *update.PaidBy
	}
	if update.Date != nil {
		expense.Date = *update.Date
	}
	if update.Notes != nil {
		expense.Notes = *update.Notes
	}
	if update.ReceiptURL != nil {
		expense.ReceiptURL = *update.ReceiptURL
	}

	// A split type change replaces the split detail wholesale.
	if update.SplitType != nil {
		expense.SplitType = *update.SplitType
		expense.Participants = nil
		expense.Weights = nil
		expense.Shares = nil
	}
	if update.Participants != nil {
		expense.Participants = update.Participants
	}
	if update.Weights != nil {
		expense.Weights = update.Weights
	}
	if update.Shares != nil {
		shares := make(map[string]int64, len(update.Shares))
		for id, s := range update.Shares {
			share, err := valueobjects.NewMoneyFromString(s, expense.Currency)
			if err != nil {
				return errors.ValidationFailed("invalid share amount", err.Error())
			}
			shares[id] = share.MinorUnits()
		}
		expense.Shares = shares
	}
	return nil
}

// DeleteExpense soft-deletes an expense from the ledger.
func (lm *LedgerModel) DeleteExpense(ctx context.Context, tripID, userID, expenseID string) error {
	// Scope check happens through the load.
	expense, err := lm.GetExpense(ctx, tripID, userID, expenseID)
	if err != nil {
		return err
	}

	if err := lm.expenses.DeleteExpense(ctx, expenseID); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("Expense", expenseID)
		}
		return errors.NewDatabaseError(err)
	}

	lm.publish(ctx, types.EventTypeExpenseDeleted, tripID, userID, expense)
	return nil
}

// GetLedgerSummary recomputes balances and the settlement plan from the
// trip's current expenses. Active participants with no expenses appear
// with zero balances.
func (lm *LedgerModel) GetLedgerSummary(ctx context.Context, tripID, userID string) (*types.LedgerSummary, error) {
	if err := lm.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}

	members, err := lm.participants.ListParticipants(ctx, tripID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	expenses, err := lm.expenses.ListExpenses(ctx, tripID, types.ExpenseFilter{}, types.SortByDate, false)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	balances, err := ledger.ComputeBalances(expenses)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.IsActive {
			if _, ok := balances[m.ID]; !ok {
				balances[m.ID] = &types.MemberBalance{UserID: m.ID}
			}
		}
	}

	ordered := make([]types.MemberBalance, 0, len(balances))
	for _, b := range balances {
		ordered = append(ordered, *b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].UserID < ordered[j].UserID })

	summary := &types.LedgerSummary{
		TripID:      tripID,
		Balances:    ordered,
		Settlements: ledger.PlanSettlements(ledger.NetBalances(balances)),
	}
	if len(expenses) > 0 {
		summary.Currency = expenses[0].Currency
	}
	return summary, nil
}

// AddMember adds a participant to the trip's ledger, reactivating a
// previously deactivated one. A trip with no participants yet accepts
// only the authenticated caller, who becomes its creator; after that,
// only existing active members may enroll others.
func (lm *LedgerModel) AddMember(ctx context.Context, tripID, actorID string, req *types.AddParticipantRequest) (*types.Participant, error) {
	existing, err := lm.participants.ListParticipants(ctx, tripID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	bootstrap := len(existing) == 0
	if bootstrap {
		if req.UserID != actorID {
			return nil, errors.TripAccessDenied(actorID, tripID)
		}
	} else if err := lm.verifyTripMembership(ctx, tripID, actorID); err != nil {
		return nil, err
	}

	participant := &types.Participant{
		ID:        req.UserID,
		TripID:    tripID,
		Name:      req.Name,
		Email:     req.Email,
		IsCreator: bootstrap,
		IsActive:  true,
	}
	if err := lm.participants.AddParticipant(ctx, participant); err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	lm.publish(ctx, types.EventTypeMemberAdded, tripID, actorID, participant)
	return participant, nil
}

// ListMembers returns the trip's participants ordered by ID.
func (lm *LedgerModel) ListMembers(ctx context.Context, tripID, userID string) ([]*types.Participant, error) {
	if err := lm.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	members, err := lm.participants.ListParticipants(ctx, tripID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return members, nil
}

// RemoveMember removes a participant outright. Removal is refused while
// the member still owes or is owed money, or appears on any expense;
// deactivation is the alternative that keeps history intact.
func (lm *LedgerModel) RemoveMember(ctx context.Context, tripID, actorID, memberID string) error {
	if err := lm.verifyTripMembership(ctx, tripID, actorID); err != nil {
		return err
	}
	if _, err := lm.participants.GetParticipant(ctx, tripID, memberID); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("Member", memberID)
		}
		return errors.NewDatabaseError(err)
	}

	expenses, err := lm.expenses.ListExpenses(ctx, tripID, types.ExpenseFilter{}, types.SortByDate, false)
	if err != nil {
		return errors.NewDatabaseError(err)
	}
	for _, e := range expenses {
		if e.PaidBy == memberID {
			return errors.NewConflictError("member cannot be removed",
				"member paid for expenses; deactivate instead")
		}
		for _, id := range e.SplitParticipants() {
			if id == memberID {
				return errors.NewConflictError("member cannot be removed",
					"member is part of expense splits; deactivate instead")
			}
		}
	}

	if err := lm.participants.RemoveParticipant(ctx, tripID, memberID); err != nil {
		return errors.NewDatabaseError(err)
	}
	return nil
}

// DeactivateMember marks a participant inactive. Their balance history
// stays in the ledger and keeps counting toward settlements.
func (lm *LedgerModel) DeactivateMember(ctx context.Context, tripID, actorID, memberID string) error {
	if err := lm.verifyTripMembership(ctx, tripID, actorID); err != nil {
		return err
	}
	if err := lm.participants.DeactivateParticipant(ctx, tripID, memberID); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("Member", memberID)
		}
		return errors.NewDatabaseError(err)
	}

	lm.publish(ctx, types.EventTypeMemberDeactivated, tripID, actorID, map[string]string{"memberId": memberID})
	return nil
}

func (lm *LedgerModel) publish(ctx context.Context, eventType types.EventType, tripID, userID string, payload interface{}) {
	if lm.eventPublisher == nil {
		return
	}
	if err := events.PublishWithPayload(ctx, lm.eventPublisher, eventType, tripID, userID, payload); err != nil {
		logger.GetLogger().Warnw("Failed to publish event",
			"type", eventType,
			"tripId", tripID,
			"error", err,
		)
	}
}
