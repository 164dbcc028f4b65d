package models

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/internal/events"
	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory store fakes. They implement the persistence interfaces
// closely enough for business-layer tests without a database.

type fakeExpenseStore struct {
	mu       sync.Mutex
	expenses map[string]*types.Expense
}

func newFakeExpenseStore() *fakeExpenseStore {
	return &fakeExpenseStore{expenses: make(map[string]*types.Expense)}
}

func (f *fakeExpenseStore) CreateExpense(ctx context.Context, expense *types.Expense) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	cp := *expense
	cp.ID = id
	f.expenses[id] = &cp
	return id, nil
}

func (f *fakeExpenseStore) GetExpense(ctx context.Context, id string) (*types.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpenseStore) ListExpenses(ctx context.Context, tripID string, filter types.ExpenseFilter, sortBy types.ExpenseSortField, descending bool) ([]*types.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Expense
	for _, e := range f.expenses {
		if e.TripID == tripID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeExpenseStore) UpdateExpense(ctx context.Context, expense *types.Expense) (*types.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[expense.ID]; !ok {
		return nil, store.ErrNotFound
	}
	cp := *expense
	f.expenses[expense.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeExpenseStore) DeleteExpense(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

type fakeParticipantStore struct {
	mu           sync.Mutex
	participants map[string]*types.Participant // key tripID+":"+userID
}

func newFakeParticipantStore() *fakeParticipantStore {
	return &fakeParticipantStore{participants: make(map[string]*types.Participant)}
}

func (f *fakeParticipantStore) key(tripID, userID string) string { return tripID + ":" + userID }

func (f *fakeParticipantStore) AddParticipant(ctx context.Context, p *types.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.JoinedAt = time.Now()
	f.participants[f.key(p.TripID, p.ID)] = &cp
	return nil
}

func (f *fakeParticipantStore) GetParticipant(ctx context.Context, tripID, userID string) (*types.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[f.key(tripID, userID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeParticipantStore) ListParticipants(ctx context.Context, tripID string) ([]*types.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Participant
	for _, p := range f.participants {
		if p.TripID == tripID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeParticipantStore) DeactivateParticipant(ctx context.Context, tripID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[f.key(tripID, userID)]
	if !ok {
		return store.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakeParticipantStore) RemoveParticipant(ctx context.Context, tripID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.participants[f.key(tripID, userID)]; !ok {
		return store.ErrNotFound
	}
	delete(f.participants, f.key(tripID, userID))
	return nil
}

func newTestLedgerModel(t *testing.T, tripID string, memberIDs ...string) (*LedgerModel, *events.MockPublisher) {
	t.Helper()
	participants := newFakeParticipantStore()
	for _, id := range memberIDs {
		require.NoError(t, participants.AddParticipant(context.Background(), &types.Participant{
			ID:       id,
			TripID:   tripID,
			Name:     id,
			IsActive: true,
		}))
	}
	pub := events.NewMockPublisher()
	return NewLedgerModel(newFakeExpenseStore(), participants, pub), pub
}

func requireAppErrorType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, want, appErr.Type)
}

func equalSplitRequest(paidBy string, participants ...string) *types.CreateExpenseRequest {
	return &types.CreateExpenseRequest{
		Title:        "Harbour dinner",
		Amount:       "90.00",
		Currency:     "USD",
		Category:     types.CategoryFood,
		PaidBy:       paidBy,
		SplitType:    types.SplitEqual,
		Participants: participants,
		Date:         time.Date(2026, 7, 12, 19, 0, 0, 0, time.UTC),
	}
}

func TestLedgerModel_CreateExpense(t *testing.T) {
	ctx := context.Background()
	lm, pub := newTestLedgerModel(t, "trip-1", "alice", "bob", "cara")

	expense, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob", "cara"))
	require.NoError(t, err)
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, int64(9000), expense.Amount)
	assert.Equal(t, []types.EventType{types.EventTypeExpenseCreated}, pub.EventTypes())
}

func TestLedgerModel_CreateExpense_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("non-member caller", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice")
		_, err := lm.CreateExpense(ctx, "trip-1", "mallory", equalSplitRequest("alice", "alice"))
		requireAppErrorType(t, err, apperrors.TripAccessError)
	})

	t.Run("payer not a member", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("mallory", "alice", "bob"))
		requireAppErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("split participant not a member", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "mallory"))
		requireAppErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("zero amount", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice")
		req := equalSplitRequest("alice", "alice")
		req.Amount = "0.00"
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", req)
		requireAppErrorType(t, err, apperrors.ValidationError)
	})

	t.Run("custom shares that do not reconcile", func(t *testing.T) {
		lm, pub := newTestLedgerModel(t, "trip-1", "alice", "bob")
		req := equalSplitRequest("alice")
		req.SplitType = types.SplitCustom
		req.Participants = nil
		req.Shares = map[string]string{"alice": "50.00", "bob": "30.00"}
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", req)
		requireAppErrorType(t, err, apperrors.SplitMismatchError)
		assert.Empty(t, pub.EventTypes(), "rejected expense must not publish")
	})

	t.Run("currency mismatch with existing ledger", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob"))
		require.NoError(t, err)

		req := equalSplitRequest("alice", "alice", "bob")
		req.Currency = "EUR"
		_, err = lm.CreateExpense(ctx, "trip-1", "alice", req)
		requireAppErrorType(t, err, apperrors.ValidationError)
	})
}

func TestLedgerModel_UpdateExpense(t *testing.T) {
	ctx := context.Background()
	lm, pub := newTestLedgerModel(t, "trip-1", "alice", "bob")

	created, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob"))
	require.NoError(t, err)

	newAmount := "120.00"
	updated, err := lm.UpdateExpense(ctx, "trip-1", "alice", created.ID, &types.UpdateExpenseRequest{Amount: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), updated.Amount)
	assert.Equal(t, []types.EventType{
		types.EventTypeExpenseCreated,
		types.EventTypeExpenseUpdated,
	}, pub.EventTypes())

	t.Run("unknown expense", func(t *testing.T) {
		_, err := lm.UpdateExpense(ctx, "trip-1", "alice", "no-such-id", &types.UpdateExpenseRequest{Amount: &newAmount})
		requireAppErrorType(t, err, apperrors.NotFoundError)
	})

	t.Run("update breaking the split is rejected", func(t *testing.T) {
		shares := map[string]string{"alice": "10.00", "bob": "20.00"}
		splitType := types.SplitCustom
		_, err := lm.UpdateExpense(ctx, "trip-1", "alice", created.ID, &types.UpdateExpenseRequest{
			SplitType: &splitType,
			Shares:    shares,
		})
		requireAppErrorType(t, err, apperrors.SplitMismatchError)
	})
}

func TestLedgerModel_DeleteExpense(t *testing.T) {
	ctx := context.Background()
	lm, pub := newTestLedgerModel(t, "trip-1", "alice", "bob")

	created, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob"))
	require.NoError(t, err)

	require.NoError(t, lm.DeleteExpense(ctx, "trip-1", "alice", created.ID))
	requireAppErrorType(t, lm.DeleteExpense(ctx, "trip-1", "alice", created.ID), apperrors.NotFoundError)
	assert.Contains(t, pub.EventTypes(), types.EventTypeExpenseDeleted)
}

func TestLedgerModel_GetLedgerSummary(t *testing.T) {
	ctx := context.Background()
	lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob", "cara", "dan")

	// Alice fronts 90.00 split across three; Dan is along for the ride.
	_, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob", "cara"))
	require.NoError(t, err)

	summary, err := lm.GetLedgerSummary(ctx, "trip-1", "bob")
	require.NoError(t, err)

	assert.Equal(t, "trip-1", summary.TripID)
	assert.Equal(t, "USD", summary.Currency)
	require.Len(t, summary.Balances, 4)

	byID := make(map[string]types.MemberBalance)
	var total int64
	for _, b := range summary.Balances {
		byID[b.UserID] = b
		total += b.Net
	}
	assert.Equal(t, int64(0), total, "nets must sum to zero")
	assert.Equal(t, int64(6000), byID["alice"].Net)
	assert.Equal(t, int64(-3000), byID["bob"].Net)
	assert.Equal(t, int64(-3000), byID["cara"].Net)
	assert.Equal(t, int64(0), byID["dan"].Net)

	require.Len(t, summary.Settlements, 2)
	for _, s := range summary.Settlements {
		assert.Equal(t, "alice", s.To)
		assert.Equal(t, int64(3000), s.Amount)
	}
}

func TestLedgerModel_Members(t *testing.T) {
	ctx := context.Background()

	t.Run("remove with expense references is rejected", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		_, err := lm.CreateExpense(ctx, "trip-1", "alice", equalSplitRequest("alice", "alice", "bob"))
		require.NoError(t, err)

		requireAppErrorType(t, lm.RemoveMember(ctx, "trip-1", "alice", "bob"), apperrors.ConflictError)

		// Deactivation is the sanctioned alternative; history stays.
		require.NoError(t, lm.DeactivateMember(ctx, "trip-1", "alice", "bob"))
		summary, err := lm.GetLedgerSummary(ctx, "trip-1", "alice")
		require.NoError(t, err)
		byID := make(map[string]types.MemberBalance)
		for _, b := range summary.Balances {
			byID[b.UserID] = b
		}
		assert.Equal(t, int64(-4500), byID["bob"].Net)
	})

	t.Run("remove unreferenced member succeeds", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		require.NoError(t, lm.RemoveMember(ctx, "trip-1", "alice", "bob"))
		_, err := lm.ListExpenses(ctx, "trip-1", "bob", types.ExpenseFilter{}, types.SortByDate, false)
		requireAppErrorType(t, err, apperrors.TripAccessError)
	})

	t.Run("first member self-enrolls on an empty trip as creator", func(t *testing.T) {
		lm, pub := newTestLedgerModel(t, "trip-1")
		p, err := lm.AddMember(ctx, "trip-1", "alice", &types.AddParticipantRequest{UserID: "alice", Name: "Alice"})
		require.NoError(t, err)
		assert.True(t, p.IsCreator)
		assert.True(t, p.IsActive)
		assert.Contains(t, pub.EventTypes(), types.EventTypeMemberAdded)

		// The creator can now enroll others, who are not creators.
		bob, err := lm.AddMember(ctx, "trip-1", "alice", &types.AddParticipantRequest{UserID: "bob", Name: "Bob"})
		require.NoError(t, err)
		assert.False(t, bob.IsCreator)
	})

	t.Run("enrolling someone else on an empty trip is refused", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1")
		_, err := lm.AddMember(ctx, "trip-1", "alice", &types.AddParticipantRequest{UserID: "bob", Name: "Bob"})
		requireAppErrorType(t, err, apperrors.TripAccessError)
	})

	t.Run("non-member cannot enroll on a populated trip", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice")
		_, err := lm.AddMember(ctx, "trip-1", "mallory", &types.AddParticipantRequest{UserID: "mallory", Name: "Mallory"})
		requireAppErrorType(t, err, apperrors.TripAccessError)
	})

	t.Run("add member publishes event", func(t *testing.T) {
		lm, pub := newTestLedgerModel(t, "trip-1", "alice")
		p, err := lm.AddMember(ctx, "trip-1", "alice", &types.AddParticipantRequest{UserID: "bob", Name: "Bob"})
		require.NoError(t, err)
		assert.True(t, p.IsActive)
		assert.Contains(t, pub.EventTypes(), types.EventTypeMemberAdded)
	})

	t.Run("deactivated member loses access", func(t *testing.T) {
		lm, _ := newTestLedgerModel(t, "trip-1", "alice", "bob")
		require.NoError(t, lm.DeactivateMember(ctx, "trip-1", "alice", "bob"))
		_, err := lm.ListMembers(ctx, "trip-1", "bob")
		requireAppErrorType(t, err, apperrors.TripAccessError)
	})
}
