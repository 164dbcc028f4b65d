package ledger

import (
	"testing"
	"time"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, memberIDs ...string) *Ledger {
	t.Helper()
	l := New("trip-1", "USD")
	for _, id := range memberIDs {
		require.NoError(t, l.AddParticipant(&types.Participant{ID: id, Name: id}))
	}
	return l
}

func validExpense(paidBy string, amount int64, participants ...string) *types.Expense {
	return &types.Expense{
		Title:        "Dinner",
		Amount:       amount,
		Currency:     "USD",
		Category:     types.CategoryFood,
		PaidBy:       paidBy,
		SplitType:    types.SplitEqual,
		Participants: participants,
	}
}

func TestLedger_AddExpense(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b")

	t.Run("assigns an ID and timestamps", func(t *testing.T) {
		created, err := l.AddExpense(validExpense("user-a", 2000, "user-a", "user-b"))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "trip-1", created.TripID)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := l.AddExpense(validExpense("user-a", 0, "user-a"))
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})

	t.Run("rejects unknown payer", func(t *testing.T) {
		_, err := l.AddExpense(validExpense("stranger", 2000, "user-a"))
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})

	t.Run("rejects unknown split participant", func(t *testing.T) {
		_, err := l.AddExpense(validExpense("user-a", 2000, "user-a", "stranger"))
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})

	t.Run("rejects irreconcilable custom split", func(t *testing.T) {
		e := validExpense("user-a", 2000)
		e.SplitType = types.SplitCustom
		e.Shares = map[string]int64{"user-a": 500, "user-b": 500}
		_, err := l.AddExpense(e)
		require.Error(t, err)
		assertErrorType(t, err, errors.SplitMismatchError)
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		e := validExpense("user-a", 2000, "user-a")
		e.Currency = "EUR"
		_, err := l.AddExpense(e)
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})
}

func TestLedger_RemoveExpense(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b")
	created, err := l.AddExpense(validExpense("user-a", 2000, "user-a", "user-b"))
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		err := l.RemoveExpense("nope")
		require.Error(t, err)
		assertErrorType(t, err, errors.NotFoundError)
	})

	t.Run("removal changes recomputed balances", func(t *testing.T) {
		before, err := l.Balances()
		require.NoError(t, err)
		assert.Equal(t, int64(1000), before["user-a"].Net)

		require.NoError(t, l.RemoveExpense(created.ID))

		after, err := l.Balances()
		require.NoError(t, err)
		assert.Empty(t, after, "balances must reflect the removal immediately")
	})
}

func TestLedger_UpdateExpense(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b")
	created, err := l.AddExpense(validExpense("user-a", 2000, "user-a", "user-b"))
	require.NoError(t, err)

	t.Run("revalidates the split", func(t *testing.T) {
		updated := *created
		updated.SplitType = types.SplitCustom
		updated.Shares = map[string]int64{"user-a": 100}
		_, err := l.UpdateExpense(&updated)
		require.Error(t, err)
		assertErrorType(t, err, errors.SplitMismatchError)
	})

	t.Run("applies valid changes", func(t *testing.T) {
		updated := *created
		updated.Amount = 3000
		got, err := l.UpdateExpense(&updated)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), got.Amount)
		assert.Equal(t, created.CreatedAt, got.CreatedAt)
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := *created
		missing.ID = "nope"
		_, err := l.UpdateExpense(&missing)
		require.Error(t, err)
		assertErrorType(t, err, errors.NotFoundError)
	})
}

func TestLedger_ListExpenses(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b")

	mk := func(title string, amount int64, category types.ExpenseCategory, day int) {
		e := validExpense("user-a", amount, "user-a", "user-b")
		e.Title = title
		e.Category = category
		e.Date = time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC)
		_, err := l.AddExpense(e)
		require.NoError(t, err)
	}
	mk("Hotel night", 12000, types.CategoryAccommodation, 3)
	mk("Street food", 1500, types.CategoryFood, 1)
	mk("Kayak tour", 5400, types.CategoryActivities, 2)

	t.Run("filter by category", func(t *testing.T) {
		got := l.ListExpenses(types.ExpenseFilter{Category: types.CategoryFood}, types.SortByDate, false)
		require.Len(t, got, 1)
		assert.Equal(t, "Street food", got[0].Title)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		got := l.ListExpenses(types.ExpenseFilter{SearchText: "kAyAk"}, types.SortByDate, false)
		require.Len(t, got, 1)
		assert.Equal(t, "Kayak tour", got[0].Title)
	})

	t.Run("sort by amount descending", func(t *testing.T) {
		got := l.ListExpenses(types.ExpenseFilter{}, types.SortByAmount, true)
		require.Len(t, got, 3)
		assert.Equal(t, int64(12000), got[0].Amount)
		assert.Equal(t, int64(1500), got[2].Amount)
	})

	t.Run("sort by date ascending", func(t *testing.T) {
		got := l.ListExpenses(types.ExpenseFilter{}, types.SortByDate, false)
		require.Len(t, got, 3)
		assert.Equal(t, "Street food", got[0].Title)
		assert.Equal(t, "Hotel night", got[2].Title)
	})
}

func TestLedger_ParticipantLifecycle(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b", "user-c")

	t.Run("duplicate enrollment is a conflict", func(t *testing.T) {
		err := l.AddParticipant(&types.Participant{ID: "user-a", Name: "A"})
		require.Error(t, err)
		assertErrorType(t, err, errors.ConflictError)
	})

	t.Run("removal with open balance is rejected", func(t *testing.T) {
		_, err := l.AddExpense(validExpense("user-a", 3000, "user-a", "user-b", "user-c"))
		require.NoError(t, err)

		err = l.RemoveParticipant("user-b")
		require.Error(t, err)
		assertErrorType(t, err, errors.ConflictError)
	})

	t.Run("deactivation always succeeds and preserves balances", func(t *testing.T) {
		require.NoError(t, l.DeactivateParticipant("user-b"))

		p, err := l.Participant("user-b")
		require.NoError(t, err)
		assert.False(t, p.IsActive)

		balances, err := l.Balances()
		require.NoError(t, err)
		assert.Equal(t, int64(-1000), balances["user-b"].Net)
	})

	t.Run("clean member can be removed", func(t *testing.T) {
		require.NoError(t, l.AddParticipant(&types.Participant{ID: "user-d", Name: "D"}))
		require.NoError(t, l.RemoveParticipant("user-d"))
		_, err := l.Participant("user-d")
		assertErrorType(t, err, errors.NotFoundError)
	})

	t.Run("removing unknown participant", func(t *testing.T) {
		err := l.RemoveParticipant("ghost")
		assertErrorType(t, err, errors.NotFoundError)
	})
}

func TestLedger_Summary(t *testing.T) {
	l := newTestLedger(t, "user-a", "user-b", "user-c")
	_, err := l.AddExpense(validExpense("user-a", 9000, "user-a", "user-b", "user-c"))
	require.NoError(t, err)

	summary, err := l.Summary()
	require.NoError(t, err)

	assert.Equal(t, "trip-1", summary.TripID)
	assert.Equal(t, "USD", summary.Currency)
	require.Len(t, summary.Balances, 3)
	assert.Equal(t, "user-a", summary.Balances[0].UserID)
	assert.Equal(t, int64(6000), summary.Balances[0].Net)

	require.Len(t, summary.Settlements, 2)
	assert.Equal(t, types.Settlement{From: "user-b", To: "user-a", Amount: 3000}, summary.Settlements[0])
	assert.Equal(t, types.Settlement{From: "user-c", To: "user-a", Amount: 3000}, summary.Settlements[1])
}
