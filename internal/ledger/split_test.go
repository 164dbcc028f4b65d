package ledger

import (
	"testing"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weight(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolveShares_Equal(t *testing.T) {
	t.Run("even division", func(t *testing.T) {
		shares, err := ResolveShares(&types.Expense{
			Amount:       9000,
			SplitType:    types.SplitEqual,
			Participants: []string{"user-a", "user-b", "user-c"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{
			"user-a": 3000,
			"user-b": 3000,
			"user-c": 3000,
		}, shares)
	})

	t.Run("remainder goes to lowest participant IDs", func(t *testing.T) {
		shares, err := ResolveShares(&types.Expense{
			Amount:       100,
			SplitType:    types.SplitEqual,
			Participants: []string{"user-c", "user-a", "user-b"},
		})
		require.NoError(t, err)
		// 100 / 3 = 33 remainder 1; the extra cent lands on user-a.
		assert.Equal(t, int64(34), shares["user-a"])
		assert.Equal(t, int64(33), shares["user-b"])
		assert.Equal(t, int64(33), shares["user-c"])
	})

	t.Run("shares always reconstruct the total", func(t *testing.T) {
		participants := []string{"a", "b", "c", "d", "e", "f", "g"}
		for _, amount := range []int64{1, 7, 99, 100, 101, 12345, 999999} {
			shares, err := ResolveShares(&types.Expense{
				Amount:       amount,
				SplitType:    types.SplitEqual,
				Participants: participants,
			})
			require.NoError(t, err)

			var sum int64
			for _, s := range shares {
				assert.GreaterOrEqual(t, s, int64(0))
				sum += s
			}
			assert.Equal(t, amount, sum, "amount %d", amount)
		}
	})

	t.Run("duplicate participant rejected", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:       100,
			SplitType:    types.SplitEqual,
			Participants: []string{"user-a", "user-a"},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})

	t.Run("no participants rejected", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:    100,
			SplitType: types.SplitEqual,
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})
}

func TestResolveShares_Percentage(t *testing.T) {
	t.Run("exact weights", func(t *testing.T) {
		shares, err := ResolveShares(&types.Expense{
			Amount:    10000,
			SplitType: types.SplitPercentage,
			Weights: map[string]decimal.Decimal{
				"user-a": weight("0.5"),
				"user-b": weight("0.3"),
				"user-c": weight("0.2"),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{
			"user-a": 5000,
			"user-b": 3000,
			"user-c": 2000,
		}, shares)
	})

	t.Run("largest remainder correction", func(t *testing.T) {
		// 100 cents at a third each: floors are 33/33/33, one cent left
		// over, and all remainders tie, so the lowest ID gets it.
		shares, err := ResolveShares(&types.Expense{
			Amount:    100,
			SplitType: types.SplitPercentage,
			Weights: map[string]decimal.Decimal{
				"user-a": weight("0.3334"),
				"user-b": weight("0.3333"),
				"user-c": weight("0.3333"),
			},
		})
		require.NoError(t, err)

		var sum int64
		for _, s := range shares {
			sum += s
		}
		assert.Equal(t, int64(100), sum)
		assert.Equal(t, int64(34), shares["user-a"])
	})

	t.Run("weights not summing to 1 rejected", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:    100,
			SplitType: types.SplitPercentage,
			Weights: map[string]decimal.Decimal{
				"user-a": weight("0.5"),
				"user-b": weight("0.4"),
			},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.SplitMismatchError)
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:    100,
			SplitType: types.SplitPercentage,
			Weights: map[string]decimal.Decimal{
				"user-a": weight("1.5"),
				"user-b": weight("-0.5"),
			},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})
}

func TestResolveShares_Custom(t *testing.T) {
	t.Run("exact shares accepted", func(t *testing.T) {
		shares, err := ResolveShares(&types.Expense{
			Amount:    5000,
			SplitType: types.SplitCustom,
			Shares: map[string]int64{
				"user-a": 2000,
				"user-b": 2000,
				"user-c": 1000,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), shares["user-a"])
		assert.Equal(t, int64(1000), shares["user-c"])
	})

	t.Run("mismatched shares rejected, never scaled", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:    5000,
			SplitType: types.SplitCustom,
			Shares: map[string]int64{
				"user-a": 2000,
				"user-b": 2000,
			},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.SplitMismatchError)
	})

	t.Run("negative share rejected", func(t *testing.T) {
		_, err := ResolveShares(&types.Expense{
			Amount:    1000,
			SplitType: types.SplitCustom,
			Shares: map[string]int64{
				"user-a": 2000,
				"user-b": -1000,
			},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	})
}

func TestResolveShares_InvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -100} {
		_, err := ResolveShares(&types.Expense{
			Amount:       amount,
			SplitType:    types.SplitEqual,
			Participants: []string{"user-a"},
		})
		require.Error(t, err)
		assertErrorType(t, err, errors.ValidationError)
	}
}

func assertErrorType(t *testing.T, err error, want errors.ErrorType) {
	t.Helper()
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok, "expected *errors.AppError, got %T", err)
	assert.Equal(t, want, appErr.Type)
}
