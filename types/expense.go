package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory enumerates the spending categories shown in the app.
type ExpenseCategory string

const (
	CategoryAccommodation  ExpenseCategory = "Accommodation"
	CategoryFood           ExpenseCategory = "Food"
	CategoryActivities     ExpenseCategory = "Activities"
	CategoryTransportation ExpenseCategory = "Transportation"
	CategoryOther          ExpenseCategory = "Other"
)

// ValidCategory reports whether c is a known expense category.
func ValidCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryAccommodation, CategoryFood, CategoryActivities,
		CategoryTransportation, CategoryOther:
		return true
	}
	return false
}

// SplitType selects how an expense amount is divided among participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitCustom     SplitType = "custom"
)

// Expense represents a shared expense within a trip. Amount and all
// shares are integer minor currency units (e.g. cents); presentation
// layers convert to display strings.
type Expense struct {
	ID       string          `json:"id"`
	TripID   string          `json:"tripId"`
	Title    string          `json:"title"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Category ExpenseCategory `json:"category"`
	PaidBy   string          `json:"paidBy"`

	SplitType SplitType `json:"splitType"`
	// Participants lists who shares the expense. Required for equal
	// splits; for percentage and custom splits it is derived from the
	// keys of Weights / Shares.
	Participants []string `json:"participants,omitempty"`
	// Weights maps participant ID to their fraction of the amount for
	// percentage splits. Fractions must sum to exactly 1.
	Weights map[string]decimal.Decimal `json:"weights,omitempty"`
	// Shares maps participant ID to their exact owed amount in minor
	// units for custom splits. Shares must sum to exactly Amount.
	Shares map[string]int64 `json:"shares,omitempty"`

	Date       time.Time `json:"date"`
	Notes      string    `json:"notes,omitempty"`
	ReceiptURL string    `json:"receiptUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SplitParticipants returns the IDs of everyone sharing the expense,
// whichever split type is in use.
func (e *Expense) SplitParticipants() []string {
	switch e.SplitType {
	case SplitPercentage:
		ids := make([]string, 0, len(e.Weights))
		for id := range e.Weights {
			ids = append(ids, id)
		}
		return ids
	case SplitCustom:
		ids := make([]string, 0, len(e.Shares))
		for id := range e.Shares {
			ids = append(ids, id)
		}
		return ids
	default:
		return e.Participants
	}
}

// CreateExpenseRequest is the payload for recording a new expense.
// Amount is a decimal string ("42.00") converted to minor units by the
// handler.
type CreateExpenseRequest struct {
	Title        string                     `json:"title" binding:"required"`
	Amount       string                     `json:"amount" binding:"required"`
	Currency     string                     `json:"currency" binding:"required"`
	Category     ExpenseCategory            `json:"category" binding:"required"`
	PaidBy       string                     `json:"paidBy" binding:"required"`
	SplitType    SplitType                  `json:"splitType" binding:"required"`
	Participants []string                   `json:"participants,omitempty"`
	Weights      map[string]decimal.Decimal `json:"weights,omitempty"`
	Shares       map[string]string          `json:"shares,omitempty"`
	Date         time.Time                  `json:"date"`
	Notes        string                     `json:"notes"`
	ReceiptURL   string                     `json:"receiptUrl"`
}

// UpdateExpenseRequest carries partial updates to an expense. A nil
// field leaves the stored value untouched; changing any split field
// re-validates the whole split.
type UpdateExpenseRequest struct {
	Title        *string                    `json:"title,omitempty"`
	Amount       *string                    `json:"amount,omitempty"`
	Category     *ExpenseCategory           `json:"category,omitempty"`
	PaidBy       *string                    `json:"paidBy,omitempty"`
	SplitType    *SplitType                 `json:"splitType,omitempty"`
	Participants []string                   `json:"participants,omitempty"`
	Weights      map[string]decimal.Decimal `json:"weights,omitempty"`
	Shares       map[string]string          `json:"shares,omitempty"`
	Date         *time.Time                 `json:"date,omitempty"`
	Notes        *string                    `json:"notes,omitempty"`
	ReceiptURL   *string                    `json:"receiptUrl,omitempty"`
}

// ExpenseSortField selects the ordering of expense listings.
type ExpenseSortField string

const (
	SortByDate   ExpenseSortField = "date"
	SortByAmount ExpenseSortField = "amount"
)

// ExpenseFilter narrows an expense listing. Zero values match everything.
type ExpenseFilter struct {
	Category   ExpenseCategory
	SearchText string
}
