// Package store defines the persistence interfaces the business layer
// depends on. Implementations live in subpackages.
package store

import (
	"context"

	"github.com/TripTally/trip-tally-backend/types"
)

// ExpenseStore persists trip expenses together with their split detail.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *types.Expense) (string, error)
	GetExpense(ctx context.Context, id string) (*types.Expense, error)
	ListExpenses(ctx context.Context, tripID string, filter types.ExpenseFilter, sortBy types.ExpenseSortField, descending bool) ([]*types.Expense, error)
	UpdateExpense(ctx context.Context, expense *types.Expense) (*types.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// ParticipantStore persists trip ledger membership.
type ParticipantStore interface {
	AddParticipant(ctx context.Context, participant *types.Participant) error
	GetParticipant(ctx context.Context, tripID, userID string) (*types.Participant, error)
	ListParticipants(ctx context.Context, tripID string) ([]*types.Participant, error)
	DeactivateParticipant(ctx context.Context, tripID, userID string) error
	RemoveParticipant(ctx context.Context, tripID, userID string) error
}

// ChecklistStore persists shared trip checklist items.
type ChecklistStore interface {
	CreateItem(ctx context.Context, item *types.ChecklistItem) (string, error)
	GetItem(ctx context.Context, id string) (*types.ChecklistItem, error)
	ListItems(ctx context.Context, tripID string) ([]*types.ChecklistItem, error)
	UpdateItem(ctx context.Context, id string, update *types.ChecklistItemUpdate) (*types.ChecklistItem, error)
	DeleteItem(ctx context.Context, id string) error
}
