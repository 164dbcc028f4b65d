package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ExpenseStore implements store.ExpenseStore using PostgreSQL. Expenses
// live in an `expenses` row plus child `expense_splits` rows carrying
// the per-participant split detail.
type ExpenseStore struct {
	db DB
}

// NewExpenseStore creates a new ExpenseStore instance.
func NewExpenseStore(db DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

const expenseColumns = `id, trip_id, title, amount, currency, category, paid_by,
		split_type, date, notes, receipt_url, created_at, updated_at`

// CreateExpense inserts the expense and its split rows in one
// transaction and returns the generated ID.
func (s *ExpenseStore) CreateExpense(ctx context.Context, expense *types.Expense) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO expenses (trip_id, title, amount, currency, category, paid_by,
			split_type, date, notes, receipt_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id string
	err = tx.QueryRow(ctx, query,
		expense.TripID,
		expense.Title,
		expense.Amount,
		expense.Currency,
		expense.Category,
		expense.PaidBy,
		expense.SplitType,
		expense.Date,
		expense.Notes,
		expense.ReceiptURL,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	if err := insertSplits(ctx, tx, id, expense); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// GetExpense retrieves an expense with its split detail.
func (s *ExpenseStore) GetExpense(ctx context.Context, id string) (*types.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL`

	expense, err := scanExpense(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := s.loadSplits(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses retrieves a trip's expenses with filtering and ordering
// pushed down to SQL.
func (s *ExpenseStore) ListExpenses(ctx context.Context, tripID string, filter types.ExpenseFilter, sortBy types.ExpenseSortField, descending bool) ([]*types.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE trip_id = $1 AND deleted_at IS NULL`
	args := []any{tripID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.SearchText != "" {
		args = append(args, "%"+filter.SearchText+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR notes ILIKE $%d)", len(args), len(args))
	}

	column := "date"
	if sortBy == types.SortByAmount {
		column = "amount"
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*types.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, expense := range expenses {
		if err := s.loadSplits(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// UpdateExpense rewrites the expense row and replaces its split rows.
func (s *ExpenseStore) UpdateExpense(ctx context.Context, expense *types.Expense) (*types.Expense, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE expenses
		SET title = $1, amount = $2, currency = $3, category = $4, paid_by = $5,
			split_type = $6, date = $7, notes = $8, receipt_url = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL
		RETURNING ` + expenseColumns

	updated, err := scanExpense(tx.QueryRow(ctx, query,
		expense.Title,
		expense.Amount,
		expense.Currency,
		expense.Category,
		expense.PaidBy,
		expense.SplitType,
		expense.Date,
		expense.Notes,
		expense.ReceiptURL,
		expense.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expense.ID); err != nil {
		return nil, err
	}
	if err := insertSplits(ctx, tx, expense.ID, expense); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	updated.Participants = expense.Participants
	updated.Weights = expense.Weights
	updated.Shares = expense.Shares
	return updated, nil
}

// DeleteExpense soft-deletes an expense. Split rows stay in place so a
// deleted expense can still be audited.
func (s *ExpenseStore) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.Exec(ctx, `
		UPDATE expenses
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func insertSplits(ctx context.Context, tx pgx.Tx, expenseID string, expense *types.Expense) error {
	query := `
		INSERT INTO expense_splits (expense_id, user_id, share, weight)
		VALUES ($1, $2, $3, $4)`

	switch expense.SplitType {
	case types.SplitPercentage:
		for userID, w := range expense.Weights {
			if _, err := tx.Exec(ctx, query, expenseID, userID, nil, w.String()); err != nil {
				return err
			}
		}
	case types.SplitCustom:
		for userID, share := range expense.Shares {
			if _, err := tx.Exec(ctx, query, expenseID, userID, share, nil); err != nil {
				return err
			}
		}
	default:
		for _, userID := range expense.Participants {
			if _, err := tx.Exec(ctx, query, expenseID, userID, nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ExpenseStore) loadSplits(ctx context.Context, expense *types.Expense) error {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, share, weight
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY user_id`, expense.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var share *int64
		var weightStr *string
		if err := rows.Scan(&userID, &share, &weightStr); err != nil {
			return err
		}

		switch expense.SplitType {
		case types.SplitPercentage:
			if weightStr == nil {
				return fmt.Errorf("expense %s: percentage split row for %s has no weight", expense.ID, userID)
			}
			w, err := decimal.NewFromString(*weightStr)
			if err != nil {
				return fmt.Errorf("expense %s: bad weight for %s: %w", expense.ID, userID, err)
			}
			if expense.Weights == nil {
				expense.Weights = make(map[string]decimal.Decimal)
			}
			expense.Weights[userID] = w
		case types.SplitCustom:
			if share == nil {
				return fmt.Errorf("expense %s: custom split row for %s has no share", expense.ID, userID)
			}
			if expense.Shares == nil {
				expense.Shares = make(map[string]int64)
			}
			expense.Shares[userID] = *share
		default:
			expense.Participants = append(expense.Participants, userID)
		}
	}
	return rows.Err()
}

func scanExpense(row pgx.Row) (*types.Expense, error) {
	expense := &types.Expense{}
	err := row.Scan(
		&expense.ID,
		&expense.TripID,
		&expense.Title,
		&expense.Amount,
		&expense.Currency,
		&expense.Category,
		&expense.PaidBy,
		&expense.SplitType,
		&expense.Date,
		&expense.Notes,
		&expense.ReceiptURL,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return expense, nil
}
