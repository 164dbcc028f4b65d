package postgres

import (
	"context"
	"errors"

	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/jackc/pgx/v5"
)

// ChecklistStore implements store.ChecklistStore using PostgreSQL.
type ChecklistStore struct {
	db DB
}

// NewChecklistStore creates a new ChecklistStore instance.
func NewChecklistStore(db DB) *ChecklistStore {
	return &ChecklistStore{db: db}
}

// CreateItem inserts a checklist item and returns its generated ID.
func (s *ChecklistStore) CreateItem(ctx context.Context, item *types.ChecklistItem) (string, error) {
	query := `
		INSERT INTO checklist_items (trip_id, text, status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id string
	err := s.db.QueryRow(ctx, query,
		item.TripID,
		item.Text,
		item.Status,
		item.CreatedBy,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetItem retrieves a checklist item by ID.
func (s *ChecklistStore) GetItem(ctx context.Context, id string) (*types.ChecklistItem, error) {
	query := `
		SELECT id, trip_id, text, status, created_by, created_at, updated_at
		FROM checklist_items
		WHERE id = $1 AND deleted_at IS NULL`

	item := &types.ChecklistItem{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.TripID,
		&item.Text,
		&item.Status,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// ListItems retrieves all checklist items for a trip, newest first.
func (s *ChecklistStore) ListItems(ctx context.Context, tripID string) ([]*types.ChecklistItem, error) {
	query := `
		SELECT id, trip_id, text, status, created_by, created_at, updated_at
		FROM checklist_items
		WHERE trip_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*types.ChecklistItem
	for rows.Next() {
		item := &types.ChecklistItem{}
		err := rows.Scan(
			&item.ID,
			&item.TripID,
			&item.Text,
			&item.Status,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem applies a partial update and returns the updated item.
func (s *ChecklistStore) UpdateItem(ctx context.Context, id string, update *types.ChecklistItemUpdate) (*types.ChecklistItem, error) {
	query := `
		UPDATE checklist_items
		SET text = COALESCE($1, text),
			status = COALESCE($2, status),
			updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING id, trip_id, text, status, created_by, created_at, updated_at`

	item := &types.ChecklistItem{}
	err := s.db.QueryRow(ctx, query, update.Text, update.Status, id).Scan(
		&item.ID,
		&item.TripID,
		&item.Text,
		&item.Status,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// DeleteItem soft-deletes a checklist item.
func (s *ChecklistStore) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.Exec(ctx, `
		UPDATE checklist_items
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
