package postgres

import (
	"context"
	"errors"

	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/jackc/pgx/v5"
)

// ParticipantStore implements store.ParticipantStore using PostgreSQL.
type ParticipantStore struct {
	db DB
}

// NewParticipantStore creates a new ParticipantStore instance.
func NewParticipantStore(db DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

const participantColumns = `user_id, trip_id, name, email, avatar_url, is_creator, is_active, joined_at`

// AddParticipant enrolls a member, reactivating them if they were
// previously deactivated on the same trip.
func (s *ParticipantStore) AddParticipant(ctx context.Context, p *types.Participant) error {
	query := `
		INSERT INTO trip_participants (user_id, trip_id, name, email, avatar_url, is_creator, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (trip_id, user_id)
		DO UPDATE SET is_active = TRUE, name = EXCLUDED.name, email = EXCLUDED.email`

	_, err := s.db.Exec(ctx, query,
		p.ID,
		p.TripID,
		p.Name,
		p.Email,
		p.AvatarURL,
		p.IsCreator,
	)
	return err
}

// GetParticipant retrieves one member of a trip.
func (s *ParticipantStore) GetParticipant(ctx context.Context, tripID, userID string) (*types.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM trip_participants
		WHERE trip_id = $1 AND user_id = $2`

	p, err := scanParticipant(s.db.QueryRow(ctx, query, tripID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves all members of a trip, active or not,
// ordered by user ID for deterministic output.
func (s *ParticipantStore) ListParticipants(ctx context.Context, tripID string) ([]*types.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM trip_participants
		WHERE trip_id = $1
		ORDER BY user_id`

	rows, err := s.db.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*types.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// DeactivateParticipant freezes a member without deleting their row.
func (s *ParticipantStore) DeactivateParticipant(ctx context.Context, tripID, userID string) error {
	result, err := s.db.Exec(ctx, `
		UPDATE trip_participants
		SET is_active = FALSE
		WHERE trip_id = $1 AND user_id = $2`, tripID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveParticipant deletes the membership row. The model layer is
// responsible for rejecting removal while balances are open.
func (s *ParticipantStore) RemoveParticipant(ctx context.Context, tripID, userID string) error {
	result, err := s.db.Exec(ctx, `
		DELETE FROM trip_participants
		WHERE trip_id = $1 AND user_id = $2`, tripID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanParticipant(row pgx.Row) (*types.Participant, error) {
	p := &types.Participant{}
	err := row.Scan(
		&p.ID,
		&p.TripID,
		&p.Name,
		&p.Email,
		&p.AvatarURL,
		&p.IsCreator,
		&p.IsActive,
		&p.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
