package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockParticipantStore(t *testing.T) (*ParticipantStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewParticipantStore(mock), mock
}

func TestParticipantStore_AddParticipant_Upsert(t *testing.T) {
	s, mock := newMockParticipantStore(t)

	mock.ExpectExec("INSERT INTO trip_participants").
		WithArgs("user-a", "trip-1", "Alice", "alice@example.com", "", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AddParticipant(context.Background(), &types.Participant{
		ID:     "user-a",
		TripID: "trip-1",
		Name:   "Alice",
		Email:  "alice@example.com",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantStore_GetParticipant(t *testing.T) {
	s, mock := newMockParticipantStore(t)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trip_participants").
			WithArgs("trip-1", "user-a").
			WillReturnRows(participantRows().AddRow(
				"user-a", "trip-1", "Alice", "alice@example.com", "", true, true, now,
			))

		p, err := s.GetParticipant(context.Background(), "trip-1", "user-a")
		require.NoError(t, err)
		assert.Equal(t, "Alice", p.Name)
		assert.True(t, p.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trip_participants").
			WithArgs("trip-1", "ghost").
			WillReturnRows(participantRows())

		_, err := s.GetParticipant(context.Background(), "trip-1", "ghost")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantStore_ListParticipants(t *testing.T) {
	s, mock := newMockParticipantStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM trip_participants WHERE trip_id = \$1 ORDER BY user_id`).
		WithArgs("trip-1").
		WillReturnRows(participantRows().
			AddRow("user-a", "trip-1", "Alice", "", "", true, true, now).
			AddRow("user-b", "trip-1", "Bob", "", "", false, false, now))

	participants, err := s.ListParticipants(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "user-a", participants[0].ID)
	assert.False(t, participants[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantStore_DeactivateAndRemove(t *testing.T) {
	s, mock := newMockParticipantStore(t)

	t.Run("deactivate", func(t *testing.T) {
		mock.ExpectExec("UPDATE trip_participants SET is_active = FALSE").
			WithArgs("trip-1", "user-b").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, s.DeactivateParticipant(context.Background(), "trip-1", "user-b"))
	})

	t.Run("deactivate unknown", func(t *testing.T) {
		mock.ExpectExec("UPDATE trip_participants SET is_active = FALSE").
			WithArgs("trip-1", "ghost").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		assert.ErrorIs(t, s.DeactivateParticipant(context.Background(), "trip-1", "ghost"), store.ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM trip_participants").
			WithArgs("trip-1", "user-b").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		assert.NoError(t, s.RemoveParticipant(context.Background(), "trip-1", "user-b"))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func participantRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"user_id", "trip_id", "name", "email", "avatar_url", "is_creator", "is_active", "joined_at",
	})
}
