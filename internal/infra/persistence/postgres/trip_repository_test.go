package postgres

import (
	"context"
	"testing"
	"time"

	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tripColumns = []string{"id", "organizer_id", "status", "version", "created_at", "updated_at"}

func TestTripRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	id, organizer := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "trips" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows(tripColumns).AddRow(id.String(), organizer.String(), "SUBMITTED", 3, now, now))

	trip, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, trip.ID)
	assert.Equal(t, organizer, trip.OrganizerID)
	assert.Equal(t, entity.TripStatusSubmitted, trip.Status)
	assert.Equal(t, 3, trip.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "trips" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(tripColumns))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrTripNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepository_FindByID_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "trips"`).WillReturnError(boom)

	_, err := repo.FindByID(context.Background(), uuid.New())
	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
	assert.ErrorIs(t, err, boom)
}

func TestTripRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	mock.ExpectExec(`INSERT INTO "trips"`).WillReturnResult(sqlmock.NewResult(0, 1))

	trip := &entity.Trip{OrganizerID: uuid.New(), Status: entity.TripStatusDraft, Version: entity.InitialTripVersion}
	require.NoError(t, repo.Create(context.Background(), trip))
	assert.NotEqual(t, uuid.Nil, trip.ID)
	assert.False(t, trip.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepository_UpdateStatus_CompareAndSwap(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "version matches", affected: 1, want: true},
		{name: "stale version", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewTripRepository(db)

			mock.ExpectExec(`UPDATE "trips" SET .*"version"=version \+ 1.* WHERE id = \$\d+ AND version = \$\d+`).
				WithArgs("REVIEW", sqlmock.AnyArg(), id, 1).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.UpdateStatus(context.Background(), id, 1, entity.TripStatusReview)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
