package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/errors"
	"triptrack/internal/infra/metrics"
	"triptrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTripFixture() (*memStore, usecase.TripUsecase) {
	store := newMemStore()
	logger := newDiscardLogger()
	clock := newFakeClock()
	store.now = clock.Now

	svc := NewTripService(TripServiceParams{
		TxManager: store,
		TripRepo:  store.TripRepo(),
		Audit:     newAuditRecorder(logger, clock.Now),
		Metrics:   metrics.New(),
		Logger:    logger,
	})

	return store, svc
}

func seedTrip(store *memStore, status entity.TripStatus, version int) entity.Trip {
	seededAt := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	trip := entity.Trip{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Status:      status,
		Version:     version,
		CreatedAt:   seededAt,
		UpdatedAt:   seededAt,
	}
	store.putTrip(trip)

	return trip
}

func TestTripService_CreateTrip(t *testing.T) {
	store, svc := newTripFixture()
	organizerID := uuid.New()

	trip, err := svc.CreateTrip(context.Background(), organizerID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, trip.ID)
	assert.Equal(t, organizerID, trip.OrganizerID)
	assert.Equal(t, entity.TripStatusDraft, trip.Status)
	assert.Equal(t, entity.InitialTripVersion, trip.Version)
	assert.Equal(t, *trip, store.trip(trip.ID))
	assert.Empty(t, store.auditLogs())
}

func TestTripService_GetTrip(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusReview, 2)

	trip, err := svc.GetTrip(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded, *trip)

	_, err = svc.GetTrip(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrTripNotFound)
}

func TestTripService_UpdateStatus_Success(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusSubmitted, 3)
	actor := seeded.OrganizerID

	trip, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          seeded.ID,
		Status:          entity.TripStatusVerified,
		ExpectedVersion: 3,
		ActingUserID:    actor,
		IPAddress:       "198.51.100.4",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.TripStatusVerified, trip.Status)
	assert.Equal(t, 4, trip.Version)
	assert.Equal(t, *trip, store.trip(seeded.ID))
	assert.Equal(t, seeded.CreatedAt, trip.CreatedAt)
	assert.True(t, trip.UpdatedAt.After(seeded.UpdatedAt), "response must carry the committed updated_at")

	logs := store.auditLogs()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, entity.AuditActionStatusUpdated, entry.Action)
	assert.Equal(t, entity.AuditEntityTrip, entry.EntityType)
	assert.Equal(t, seeded.ID.String(), entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, actor, *entry.UserID)
	assert.Equal(t, "198.51.100.4", entry.IPAddress)
	assert.JSONEq(t, `{"status":"SUBMITTED","version":3}`, string(entry.PreviousState))
	assert.JSONEq(t, `{"status":"VERIFIED","version":4}`, string(entry.NewState))
	assert.Nil(t, entry.Metadata)
}

func TestTripService_UpdateStatus_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		status     entity.TripStatus
		start      entity.TripStatus
		expected   int
		wantErr    error
		wantDetail string
	}{
		{
			name:       "stale version",
			start:      entity.TripStatusSubmitted,
			status:     entity.TripStatusVerified,
			expected:   2,
			wantErr:    domainerrors.ErrVersionConflict,
			wantDetail: "3",
		},
		{
			name:       "skipping a stage",
			start:      entity.TripStatusSubmitted,
			status:     entity.TripStatusPaid,
			expected:   3,
			wantErr:    domainerrors.ErrInvalidTransition,
			wantDetail: "SUBMITTED->PAID",
		},
		{
			name:       "moving backwards",
			start:      entity.TripStatusSubmitted,
			status:     entity.TripStatusDraft,
			expected:   3,
			wantErr:    domainerrors.ErrInvalidTransition,
			wantDetail: "SUBMITTED->DRAFT",
		},
		{
			name:       "leaving a terminal status",
			start:      entity.TripStatusCancelled,
			status:     entity.TripStatusDraft,
			expected:   3,
			wantErr:    domainerrors.ErrInvalidTransition,
			wantDetail: "CANCELLED->DRAFT",
		},
		{
			name:       "version checked before transition",
			start:      entity.TripStatusSubmitted,
			status:     entity.TripStatusPaid,
			expected:   7,
			wantErr:    domainerrors.ErrVersionConflict,
			wantDetail: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc := newTripFixture()
			seeded := seedTrip(store, tt.start, 3)

			_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
				TripID:          seeded.ID,
				Status:          tt.status,
				ExpectedVersion: tt.expected,
				ActingUserID:    seeded.OrganizerID,
			})

			require.ErrorIs(t, err, tt.wantErr)
			var appErr domainerrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantDetail, appErr.Details())

			assert.Equal(t, seeded, store.trip(seeded.ID))
			assert.Empty(t, store.auditLogs())
		})
	}
}

func TestTripService_UpdateStatus_NotFound(t *testing.T) {
	_, svc := newTripFixture()

	_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          uuid.New(),
		Status:          entity.TripStatusReview,
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domainerrors.ErrTripNotFound)
}

func TestTripService_UpdateStatus_UnknownStatus(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusDraft, 1)

	_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          seeded.ID,
		Status:          "ARCHIVED",
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Equal(t, seeded, store.trip(seeded.ID))
}

func TestTripService_UpdateStatus_LostRace(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusSubmitted, 3)

	store.beforeTripUpdate = func(trips map[uuid.UUID]entity.Trip) {
		trip := trips[seeded.ID]
		trip.Status = entity.TripStatusCancelled
		trip.Version = 4
		trips[seeded.ID] = trip
	}

	_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          seeded.ID,
		Status:          entity.TripStatusVerified,
		ExpectedVersion: 3,
	})

	require.ErrorIs(t, err, domainerrors.ErrVersionConflict)
	var conflict *domainerrors.VersionConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 4, conflict.CurrentVersion)
	assert.Empty(t, store.auditLogs())
}

func TestTripService_UpdateStatus_AuditFailureRollsBack(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusSubmitted, 3)
	store.failAudit = true

	_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          seeded.ID,
		Status:          entity.TripStatusVerified,
		ExpectedVersion: 3,
	})

	require.ErrorIs(t, err, errAuditFailed)
	assert.Equal(t, seeded, store.trip(seeded.ID))
}

func TestTripService_UpdateStatus_CommitFailureLeavesNoAudit(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusSubmitted, 3)
	store.failCommit = true

	_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
		TripID:          seeded.ID,
		Status:          entity.TripStatusVerified,
		ExpectedVersion: 3,
	})

	require.ErrorIs(t, err, errCommitFailed)
	assert.Equal(t, seeded, store.trip(seeded.ID))
	assert.Empty(t, store.auditLogs())
}

func TestTripService_UpdateStatus_ConcurrentWritersSameVersion(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusSubmitted, 3)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			target := entity.TripStatusVerified
			if i%2 == 1 {
				target = entity.TripStatusCancelled
			}
			_, err := svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
				TripID:          seeded.ID,
				Status:          target,
				ExpectedVersion: 3,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrVersionConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, writers-1, conflicts)
	assert.Equal(t, 4, store.trip(seeded.ID).Version)
	assert.Len(t, store.auditLogs(), 1)
}

func TestTripService_FullLifecycle(t *testing.T) {
	store, svc := newTripFixture()
	trip, err := svc.CreateTrip(context.Background(), uuid.New())
	require.NoError(t, err)

	path := []entity.TripStatus{
		entity.TripStatusReview,
		entity.TripStatusSubmitted,
		entity.TripStatusVerified,
		entity.TripStatusPaid,
		entity.TripStatusCompleted,
	}
	for _, next := range path {
		trip, err = svc.UpdateStatus(context.Background(), usecase.UpdateTripStatusInput{
			TripID:          trip.ID,
			Status:          next,
			ExpectedVersion: trip.Version,
			ActingUserID:    trip.OrganizerID,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, entity.TripStatusCompleted, trip.Status)
	assert.Equal(t, len(path)+1, trip.Version)
	assert.Len(t, store.auditLogs(), len(path))
}

func TestTripService_ListTripAudit(t *testing.T) {
	store, svc := newTripFixture()
	seeded := seedTrip(store, entity.TripStatusDraft, 1)
	other := seedTrip(store, entity.TripStatusDraft, 1)
	ctx := context.Background()

	for i, status := range []entity.TripStatus{entity.TripStatusReview, entity.TripStatusSubmitted} {
		_, err := svc.UpdateStatus(ctx, usecase.UpdateTripStatusInput{
			TripID: seeded.ID, Status: status, ExpectedVersion: i + 1, ActingUserID: seeded.OrganizerID,
		})
		require.NoError(t, err)
	}
	_, err := svc.UpdateStatus(ctx, usecase.UpdateTripStatusInput{
		TripID: other.ID, Status: entity.TripStatusCancelled, ExpectedVersion: 1, ActingUserID: other.OrganizerID,
	})
	require.NoError(t, err)

	logs, err := svc.ListTripAudit(ctx, seeded.ID)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, seeded.ID.String(), l.EntityID)
		assert.Equal(t, entity.AuditActionStatusUpdated, l.Action)
	}
	assert.JSONEq(t, `{"status":"REVIEW","version":2}`, string(logs[0].NewState))
	assert.JSONEq(t, `{"status":"SUBMITTED","version":3}`, string(logs[1].NewState))

	logs, err = svc.ListTripAudit(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, logs)
}
