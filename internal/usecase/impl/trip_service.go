package impl

import (
	"context"
	"log/slog"

	deliverycontext "triptrack/internal/delivery/context"
	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/errors"
	"triptrack/internal/infra/metrics"
	"triptrack/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// Rejection reasons exported as metric labels.
const (
	rejectVersionMismatch   = "version_mismatch"
	rejectInvalidTransition = "invalid_transition"
	rejectConcurrentUpdate  = "concurrent_update"
)

// tripService implements the TripUsecase interface.
type tripService struct {
	txManager repository.TransactionManager
	tripRepo  repository.TripRepository
	audit     usecase.AuditRecorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// TripServiceParams holds dependencies for TripService, injected by Fx.
type TripServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	TripRepo  repository.TripRepository
	Audit     usecase.AuditRecorder
	Metrics   *metrics.Metrics `optional:"true"`
	Logger    *slog.Logger
}

// NewTripService is the constructor for tripService.
func NewTripService(params TripServiceParams) usecase.TripUsecase {
	return &tripService{
		txManager: params.TxManager,
		tripRepo:  params.TripRepo,
		audit:     params.Audit,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}
}

func (srv *tripService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateTrip stores a DRAFT trip at the initial version owned by organizerID.
func (srv *tripService) CreateTrip(ctx context.Context, organizerID uuid.UUID) (*entity.Trip, error) {
	trip := &entity.Trip{
		OrganizerID: organizerID,
		Status:      entity.TripStatusDraft,
		Version:     entity.InitialTripVersion,
	}
	if err := srv.tripRepo.Create(ctx, trip); err != nil {
		return nil, errors.Wrap(err, "failed to create trip")
	}

	srv.log(ctx).Info("Trip created", slog.Any("tripID", trip.ID), slog.Any("organizerID", organizerID))

	return trip, nil
}

func (srv *tripService) GetTrip(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	trip, err := srv.tripRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get trip")
	}

	return trip, nil
}

// UpdateStatus applies one lifecycle transition guarded by the caller's expected version.
// The status change and its STATUS_UPDATED entry commit together or not at all.
func (srv *tripService) UpdateStatus(ctx context.Context, input usecase.UpdateTripStatusInput) (*entity.Trip, error) {
	var (
		updated  *entity.Trip
		previous entity.TripSnapshot
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tripRepo := repoFactory.TripRepo()

		current, err := tripRepo.FindByID(ctx, input.TripID)
		if err != nil {
			return errors.Wrap(err, "failed to load trip")
		}

		if current.Version != input.ExpectedVersion {
			srv.metrics.TripRejection(rejectVersionMismatch)

			return domainerrors.NewVersionConflictError(current.Version)
		}
		// Unknown target statuses have no edge in the graph either.
		if !entity.CanTransition(current.Status, input.Status) {
			srv.metrics.TripRejection(rejectInvalidTransition)

			return domainerrors.NewInvalidTransitionError(current.Status, input.Status)
		}

		ok, err := tripRepo.UpdateStatus(ctx, current.ID, input.ExpectedVersion, input.Status)
		if err != nil {
			return errors.Wrap(err, "failed to update trip status")
		}
		if !ok {
			srv.metrics.TripRejection(rejectConcurrentUpdate)

			return srv.concurrentUpdateConflict(ctx, tripRepo, current)
		}

		// Reload so the caller sees the row as committed, updated_at included.
		updated, err = tripRepo.FindByID(ctx, current.ID)
		if err != nil {
			return errors.Wrap(err, "failed to reload trip")
		}
		previous = current.Snapshot()

		return srv.audit.Record(ctx, repoFactory, usecase.AuditEvent{
			Action:        entity.AuditActionStatusUpdated,
			UserID:        &input.ActingUserID,
			IPAddress:     input.IPAddress,
			UserAgent:     input.UserAgent,
			EntityType:    entity.AuditEntityTrip,
			EntityID:      current.ID.String(),
			PreviousState: previous,
			NewState:      updated.Snapshot(),
		})
	})
	if err != nil {
		srv.log(ctx).Warn("Trip status update rejected",
			slog.Any("tripID", input.TripID),
			slog.String("status", input.Status.String()),
			slog.Int("expectedVersion", input.ExpectedVersion),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to execute trip status transaction")
	}

	srv.metrics.TripTransition(previous.Status.String(), updated.Status.String())
	srv.log(ctx).Info("Trip status updated",
		slog.Any("tripID", updated.ID),
		slog.String("from", previous.Status.String()),
		slog.String("to", updated.Status.String()),
		slog.Int("version", updated.Version),
	)

	return updated, nil
}

func (srv *tripService) ListTripAudit(ctx context.Context, tripID uuid.UUID) ([]*entity.AuditLog, error) {
	var logs []*entity.AuditLog
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		logs, err = repoFactory.AuditRepo().ListByEntity(ctx, entity.AuditEntityTrip, tripID.String())

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trip audit")
	}

	return logs, nil
}

// concurrentUpdateConflict reports the version a competing writer left behind.
func (srv *tripService) concurrentUpdateConflict(ctx context.Context, tripRepo repository.TripRepository, stale *entity.Trip) error {
	reloaded, err := tripRepo.FindByID(ctx, stale.ID)
	if err != nil {
		return errors.Wrap(err, "failed to reload trip after conflict")
	}

	return domainerrors.NewVersionConflictError(reloaded.Version)
}
