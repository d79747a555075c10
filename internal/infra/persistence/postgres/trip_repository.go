package postgres

import (
	"context"

	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/errors"
	"triptrack/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) repository.TripRepository {
	return &tripRepository{db: db}
}

func (repo *tripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	tripM := fromTripDomain(trip)

	if err := repo.db.WithContext(ctx).Create(tripM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("organizer does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create trip")
	}

	trip.CreatedAt = tripM.CreatedAt
	trip.UpdatedAt = tripM.UpdatedAt

	return nil
}

func (repo *tripRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	var tripM model.TripModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&tripM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrTripNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find trip by id")
	}

	return toTripDomain(&tripM), nil
}

// UpdateStatus is a compare-and-swap on the version column.
func (repo *tripRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status entity.TripStatus) (bool, error) {
	result := repo.db.WithContext(ctx).Model(&model.TripModel{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"status":  status.String(),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to update trip status")
	}

	return result.RowsAffected == 1, nil
}

func toTripDomain(data *model.TripModel) *entity.Trip {
	return &entity.Trip{
		ID:          data.ID,
		OrganizerID: data.OrganizerID,
		Status:      entity.TripStatus(data.Status),
		Version:     data.Version,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromTripDomain(data *entity.Trip) *model.TripModel {
	return &model.TripModel{
		ID:          data.ID,
		OrganizerID: data.OrganizerID,
		Status:      data.Status.String(),
		Version:     data.Version,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
