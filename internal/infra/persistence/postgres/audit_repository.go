package postgres

import (
	"context"

	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// auditRepository only inserts and reads; the table rejects UPDATE and DELETE by trigger.
type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if err := repo.db.WithContext(ctx).Create(fromAuditDomain(log)).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to write audit log")
	}

	return nil
}

func (repo *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditLog, error) {
	var rows []*model.AuditLogModel
	err := repo.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list audit logs by entity")
	}

	return toAuditDomainList(rows), nil
}

func (repo *auditRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.AuditLog, error) {
	var rows []*model.AuditLogModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list audit logs by user")
	}

	return toAuditDomainList(rows), nil
}

func toAuditDomainList(rows []*model.AuditLogModel) []*entity.AuditLog {
	logs := make([]*entity.AuditLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, toAuditDomain(row))
	}

	return logs
}

func toAuditDomain(data *model.AuditLogModel) *entity.AuditLog {
	return &entity.AuditLog{
		ID:            data.ID,
		Action:        entity.AuditAction(data.Action),
		UserID:        data.UserID,
		Metadata:      data.Metadata,
		IPAddress:     deref(data.IPAddress),
		UserAgent:     deref(data.UserAgent),
		EntityType:    deref(data.EntityType),
		EntityID:      deref(data.EntityID),
		PreviousState: data.PreviousState,
		NewState:      data.NewState,
		CreatedAt:     data.CreatedAt,
	}
}

func fromAuditDomain(data *entity.AuditLog) *model.AuditLogModel {
	return &model.AuditLogModel{
		ID:            data.ID,
		Action:        data.Action.String(),
		UserID:        data.UserID,
		Metadata:      data.Metadata,
		IPAddress:     nullable(data.IPAddress),
		UserAgent:     nullable(data.UserAgent),
		EntityType:    nullable(data.EntityType),
		EntityID:      nullable(data.EntityID),
		PreviousState: data.PreviousState,
		NewState:      data.NewState,
		CreatedAt:     data.CreatedAt,
	}
}
