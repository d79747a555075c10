package repository

import (
	"context"

	"triptrack/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditRepository is append-only. There is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error

	// ListByEntity returns entries for one entity ordered by creation time, oldest first.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditLog, error)

	// ListByUser returns entries for one user ordered by creation time, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.AuditLog, error)
}
