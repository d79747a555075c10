package usecase

import (
	"context"

	"triptrack/internal/domain/entity"
	"triptrack/internal/domain/repository"

	"github.com/google/uuid"
)

// AuditEvent is what a caller knows about an event. The recorder adds the id and timestamp.
type AuditEvent struct {
	Action        entity.AuditAction
	UserID        *uuid.UUID
	Metadata      map[string]any
	IPAddress     string
	UserAgent     string
	EntityType    string
	EntityID      string
	PreviousState any
	NewState      any
}

// AuditRecorder appends entries through the caller's transaction-bound factory, so an entry
// commits or rolls back together with the mutation it documents.
type AuditRecorder interface {
	Record(ctx context.Context, factory repository.RepositoryFactory, event AuditEvent) error
}
