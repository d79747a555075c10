// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	deliverycontext "triptrack/internal/delivery/context"
	"triptrack/internal/domain/entity"
	"triptrack/internal/domain/repository"
	"triptrack/internal/errors"
	"triptrack/internal/usecase"
	"triptrack/internal/util"

	"go.uber.org/fx"
)

type auditRecorder struct {
	now    func() time.Time
	logger *slog.Logger
}

// AuditRecorderParams holds dependencies for the audit recorder, injected by Fx.
type AuditRecorderParams struct {
	fx.In

	Logger *slog.Logger
}

func NewAuditRecorder(params AuditRecorderParams) usecase.AuditRecorder {
	return newAuditRecorder(params.Logger, time.Now)
}

func newAuditRecorder(logger *slog.Logger, now func() time.Time) *auditRecorder {
	return &auditRecorder{now: now, logger: logger}
}

// Record assigns a ULID and a UTC timestamp, then inserts through factory.AuditRepo().
// An error here must abort the caller's transaction.
func (r *auditRecorder) Record(ctx context.Context, factory repository.RepositoryFactory, event usecase.AuditEvent) error {
	metadata, err := marshalOptional(event.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit metadata")
	}
	previous, err := marshalOptional(event.PreviousState)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit previous state")
	}
	next, err := marshalOptional(event.NewState)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit new state")
	}

	createdAt := r.now().UTC()
	entry := &entity.AuditLog{
		ID:            util.NewULID(createdAt),
		Action:        event.Action,
		UserID:        event.UserID,
		Metadata:      metadata,
		IPAddress:     event.IPAddress,
		UserAgent:     event.UserAgent,
		EntityType:    event.EntityType,
		EntityID:      event.EntityID,
		PreviousState: previous,
		NewState:      next,
		CreatedAt:     createdAt,
	}

	if err := factory.AuditRepo().Create(ctx, entry); err != nil {
		return errors.Wrapf(err, "failed to record %s audit log", event.Action)
	}

	deliverycontext.GetLoggerOrDefault(ctx, r.logger).Debug("Audit log recorded",
		slog.String("auditID", entry.ID),
		slog.String("action", entry.Action.String()),
	)

	return nil
}

// marshalOptional keeps absent values NULL instead of storing the JSON literal null.
func marshalOptional(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil, nil
	}

	return json.Marshal(v)
}
