package handler

import (
	"encoding/json"
	"time"

	"triptrack/internal/domain/entity"
)

// AuditEntryResponse is the public view of one audit entry.
type AuditEntryResponse struct {
	ID            string          `json:"id"`
	Action        string          `json:"action"`
	UserID        *string         `json:"userId,omitempty"`
	EntityType    string          `json:"entityType,omitempty"`
	EntityID      string          `json:"entityId,omitempty"`
	IPAddress     string          `json:"ipAddress,omitempty"`
	UserAgent     string          `json:"userAgent,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	PreviousState json.RawMessage `json:"previousState,omitempty"`
	NewState      json.RawMessage `json:"newState,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toAuditResponses(logs []*entity.AuditLog) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditEntryResponse{
			ID:            l.ID,
			Action:        l.Action.String(),
			EntityType:    l.EntityType,
			EntityID:      l.EntityID,
			IPAddress:     l.IPAddress,
			UserAgent:     l.UserAgent,
			Metadata:      l.Metadata,
			PreviousState: l.PreviousState,
			NewState:      l.NewState,
			CreatedAt:     l.CreatedAt,
		}
		if l.UserID != nil {
			id := l.UserID.String()
			entry.UserID = &id
		}
		out = append(out, entry)
	}

	return out
}
