package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLogModel mirrors the append-only 'audit_logs' table.
type AuditLogModel struct {
	ID            string          `gorm:"type:char(26);primaryKey"`
	Action        string          `gorm:"type:varchar(32);not null"`
	UserID        *uuid.UUID      `gorm:"type:uuid"`
	Metadata      json.RawMessage `gorm:"type:jsonb"`
	IPAddress     *string         `gorm:"type:varchar(64)"`
	UserAgent     *string         `gorm:"type:text"`
	EntityType    *string         `gorm:"type:varchar(32)"`
	EntityID      *string         `gorm:"type:varchar(64)"`
	PreviousState json.RawMessage `gorm:"type:jsonb"`
	NewState      json.RawMessage `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (AuditLogModel) TableName() string {
	return "audit_logs"
}
