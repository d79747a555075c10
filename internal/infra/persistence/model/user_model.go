package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. IDs are generated by the application.
// Nullable text columns are pointers so an absent email or phone stores NULL and stays out of the unique index.
type UserModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email               *string    `gorm:"type:varchar(255);uniqueIndex"`
	Phone               *string    `gorm:"type:varchar(32);uniqueIndex"`
	PasswordHash        string     `gorm:"type:varchar(255);not null"`
	FailedLoginAttempts int        `gorm:"not null"`
	LockUntil           *time.Time `gorm:"type:timestamptz"`
	RefreshTokenHash    *string    `gorm:"type:char(64)"`
	Role                string     `gorm:"type:varchar(16);not null"`
	VerificationLevel   string     `gorm:"type:varchar(16);not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
