package postgres

import (
	"context"
	"time"

	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/errors"
	"triptrack/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the repository bound to db, which may be a transaction.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.first(ctx, repo.db.WithContext(ctx).Where("id = ?", id), "failed to find user by id")
}

func (repo *userRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id)

	return repo.first(ctx, query, "failed to lock user by id")
}

func (repo *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	query := repo.db.WithContext(ctx).Where("email = ? OR phone = ?", identifier, identifier)

	return repo.first(ctx, query, "failed to find user by identifier")
}

func (repo *userRepository) FindByIdentifiers(ctx context.Context, email, phone string) (*entity.User, error) {
	query := repo.db.WithContext(ctx)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		return nil, domainerrors.ErrUserNotFound
	}

	return repo.first(ctx, query, "failed to find user by identifiers")
}

func (repo *userRepository) first(_ context.Context, query *gorm.DB, msg string) (*entity.User, error) {
	var userM model.UserModel
	if err := query.First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, msg)
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user. The ID is assigned here when the caller left it empty.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email or phone already registered")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) UpdateLoginState(ctx context.Context, id uuid.UUID, failedAttempts int, lockUntil *time.Time) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": failedAttempts,
			"lock_until":            lockUntil,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update login state")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	return nil
}

func (repo *userRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, refreshTokenHash string) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"lock_until":            nil,
			"refresh_token_hash":    refreshTokenHash,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to record login")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	return nil
}

// SwapRefreshTokenHash is a compare-and-swap on the stored digest.
func (repo *userRepository) SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ? AND refresh_token_hash = ?", id, expected).
		Update("refresh_token_hash", next)
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to rotate refresh token")
	}

	return result.RowsAffected == 1, nil
}

func (repo *userRepository) ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", id).
		Update("refresh_token_hash", nil)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to clear refresh token")
	}

	return nil
}

func toUserDomain(data *model.UserModel) *entity.User {
	return &entity.User{
		ID:                  data.ID,
		Email:               deref(data.Email),
		Phone:               deref(data.Phone),
		PasswordHash:        data.PasswordHash,
		FailedLoginAttempts: data.FailedLoginAttempts,
		LockUntil:           data.LockUntil,
		RefreshTokenHash:    deref(data.RefreshTokenHash),
		Role:                entity.Role(data.Role),
		VerificationLevel:   entity.VerificationLevel(data.VerificationLevel),
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:                  data.ID,
		Email:               nullable(data.Email),
		Phone:               nullable(data.Phone),
		PasswordHash:        data.PasswordHash,
		FailedLoginAttempts: data.FailedLoginAttempts,
		LockUntil:           data.LockUntil,
		RefreshTokenHash:    nullable(data.RefreshTokenHash),
		Role:                data.Role.String(),
		VerificationLevel:   data.VerificationLevel.String(),
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
