package impl

import (
	"context"
	"log/slog"
	"time"

	"triptrack/config"
	deliverycontext "triptrack/internal/delivery/context"
	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/domain/service"
	"triptrack/internal/errors"
	"triptrack/internal/infra/metrics"
	"triptrack/internal/usecase"
	"triptrack/internal/util"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// Reasons recorded in LOGIN_FAILED metadata.
const (
	reasonUnknownIdentifier = "unknown_identifier"
	reasonAccountLocked     = "account_locked"
	reasonInvalidPassword   = "invalid_password"
)

const (
	msgRegistered = "User registered successfully"
	msgLoggedOut  = "Logged out successfully"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	identifiers       service.IdentifierNormalizer
	audit             usecase.AuditRecorder
	metrics           *metrics.Metrics
	maxFailedAttempts int
	lockDuration      time.Duration
	now               func() time.Time
	logger            *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Identifiers  service.IdentifierNormalizer
	Audit        usecase.AuditRecorder
	Metrics      *metrics.Metrics `optional:"true"`
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params, time.Now)
}

func newAuthService(params AuthServiceParams, now func() time.Time) *authService {
	maxFailedAttempts, lockDuration := 5, 15*time.Minute
	if params.Config != nil && params.Config.Auth != nil {
		if params.Config.Auth.MaxFailedAttempts > 0 {
			maxFailedAttempts = params.Config.Auth.MaxFailedAttempts
		}
		if params.Config.Auth.LockDuration > 0 {
			lockDuration = params.Config.Auth.LockDuration
		}
	}

	return &authService{
		txManager:         params.TxManager,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		identifiers:       params.Identifiers,
		audit:             params.Audit,
		metrics:           params.Metrics,
		maxFailedAttempts: maxFailedAttempts,
		lockDuration:      lockDuration,
		now:               now,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user with no failed attempts, no lock and no session.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email, phone, err := srv.normalizeRegistration(input)
	if err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("invalid role")
	}
	if !input.Role.SelfAssignable() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("role cannot be chosen at registration")
	}

	srv.log(ctx).Info("Starting registration", slog.Any("role", input.Role))

	// bcrypt is CPU-bound; keep it outside the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	var registered *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByIdentifiers(ctx, email, phone)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("user registration failed")
		}
		if !errors.Is(err, domainerrors.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check existing user")
		}

		newUser := &entity.User{
			Email:             email,
			Phone:             phone,
			PasswordHash:      hashedPassword,
			Role:              input.Role,
			VerificationLevel: entity.VerificationNone,
		}
		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}
		registered = newUser

		return srv.audit.Record(ctx, repoFactory, usecase.AuditEvent{
			Action:   entity.AuditActionUserRegistered,
			UserID:   &newUser.ID,
			Metadata: map[string]any{"role": newUser.Role, "hasEmail": email != "", "hasPhone": phone != ""},
		})
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.metrics.AuthEvent(entity.AuditActionUserRegistered.String())
	srv.log(ctx).Debug("Registration completed", slog.Any("userID", registered.ID))

	return &usecase.RegisterOutput{Message: msgRegistered, UserID: registered.ID}, nil
}

func (srv *authService) normalizeRegistration(input usecase.RegisterInput) (email, phone string, err error) {
	if input.Email == "" && input.Phone == "" {
		return "", "", domainerrors.ErrValidationFailed.WithDetails("email or phone is required")
	}

	if input.Email != "" {
		if email, err = srv.identifiers.NormalizeEmail(input.Email); err != nil {
			return "", "", err
		}
	}
	if input.Phone != "" {
		if phone, err = srv.identifiers.NormalizePhone(input.Phone); err != nil {
			return "", "", err
		}
	}

	return email, phone, nil
}

// Login verifies the password, enforces the lockout policy and starts a new session.
// Failed attempts are committed before the error is returned.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.TokenPair, error) {
	identifier, _, err := srv.identifiers.Normalize(input.Identifier)
	if err != nil {
		return nil, srv.rejectUnknownIdentifier(ctx, input)
	}

	candidate, err := srv.findLoginUser(ctx, identifier)
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		return nil, srv.rejectUnknownIdentifier(ctx, input)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load login user")
	}

	// Verify outside the transaction; the row lock below only covers the counter update.
	// A locked account is refused without spending a bcrypt comparison.
	now := srv.now()
	checked, passwordMatches := false, false
	if !candidate.IsLocked(now) {
		checked, passwordMatches = true, srv.hasher.Verify(input.Password, candidate.PasswordHash)
	}

	var (
		pair     *service.TokenPair
		loginErr error
		outcome  entity.AuditAction
	)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByIDForUpdate(ctx, candidate.ID)
		if err != nil {
			return errors.Wrap(err, "failed to lock user for login")
		}

		if !checked && !user.IsLocked(now) {
			passwordMatches = srv.hasher.Verify(input.Password, user.PasswordHash)
		}

		switch {
		case user.IsLocked(now):
			outcome, loginErr = entity.AuditActionLoginFailed, lockedError(*user.LockUntil)

			return srv.audit.Record(ctx, repoFactory, loginAudit(outcome, user.ID, input, map[string]any{"reason": reasonAccountLocked}))
		case !passwordMatches:
			outcome, loginErr, err = srv.registerFailure(ctx, repoFactory, user, now, input)

			return err
		}

		pair, err = srv.tokenService.GenerateTokens(subjectOf(user))
		if err != nil {
			return errors.Wrap(domainerrors.ErrTokenGenerationFailed, err.Error())
		}
		if err := repoFactory.UserRepo().RecordLoginSuccess(ctx, user.ID, srv.tokenService.HashRefreshToken(pair.RefreshToken)); err != nil {
			return errors.Wrap(err, "failed to record login")
		}
		outcome = entity.AuditActionLoginSuccess

		return srv.audit.Record(ctx, repoFactory, loginAudit(outcome, user.ID, input, nil))
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute login transaction", slog.Any("userID", candidate.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute login transaction")
	}

	srv.metrics.AuthEvent(outcome.String())
	if loginErr != nil {
		srv.log(ctx).Warn("Login failed", slog.Any("userID", candidate.ID), slog.String("outcome", outcome.String()))

		return nil, errors.Wrap(loginErr, "login failed")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", candidate.ID))

	return toTokenPair(pair), nil
}

// registerFailure counts a wrong password and locks the account once the threshold is reached.
// The returned audit action and error describe the outcome; txErr aborts the transaction.
func (srv *authService) registerFailure(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	user *entity.User,
	now time.Time,
	input usecase.LoginInput,
) (entity.AuditAction, error, error) {
	attempts := user.FailedLoginAttempts + 1

	if attempts >= srv.maxFailedAttempts {
		lockUntil := now.Add(srv.lockDuration)
		if err := repoFactory.UserRepo().UpdateLoginState(ctx, user.ID, 0, &lockUntil); err != nil {
			return "", nil, errors.Wrap(err, "failed to lock account")
		}

		err := srv.audit.Record(ctx, repoFactory, loginAudit(entity.AuditActionAccountLocked, user.ID, input, map[string]any{
			"failedAttempts": attempts,
			"lockDuration":   util.FormatDuration(srv.lockDuration),
			"lockUntil":      lockUntil.UTC().Format(time.RFC3339),
		}))

		return entity.AuditActionAccountLocked, lockedError(lockUntil), err
	}

	// An expired lock is cleared together with the new count.
	if err := repoFactory.UserRepo().UpdateLoginState(ctx, user.ID, attempts, nil); err != nil {
		return "", nil, errors.Wrap(err, "failed to record failed login")
	}

	err := srv.audit.Record(ctx, repoFactory, loginAudit(entity.AuditActionLoginFailed, user.ID, input, map[string]any{
		"reason":         reasonInvalidPassword,
		"failedAttempts": attempts,
	}))

	return entity.AuditActionLoginFailed, domainerrors.ErrInvalidCredentials, err
}

// rejectUnknownIdentifier audits the attempt without a user id and returns the generic error.
func (srv *authService) rejectUnknownIdentifier(ctx context.Context, input usecase.LoginInput) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return srv.audit.Record(ctx, repoFactory, usecase.AuditEvent{
			Action:    entity.AuditActionLoginFailed,
			Metadata:  map[string]any{"reason": reasonUnknownIdentifier},
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		})
	})
	if err != nil {
		return errors.Wrap(err, "failed to record failed login")
	}

	srv.metrics.AuthEvent(entity.AuditActionLoginFailed.String())
	srv.log(ctx).Warn("Login failed", slog.String("reason", reasonUnknownIdentifier))

	return errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
}

func (srv *authService) findLoginUser(ctx context.Context, identifier string) (*entity.User, error) {
	var user *entity.User

	// Read from the primary inside a short transaction to avoid stale replica reads.
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		user, err = repoFactory.UserRepo().FindByIdentifier(ctx, identifier)

		return err
	})

	return user, err
}

// Refresh rotates the session: the presented token is accepted once and replaced by a new pair.
func (srv *authService) Refresh(ctx context.Context, input usecase.RefreshInput) (*usecase.TokenPair, error) {
	claims, err := srv.tokenService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		srv.log(ctx).Warn("Refresh token rejected", slog.String("reason", "invalid_token"))

		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh failed")
	}

	var pair *service.TokenPair
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, claims.UserID)
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return domainerrors.ErrRefreshTokenInvalid
		}
		if err != nil {
			return errors.Wrap(err, "failed to load user for refresh")
		}

		if !user.HasActiveSession() || !srv.tokenService.RefreshTokenMatches(input.RefreshToken, user.RefreshTokenHash) {
			return domainerrors.ErrRefreshTokenInvalid
		}

		pair, err = srv.tokenService.GenerateTokens(subjectOf(user))
		if err != nil {
			return errors.Wrap(domainerrors.ErrTokenGenerationFailed, err.Error())
		}

		swapped, err := userRepo.SwapRefreshTokenHash(ctx, user.ID, user.RefreshTokenHash, srv.tokenService.HashRefreshToken(pair.RefreshToken))
		if err != nil {
			return errors.Wrap(err, "failed to rotate refresh token")
		}
		if !swapped {
			// Another request rotated or revoked the session after we read it.
			return domainerrors.ErrRefreshTokenInvalid
		}

		return srv.audit.Record(ctx, repoFactory, usecase.AuditEvent{
			Action:    entity.AuditActionTokenRefresh,
			UserID:    &user.ID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		})
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrRefreshTokenInvalid) {
			srv.log(ctx).Warn("Refresh token rejected", slog.Any("userID", claims.UserID), slog.String("reason", "session_mismatch"))

			return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh failed")
		}
		srv.log(ctx).Error("Failed to execute refresh transaction", slog.Any("userID", claims.UserID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute refresh transaction")
	}

	srv.metrics.AuthEvent(entity.AuditActionTokenRefresh.String())

	return toTokenPair(pair), nil
}

// Logout revokes the stored refresh token. Calling it again is harmless.
func (srv *authService) Logout(ctx context.Context, input usecase.LogoutInput) (*usecase.LogoutOutput, error) {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if _, err := userRepo.FindByID(ctx, input.UserID); err != nil {
			return errors.Wrap(err, "failed to load user for logout")
		}
		if err := userRepo.ClearRefreshTokenHash(ctx, input.UserID); err != nil {
			return errors.Wrap(err, "failed to clear refresh token")
		}

		return srv.audit.Record(ctx, repoFactory, usecase.AuditEvent{
			Action:    entity.AuditActionLogout,
			UserID:    &input.UserID,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute logout transaction")
	}

	srv.metrics.AuthEvent(entity.AuditActionLogout.String())
	srv.log(ctx).Debug("User logged out", slog.Any("userID", input.UserID))

	return &usecase.LogoutOutput{Message: msgLoggedOut}, nil
}

// ListAccountAudit returns the caller's own audit trail. Failed logins against an unknown
// identifier carry no user and never appear here.
func (srv *authService) ListAccountAudit(ctx context.Context, userID uuid.UUID) ([]*entity.AuditLog, error) {
	var logs []*entity.AuditLog
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.UserRepo().FindByID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to load user for audit listing")
		}

		var err error
		logs, err = repoFactory.AuditRepo().ListByUser(ctx, userID)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list account audit")
	}

	return logs, nil
}

func lockedError(lockUntil time.Time) error {
	return domainerrors.ErrAccountLocked.WithDetails("locked until " + lockUntil.UTC().Format(time.RFC3339))
}

func loginAudit(action entity.AuditAction, userID uuid.UUID, input usecase.LoginInput, metadata map[string]any) usecase.AuditEvent {
	return usecase.AuditEvent{
		Action:    action,
		UserID:    &userID,
		Metadata:  metadata,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	}
}

func subjectOf(user *entity.User) service.TokenSubject {
	return service.TokenSubject{
		UserID:            user.ID,
		Role:              user.Role,
		VerificationLevel: user.VerificationLevel,
	}
}

func toTokenPair(pair *service.TokenPair) *usecase.TokenPair {
	return &usecase.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}
