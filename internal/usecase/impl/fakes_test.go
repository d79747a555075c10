package impl

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"triptrack/config"
	"triptrack/internal/domain/entity"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/repository"
	"triptrack/internal/errors"

	"github.com/google/uuid"
)

var (
	errCommitFailed = errors.New("commit failed")
	errAuditFailed  = errors.New("audit insert failed")
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{Access: "access-secret", Refresh: "refresh-secret"},
		Auth:      &config.AuthConfig{BcryptCost: 4},
	}
	cfg.ApplyDefaults()

	return cfg
}

// memState is one consistent snapshot of every table.
type memState struct {
	users  map[uuid.UUID]entity.User
	trips  map[uuid.UUID]entity.Trip
	audits []entity.AuditLog
}

func (s memState) clone() memState {
	return memState{
		users:  maps.Clone(s.users),
		trips:  maps.Clone(s.trips),
		audits: slices.Clone(s.audits),
	}
}

// memStore is a transactional in-memory database. Execute works on a copy that replaces the
// committed state only when fn succeeds, so rolled-back writes are never observable.
// Transactions are serialized.
type memStore struct {
	mu    sync.Mutex
	state memState

	// now stamps updated_at on writes, as the database does.
	now func() time.Time

	failCommit bool // applies to transactions that wrote something
	failAudit  bool
	commits    int

	// beforeSwap and beforeTripUpdate run against the working copy right before the conditional
	// update, standing in for a competing transaction that committed first.
	beforeSwap       func(users map[uuid.UUID]entity.User)
	beforeTripUpdate func(trips map[uuid.UUID]entity.Trip)
}

func newMemStore() *memStore {
	return &memStore{
		now: time.Now,
		state: memState{
			users: make(map[uuid.UUID]entity.User),
			trips: make(map[uuid.UUID]entity.Trip),
		},
	}
}

func (s *memStore) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	factory := &memFactory{store: s, state: &work}
	if err := fn(factory); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failCommit && factory.dirty {
		return errCommitFailed
	}

	s.state = work
	s.commits++

	return nil
}

// TripRepo returns a repository that autocommits each call.
func (s *memStore) TripRepo() repository.TripRepository {
	return &autocommitTripRepo{store: s}
}

func (s *memStore) user(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.users[id]
}

func (s *memStore) putUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.users[u.ID] = u
}

func (s *memStore) trip(id uuid.UUID) entity.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.trips[id]
}

func (s *memStore) putTrip(t entity.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.trips[t.ID] = t
}

func (s *memStore) auditLogs() []entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.audits)
}

func (s *memStore) auditActions() []entity.AuditAction {
	logs := s.auditLogs()
	actions := make([]entity.AuditAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}

	return actions
}

type memFactory struct {
	store *memStore
	state *memState
	dirty bool
}

func (f *memFactory) UserRepo() repository.UserRepository   { return &memUserRepo{f: f} }
func (f *memFactory) TripRepo() repository.TripRepository   { return &memTripRepo{f: f} }
func (f *memFactory) AuditRepo() repository.AuditRepository { return &memAuditRepo{f: f} }

type memUserRepo struct{ f *memFactory }

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := r.f.state.users[id]
	if !ok {
		return nil, domainerrors.ErrUserNotFound
	}

	return &u, nil
}

func (r *memUserRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

func (r *memUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	return r.FindByIdentifiers(ctx, identifier, identifier)
}

func (r *memUserRepo) FindByIdentifiers(_ context.Context, email, phone string) (*entity.User, error) {
	for _, u := range r.f.state.users {
		if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
			return &u, nil
		}
	}

	return nil, domainerrors.ErrUserNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	if _, err := r.FindByIdentifiers(ctx, user.Email, user.Phone); err == nil {
		return domainerrors.ErrUserAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.f.state.users[user.ID] = *user
	r.f.dirty = true

	return nil
}

func (r *memUserRepo) update(id uuid.UUID, mutate func(u *entity.User)) error {
	u, ok := r.f.state.users[id]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	mutate(&u)
	r.f.state.users[id] = u
	r.f.dirty = true

	return nil
}

func (r *memUserRepo) UpdateLoginState(_ context.Context, id uuid.UUID, failedAttempts int, lockUntil *time.Time) error {
	return r.update(id, func(u *entity.User) {
		u.FailedLoginAttempts = failedAttempts
		u.LockUntil = lockUntil
	})
}

func (r *memUserRepo) RecordLoginSuccess(_ context.Context, id uuid.UUID, refreshTokenHash string) error {
	return r.update(id, func(u *entity.User) {
		u.FailedLoginAttempts = 0
		u.LockUntil = nil
		u.RefreshTokenHash = refreshTokenHash
	})
}

func (r *memUserRepo) SwapRefreshTokenHash(_ context.Context, id uuid.UUID, expected, next string) (bool, error) {
	if r.f.store.beforeSwap != nil {
		r.f.store.beforeSwap(r.f.state.users)
	}

	u, ok := r.f.state.users[id]
	if !ok || expected == "" || u.RefreshTokenHash != expected {
		return false, nil
	}
	u.RefreshTokenHash = next
	r.f.state.users[id] = u
	r.f.dirty = true

	return true, nil
}

func (r *memUserRepo) ClearRefreshTokenHash(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(u *entity.User) { u.RefreshTokenHash = "" })
}

type memTripRepo struct{ f *memFactory }

func (r *memTripRepo) Create(_ context.Context, trip *entity.Trip) error {
	trip.ID = uuid.New()
	r.f.state.trips[trip.ID] = *trip
	r.f.dirty = true

	return nil
}

func (r *memTripRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Trip, error) {
	t, ok := r.f.state.trips[id]
	if !ok {
		return nil, domainerrors.ErrTripNotFound
	}

	return &t, nil
}

func (r *memTripRepo) UpdateStatus(_ context.Context, id uuid.UUID, expectedVersion int, status entity.TripStatus) (bool, error) {
	if r.f.store.beforeTripUpdate != nil {
		r.f.store.beforeTripUpdate(r.f.state.trips)
	}

	t, ok := r.f.state.trips[id]
	if !ok || t.Version != expectedVersion {
		return false, nil
	}
	t.Status = status
	t.Version++
	t.UpdatedAt = r.f.store.now()
	r.f.state.trips[id] = t
	r.f.dirty = true

	return true, nil
}

type memAuditRepo struct{ f *memFactory }

func (r *memAuditRepo) Create(_ context.Context, log *entity.AuditLog) error {
	if r.f.store.failAudit {
		return errAuditFailed
	}
	r.f.state.audits = append(r.f.state.audits, *log)
	r.f.dirty = true

	return nil
}

func (r *memAuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.AuditLog, error) {
	var out []*entity.AuditLog
	for _, l := range r.f.state.audits {
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, &l)
		}
	}

	return out, nil
}

func (r *memAuditRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.AuditLog, error) {
	var out []*entity.AuditLog
	for _, l := range r.f.state.audits {
		if l.UserID != nil && *l.UserID == userID {
			out = append(out, &l)
		}
	}

	return out, nil
}

type autocommitTripRepo struct{ store *memStore }

func (r *autocommitTripRepo) run(fn func(repo repository.TripRepository) error) error {
	return r.store.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		return fn(f.TripRepo())
	})
}

func (r *autocommitTripRepo) Create(ctx context.Context, trip *entity.Trip) error {
	return r.run(func(repo repository.TripRepository) error { return repo.Create(ctx, trip) })
}

func (r *autocommitTripRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	var trip *entity.Trip
	err := r.run(func(repo repository.TripRepository) error {
		var err error
		trip, err = repo.FindByID(ctx, id)

		return err
	})

	return trip, err
}

func (r *autocommitTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status entity.TripStatus) (bool, error) {
	var ok bool
	err := r.run(func(repo repository.TripRepository) error {
		var err error
		ok, err = repo.UpdateStatus(ctx, id, expectedVersion, status)

		return err
	})

	return ok, err
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
