package repository

import "context"

// TransactionManager runs a unit of work atomically.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back on error, panic or context cancellation.
	// Every repository obtained from the factory shares the one transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to a single transaction. An audit entry
// written through AuditRepo commits or rolls back with the user and trip rows beside it.
type RepositoryFactory interface {
	UserRepo() UserRepository
	TripRepo() TripRepository
	AuditRepo() AuditRepository
}
