package repositories

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// AccountReader defines read operations for account data.
// Every method is scoped to a single tenant; accounts of other tenants are reported as not found.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccountsByPath retrieves all accounts of a tenant ordered by path.
	ListAccountsByPath(ctx context.Context, tenantID string) ([]domain.Account, error)

	// ListSubtree retrieves the account at rootPath and every descendant, ordered by path.
	ListSubtree(ctx context.Context, tenantID, rootPath string) ([]domain.Account, error)

	// ListChildren retrieves the direct children of an account.
	ListChildren(ctx context.Context, tenantID, parentAccountID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. A path collision within the tenant yields apperrors.DuplicateError.
	// When the parent's path no longer prefixes account.Path the insert fails with apperrors.ErrConflict.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates name, description and active flag. Path and parent are not touched.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// MoveSubtree applies a reparent to the account and all of its descendants as one atomic unit
	// and returns the number of rewritten accounts.
	MoveSubtree(ctx context.Context, tenantID string, move domain.SubtreeMove, userID string, now time.Time) (int, error)

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tenantID, accountID, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
