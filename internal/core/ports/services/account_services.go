package services

import (
	"context"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)

	// GetAccountByIDs retrieves multiple accounts by their IDs.
	GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListTree retrieves every account of the tenant ordered by path.
	ListTree(ctx context.Context, tenantID string) ([]domain.Account, error)

	// ListSubtree retrieves an account and all of its descendants ordered by path.
	ListSubtree(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error)

	// ListChildren retrieves the direct children of an account.
	ListChildren(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error)

	// IsDescendantOf reports whether candidate lies strictly below ancestor, by path comparison.
	IsDescendantOf(candidate, ancestor domain.Account) bool
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account under an optional parent.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// Reparent moves an account (and its subtree) under a new parent, or to the root when newParentID is nil.
	Reparent(ctx context.Context, tenantID string, accountID string, newParentID *string, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces
// This is a facade for clients that need access to all operations
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
