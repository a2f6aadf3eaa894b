package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

// AccountRepository implements portsrepo.AccountRepositoryFacade on a Store.
type AccountRepository struct {
	store *Store
}

var _ portsrepo.AccountRepositoryFacade = (*AccountRepository)(nil)

func (r *AccountRepository) pathTaken(tenantID, path, exceptID string) bool {
	for id, a := range r.store.accounts {
		if id != exceptID && a.TenantID == tenantID && a.Path == path {
			return true
		}
	}
	return false
}

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.accounts[account.AccountID]; exists {
		return &apperrors.DuplicateError{Resource: "account", Key: account.AccountID}
	}
	if account.ParentAccountID != nil {
		parent, ok := r.store.accounts[*account.ParentAccountID]
		if !ok || parent.TenantID != account.TenantID {
			return &apperrors.ParentNotFoundError{ParentID: *account.ParentAccountID}
		}
		if parent.Path != accounting.ParentPath(account.Path, r.store.separator) {
			return fmt.Errorf("%w: parent %s moved to %s", apperrors.ErrConflict, parent.AccountID, parent.Path)
		}
	}
	if r.pathTaken(account.TenantID, account.Path, "") {
		return &apperrors.DuplicateError{Resource: "account", Key: account.Path}
	}
	r.store.accounts[account.AccountID] = account
	return nil
}

func (r *AccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if a, ok := r.store.accounts[id]; ok && a.TenantID == tenantID {
			out[id] = a
		}
	}
	return out, nil
}

func (r *AccountRepository) filter(tenantID string, keep func(domain.Account) bool) []domain.Account {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Account, 0)
	for _, a := range r.store.accounts {
		if a.TenantID == tenantID && keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *AccountRepository) ListAccountsByPath(ctx context.Context, tenantID string) ([]domain.Account, error) {
	return r.filter(tenantID, func(domain.Account) bool { return true }), nil
}

func (r *AccountRepository) ListSubtree(ctx context.Context, tenantID, rootPath string) ([]domain.Account, error) {
	sep := r.store.separator
	return r.filter(tenantID, func(a domain.Account) bool {
		return accounting.InSubtree(a.Path, rootPath, sep)
	}), nil
}

func (r *AccountRepository) ListChildren(ctx context.Context, tenantID, parentAccountID string) ([]domain.Account, error) {
	return r.filter(tenantID, func(a domain.Account) bool {
		return a.ParentAccountID != nil && *a.ParentAccountID == parentAccountID
	}), nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.accounts[account.AccountID]
	if !ok || current.TenantID != account.TenantID {
		return apperrors.ErrNotFound
	}
	current.Name = account.Name
	current.Description = account.Description
	current.IsActive = account.IsActive
	current.LastUpdatedAt = account.LastUpdatedAt
	current.LastUpdatedBy = account.LastUpdatedBy
	r.store.accounts[account.AccountID] = current
	return nil
}

// MoveSubtree collects the subtree and checks the final state while holding the store lock,
// so accounts created under a moved node are rewritten with it.
func (r *AccountRepository) MoveSubtree(ctx context.Context, tenantID string, move domain.SubtreeMove, userID string, now time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sep := r.store.separator
	root, ok := r.store.accounts[move.AccountID]
	if !ok || root.TenantID != tenantID {
		return 0, apperrors.ErrNotFound
	}
	if root.Path != move.OldPath {
		return 0, fmt.Errorf("%w: account %s moved to %s", apperrors.ErrConflict, move.AccountID, root.Path)
	}
	if move.ParentAccountID != nil {
		parent, ok := r.store.accounts[*move.ParentAccountID]
		if !ok || parent.TenantID != tenantID {
			return 0, &apperrors.ParentNotFoundError{ParentID: *move.ParentAccountID}
		}
		if parent.Path != move.ParentPath {
			return 0, fmt.Errorf("%w: parent %s moved to %s", apperrors.ErrConflict, parent.AccountID, parent.Path)
		}
	}

	next := make(map[string]domain.Account)
	for id, a := range r.store.accounts {
		if a.TenantID != tenantID || !accounting.InSubtree(a.Path, move.OldPath, sep) {
			continue
		}
		a.Path = accounting.RebasePath(a.Path, move.OldPath, move.NewPath)
		a.Depth += move.DepthDelta
		if id == move.AccountID {
			a.ParentAccountID = move.ParentAccountID
		}
		a.Touch(userID, now)
		next[id] = a
	}

	paths := make(map[string]string)
	for id, a := range r.store.accounts {
		if a.TenantID != tenantID {
			continue
		}
		if moved, ok := next[id]; ok {
			a = moved
		}
		if other, clash := paths[a.Path]; clash && other != id {
			return 0, &apperrors.DuplicateError{Resource: "account", Key: a.Path}
		}
		paths[a.Path] = id
	}

	for id, a := range next {
		r.store.accounts[id] = a
	}
	return len(next), nil
}

func (r *AccountRepository) DeactivateAccount(ctx context.Context, tenantID, accountID, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	if !a.IsActive {
		return apperrors.NewValidationError("account is already inactive")
	}
	a.IsActive = false
	a.Touch(userID, now)
	r.store.accounts[accountID] = a
	return nil
}
