package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

type PgxAccountRepository struct {
	BaseRepository
	separator string
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool, sep string) *PgxAccountRepository {
	return &PgxAccountRepository{
		BaseRepository: BaseRepository{Pool: pool},
		separator:      sep,
	}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const selectAccountFields = `
	account_id, tenant_id, name, account_type, currency_code, parent_account_id,
	path, depth, description, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountID, &a.TenantID, &a.Name, &a.AccountType, &a.CurrencyCode, &a.ParentAccountID,
		&a.Path, &a.Depth, &a.Description, &a.IsActive,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
	)
	return a, err
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()
	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// SaveAccount inserts a new account. The ancestors are share-locked in the same transaction
// so a concurrent MoveSubtree either waits for the insert or makes it fail with a conflict.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if account.ParentAccountID != nil {
		if err := r.lockAncestors(ctx, tx, account); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO accounts (` + selectAccountFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = tx.Exec(ctx, query,
		account.AccountID, account.TenantID, account.Name, account.AccountType, account.CurrencyCode, account.ParentAccountID,
		account.Path, account.Depth, account.Description, account.IsActive,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return r.Commit(ctx, tx)
}

// lockAncestors share-locks every account on the new account's path and checks that its
// parent is still found at the expected path.
func (r *PgxAccountRepository) lockAncestors(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	query := `
		SELECT account_id, path
		FROM accounts
		WHERE tenant_id = $1 AND path = ANY($2)
		FOR SHARE;
	`
	rows, err := tx.Query(ctx, query, account.TenantID, accounting.AncestorPaths(account.Path, r.separator))
	if err != nil {
		return fmt.Errorf("failed to lock ancestors of %s: %w", account.Path, err)
	}
	defer rows.Close()

	parentPath := accounting.ParentPath(account.Path, r.separator)
	found := false
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return fmt.Errorf("failed to scan ancestor row: %w", err)
		}
		if id == *account.ParentAccountID && path == parentPath {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating ancestor rows: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: parent %s is no longer at %s", apperrors.ErrConflict, *account.ParentAccountID, parentPath)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID within a tenant.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE tenant_id = $1 AND account_id = $2;`
	a, err := scanAccount(r.Pool.QueryRow(ctx, query, tenantID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return &a, nil
}

// FindAccountsByIDs retrieves multiple accounts of a tenant in one query.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE tenant_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out[a.AccountID] = a
	}
	return out, nil
}

// ListAccountsByPath lists every account of a tenant ordered by path.
func (r *PgxAccountRepository) ListAccountsByPath(ctx context.Context, tenantID string) ([]domain.Account, error) {
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE tenant_id = $1 ORDER BY path;`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return collectAccounts(rows)
}

// ListSubtree lists the account at rootPath and its descendants using the path index.
func (r *PgxAccountRepository) ListSubtree(ctx context.Context, tenantID, rootPath string) ([]domain.Account, error) {
	query := `
		SELECT ` + selectAccountFields + `
		FROM accounts
		WHERE tenant_id = $1 AND (path = $2 OR path LIKE $3 ESCAPE '\')
		ORDER BY path;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, rootPath, subtreePattern(rootPath, r.separator))
	if err != nil {
		return nil, fmt.Errorf("failed to list subtree of %s: %w", rootPath, err)
	}
	return collectAccounts(rows)
}

// ListChildren lists the direct children of an account.
func (r *PgxAccountRepository) ListChildren(ctx context.Context, tenantID, parentAccountID string) ([]domain.Account, error) {
	query := `SELECT ` + selectAccountFields + ` FROM accounts WHERE tenant_id = $1 AND parent_account_id = $2 ORDER BY path;`
	rows, err := r.Pool.Query(ctx, query, tenantID, parentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", parentAccountID, err)
	}
	return collectAccounts(rows)
}

// UpdateAccount updates the mutable details of an account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, description = $2, is_active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE tenant_id = $6 AND account_id = $7;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		account.Name, account.Description, account.IsActive, account.LastUpdatedAt, account.LastUpdatedBy,
		account.TenantID, account.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MoveSubtree locks the moved account and the new parent, then rewrites the whole subtree
// with one prefix update. The path constraint is deferred to commit so the rewrite may pass
// through overlapping states.
func (r *PgxAccountRepository) MoveSubtree(ctx context.Context, tenantID string, move domain.SubtreeMove, userID string, now time.Time) (int, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	var currentPath string
	err = tx.QueryRow(ctx,
		`SELECT path FROM accounts WHERE tenant_id = $1 AND account_id = $2 FOR UPDATE;`,
		tenantID, move.AccountID).Scan(&currentPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to lock account %s: %w", move.AccountID, err)
	}
	if currentPath != move.OldPath {
		return 0, fmt.Errorf("%w: account %s moved to %s", apperrors.ErrConflict, move.AccountID, currentPath)
	}

	if move.ParentAccountID != nil {
		var parentPath string
		err = tx.QueryRow(ctx,
			`SELECT path FROM accounts WHERE tenant_id = $1 AND account_id = $2 FOR SHARE;`,
			tenantID, *move.ParentAccountID).Scan(&parentPath)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, &apperrors.ParentNotFoundError{ParentID: *move.ParentAccountID}
			}
			return 0, fmt.Errorf("failed to lock parent %s: %w", *move.ParentAccountID, err)
		}
		if parentPath != move.ParentPath {
			return 0, fmt.Errorf("%w: parent %s moved to %s", apperrors.ErrConflict, *move.ParentAccountID, parentPath)
		}
	}

	if _, err := tx.Exec(ctx, `SET CONSTRAINTS accounts_tenant_path_key DEFERRED;`); err != nil {
		return 0, apperrors.NewAppError(500, "failed to defer path constraint", err)
	}

	query := `
		UPDATE accounts
		SET path = $1 || substr(path, length($2) + 1),
			depth = depth + $3,
			parent_account_id = CASE WHEN account_id = $4 THEN $5 ELSE parent_account_id END,
			last_updated_at = $6,
			last_updated_by = $7
		WHERE tenant_id = $8 AND (path = $2 OR path LIKE $9 ESCAPE '\');
	`
	cmdTag, err := tx.Exec(ctx, query,
		move.NewPath, move.OldPath, move.DepthDelta, move.AccountID, move.ParentAccountID, now, userID,
		tenantID, subtreePattern(move.OldPath, r.separator))
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to rewrite subtree paths", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, tenantID, accountID, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $1, last_updated_by = $2
		WHERE tenant_id = $3 AND account_id = $4 AND is_active = TRUE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, now, userID, tenantID, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindAccountByID(ctx, tenantID, accountID); findErr != nil {
			return findErr
		}
		return apperrors.NewValidationError("account is already inactive")
	}
	return nil
}
