package pgsql

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
)

const uniqueViolationCode = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// duplicateResources maps unique constraint names onto the resource reported in DuplicateError.
var duplicateResources = map[string]string{
	"accounts_tenant_path_key":          "account",
	"journal_entries_tenant_number_key": "journal_entry",
	"journal_entries_reversal_key":      "journal_entry_reversal",
	"budget_alerts_period_key":          "budget_alert",
}

// asDuplicate converts a unique violation into apperrors.DuplicateError; other errors yield nil.
func asDuplicate(err error) *apperrors.DuplicateError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}
	resource, ok := duplicateResources[pgErr.ConstraintName]
	if !ok {
		resource = pgErr.TableName
	}
	key := pgErr.Detail
	if i := strings.Index(key, ")=("); i >= 0 {
		key = strings.TrimSuffix(key[i+3:], ") already exists.")
	}
	return &apperrors.DuplicateError{Resource: resource, Key: key}
}

// escapeLike escapes LIKE metacharacters so a path can be used as a literal prefix.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// subtreePattern matches every descendant path of root.
func subtreePattern(root, sep string) string {
	return escapeLike(root+sep) + "%"
}
