package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	"github.com/cupkappu/mbooking-sub001/internal/utils/pagination"
)

type PgxJournalRepository struct {
	BaseRepository
	separator string
}

// newPgxJournalRepository creates a new repository for journal entries, lines and postings.
func newPgxJournalRepository(pool *pgxpool.Pool, sep string) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		separator:      sep,
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// SaveEntry saves a journal entry and all its lines within a single transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	entryQuery := `
		INSERT INTO journal_entries (
			entry_id, tenant_id, entry_number, entry_date, description, status,
			reversal_of_entry_id, posted_at,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, entryQuery,
		entry.EntryID, entry.TenantID, entry.EntryNumber, entry.EntryDate, entry.Description, entry.Status,
		entry.ReversalOfEntryID, entry.PostedAt,
		entry.CreatedAt, entry.CreatedBy, entry.LastUpdatedAt, entry.LastUpdatedBy,
	)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return apperrors.NewAppError(500, "failed to insert journal entry", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (
			line_id, entry_id, tenant_id, account_id, amount, currency_code,
			exchange_rate, notes, tags, synthesized, line_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, l := range entry.Lines {
		rate := decimal.NullDecimal{}
		if l.ExchangeRate != nil {
			rate = decimal.NewNullDecimal(*l.ExchangeRate)
		}
		batch.Queue(lineQuery,
			l.LineID, entry.EntryID, entry.TenantID, l.AccountID, l.Amount, l.CurrencyCode,
			rate, l.Notes, tagsOrEmpty(l.Tags), l.Synthesized, l.LineOrder,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range entry.Lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return apperrors.NewAppError(500, "failed to insert journal line", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close journal line batch", err)
	}

	return r.Commit(ctx, tx)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

const selectEntryFields = `
	entry_id, tenant_id, entry_number, entry_date, description, status,
	reversal_of_entry_id, posted_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.EntryID, &e.TenantID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.Status,
		&e.ReversalOfEntryID, &e.PostedAt,
		&e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy,
	)
	return e, err
}

// FindEntryByID retrieves an entry together with its lines in line order.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	linesQuery := `
		SELECT line_id, entry_id, tenant_id, account_id, amount, currency_code,
		       exchange_rate, notes, tags, synthesized, line_order
		FROM journal_lines
		WHERE tenant_id = $1 AND entry_id = $2
		ORDER BY line_order;
	`
	rows, err := r.Pool.Query(ctx, linesQuery, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of entry %s: %w", entryID, err)
	}
	defer rows.Close()

	entry.Lines = make([]domain.JournalLine, 0)
	for rows.Next() {
		var l domain.JournalLine
		var rate decimal.NullDecimal
		if err := rows.Scan(
			&l.LineID, &l.EntryID, &l.TenantID, &l.AccountID, &l.Amount, &l.CurrencyCode,
			&rate, &l.Notes, &l.Tags, &l.Synthesized, &l.LineOrder,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		if rate.Valid {
			v := rate.Decimal
			l.ExchangeRate = &v
		}
		entry.Lines = append(entry.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal lines: %w", err)
	}
	return &entry, nil
}

// ListEntries returns entry headers newest first, paginated by a (date, number) cursor.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := []any{tenantID}
	where := "tenant_id = $1"
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursor.EntryDate, cursor.EntryNumber)
		where += " AND (entry_date, entry_number) < ($2, $3)"
	}
	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM journal_entries
		WHERE %s
		ORDER BY entry_date DESC, entry_number DESC
		LIMIT $%d;`, selectEntryFields, where, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	if len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[limit-1]
	token := pagination.EncodeEntryCursor(pagination.EntryCursor{EntryDate: last.EntryDate, EntryNumber: last.EntryNumber})
	return entries, &token, nil
}

// UpdateEntryStatus moves an entry from one status to another; a concurrent change yields ErrConflict.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, tenantID, entryID string, from, to domain.EntryStatus, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $1,
		    posted_at = CASE WHEN $1 = 'posted' THEN $2::timestamptz ELSE posted_at END,
		    last_updated_at = $2, last_updated_by = $3
		WHERE tenant_id = $4 AND entry_id = $5 AND status = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(to), now, userID, tenantID, entryID, string(from))
	if err != nil {
		return fmt.Errorf("failed to update status of entry %s: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		current, findErr := r.FindEntryByID(ctx, tenantID, entryID)
		if findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrConflict, entryID, current.Status)
	}
	return nil
}

// postingWhere renders the joined WHERE clause of a posting query.
func (r *PgxJournalRepository) postingWhere(filter domain.PostingFilter) (string, []any) {
	args := []any{filter.TenantID}
	conds := []string{"l.tenant_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludePending {
		conds = append(conds, "e.status = 'posted'")
	}
	if len(filter.AccountIDs) > 0 {
		conds = append(conds, "l.account_id = ANY("+next(filter.AccountIDs)+")")
	}
	if filter.PathPrefix != "" {
		p := next(filter.PathPrefix)
		conds = append(conds, fmt.Sprintf(`(a.path = %s OR a.path LIKE %s ESCAPE '\')`, p, next(subtreePattern(filter.PathPrefix, r.separator))))
	}
	if filter.From != nil {
		conds = append(conds, "e.entry_date >= "+next(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "e.entry_date <= "+next(*filter.To))
	}
	return strings.Join(conds, " AND "), args
}

const postingJoin = `
	FROM journal_lines l
	JOIN journal_entries e ON e.tenant_id = l.tenant_id AND e.entry_id = l.entry_id
	JOIN accounts a ON a.tenant_id = l.tenant_id AND a.account_id = l.account_id`

// SumByCurrency totals matching postings per currency.
func (r *PgxJournalRepository) SumByCurrency(ctx context.Context, filter domain.PostingFilter) (domain.BalanceVector, error) {
	where, args := r.postingWhere(filter)
	query := `SELECT l.currency_code, SUM(l.amount)` + postingJoin + ` WHERE ` + where + ` GROUP BY l.currency_code;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum postings by currency: %w", err)
	}
	defer rows.Close()

	v := domain.NewBalanceVector()
	for rows.Next() {
		var code string
		var sum decimal.Decimal
		if err := rows.Scan(&code, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan currency sum: %w", err)
		}
		v.Add(code, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency sums: %w", err)
	}
	return v, nil
}

// SumByAccount totals matching postings per account and currency.
func (r *PgxJournalRepository) SumByAccount(ctx context.Context, filter domain.PostingFilter) (map[string]domain.BalanceVector, error) {
	where, args := r.postingWhere(filter)
	query := `SELECT l.account_id, l.currency_code, SUM(l.amount)` + postingJoin + ` WHERE ` + where + ` GROUP BY l.account_id, l.currency_code;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum postings by account: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.BalanceVector)
	for rows.Next() {
		var accountID, code string
		var sum decimal.Decimal
		if err := rows.Scan(&accountID, &code, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan account sum: %w", err)
		}
		v, ok := out[accountID]
		if !ok {
			v = domain.NewBalanceVector()
			out[accountID] = v
		}
		v.Add(code, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account sums: %w", err)
	}
	return out, nil
}

// ListPostings returns matching postings ordered by entry date.
func (r *PgxJournalRepository) ListPostings(ctx context.Context, filter domain.PostingFilter) ([]domain.Posting, error) {
	where, args := r.postingWhere(filter)
	query := `
		SELECT e.entry_id, e.entry_date, l.account_id, a.path, a.account_type, l.amount, l.currency_code` +
		postingJoin + ` WHERE ` + where + ` ORDER BY e.entry_date, e.entry_number, l.line_order;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Posting, 0)
	for rows.Next() {
		var p domain.Posting
		if err := rows.Scan(&p.EntryID, &p.EntryDate, &p.AccountID, &p.AccountPath, &p.AccountType, &p.Amount, &p.CurrencyCode); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating postings: %w", err)
	}
	return out, nil
}
