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
	"github.com/cupkappu/mbooking-sub001/internal/utils/pagination"
)

// JournalRepository implements portsrepo.JournalRepositoryFacade on a Store.
type JournalRepository struct {
	store *Store
}

var _ portsrepo.JournalRepositoryFacade = (*JournalRepository)(nil)

// SaveEntry checks every constraint before writing, so a rejected entry leaves no trace.
func (r *JournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.entries[entry.EntryID]; exists {
		return &apperrors.DuplicateError{Resource: "journal_entry", Key: entry.EntryID}
	}
	for _, e := range r.store.entries {
		if e.TenantID != entry.TenantID {
			continue
		}
		if e.EntryNumber == entry.EntryNumber {
			return &apperrors.DuplicateError{Resource: "journal_entry", Key: entry.EntryNumber}
		}
		if entry.ReversalOfEntryID != nil && e.ReversalOfEntryID != nil && *e.ReversalOfEntryID == *entry.ReversalOfEntryID {
			return &apperrors.DuplicateError{Resource: "journal_entry_reversal", Key: *entry.ReversalOfEntryID}
		}
	}
	for _, l := range entry.Lines {
		a, ok := r.store.accounts[l.AccountID]
		if !ok || a.TenantID != entry.TenantID {
			return fmt.Errorf("%w: line references unknown account %s", apperrors.ErrValidation, l.AccountID)
		}
	}

	r.store.entries[entry.EntryID] = cloneEntry(entry)
	return nil
}

func (r *JournalRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	e = cloneEntry(e)
	sort.Slice(e.Lines, func(i, j int) bool { return e.Lines[i].LineOrder < e.Lines[j].LineOrder })
	return &e, nil
}

func entryBefore(a, b domain.JournalEntry) bool {
	if !a.EntryDate.Equal(b.EntryDate) {
		return a.EntryDate.After(b.EntryDate)
	}
	return a.EntryNumber > b.EntryNumber
}

func (r *JournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.EntryCursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	r.store.mu.RLock()
	all := make([]domain.JournalEntry, 0)
	for _, e := range r.store.entries {
		if e.TenantID == tenantID {
			e.Lines = nil
			all = append(all, e)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return entryBefore(all[i], all[j]) })

	page := make([]domain.JournalEntry, 0, limit)
	for _, e := range all {
		if cursor != nil && !entryBefore(domain.JournalEntry{EntryDate: cursor.EntryDate, EntryNumber: cursor.EntryNumber}, e) {
			continue
		}
		if len(page) == limit {
			last := page[len(page)-1]
			token := pagination.EncodeEntryCursor(pagination.EntryCursor{EntryDate: last.EntryDate, EntryNumber: last.EntryNumber})
			return page, &token, nil
		}
		page = append(page, e)
	}
	return page, nil, nil
}

func (r *JournalRepository) UpdateEntryStatus(ctx context.Context, tenantID, entryID string, from, to domain.EntryStatus, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	if e.Status != from {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrConflict, entryID, e.Status)
	}
	e.Status = to
	if to == domain.Posted {
		postedAt := now
		e.PostedAt = &postedAt
	}
	e.Touch(userID, now)
	r.store.entries[entryID] = e
	return nil
}

// postings joins matching lines with their entry and account.
func (r *JournalRepository) postings(filter domain.PostingFilter) []domain.Posting {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make(map[string]struct{}, len(filter.AccountIDs))
	for _, id := range filter.AccountIDs {
		ids[id] = struct{}{}
	}

	out := make([]domain.Posting, 0)
	for _, e := range r.store.entries {
		if e.TenantID != filter.TenantID {
			continue
		}
		if e.Status != domain.Posted && !filter.IncludePending {
			continue
		}
		if filter.From != nil && e.EntryDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.EntryDate.After(*filter.To) {
			continue
		}
		for _, l := range e.Lines {
			a, ok := r.store.accounts[l.AccountID]
			if !ok || a.TenantID != filter.TenantID {
				continue
			}
			if len(ids) > 0 {
				if _, ok := ids[l.AccountID]; !ok {
					continue
				}
			}
			if filter.PathPrefix != "" && !accounting.InSubtree(a.Path, filter.PathPrefix, r.store.separator) {
				continue
			}
			out = append(out, domain.Posting{
				EntryID:      e.EntryID,
				EntryDate:    e.EntryDate,
				AccountID:    l.AccountID,
				AccountPath:  a.Path,
				AccountType:  a.AccountType,
				Amount:       l.Amount,
				CurrencyCode: l.CurrencyCode,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out
}

func (r *JournalRepository) SumByCurrency(ctx context.Context, filter domain.PostingFilter) (domain.BalanceVector, error) {
	v := domain.NewBalanceVector()
	for _, p := range r.postings(filter) {
		v.Add(p.CurrencyCode, p.Amount)
	}
	return v, nil
}

func (r *JournalRepository) SumByAccount(ctx context.Context, filter domain.PostingFilter) (map[string]domain.BalanceVector, error) {
	out := make(map[string]domain.BalanceVector)
	for _, p := range r.postings(filter) {
		v, ok := out[p.AccountID]
		if !ok {
			v = domain.NewBalanceVector()
			out[p.AccountID] = v
		}
		v.Add(p.CurrencyCode, p.Amount)
	}
	return out, nil
}

func (r *JournalRepository) ListPostings(ctx context.Context, filter domain.PostingFilter) ([]domain.Posting, error) {
	return r.postings(filter), nil
}
