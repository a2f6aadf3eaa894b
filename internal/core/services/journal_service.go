package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
	"github.com/cupkappu/mbooking-sub001/internal/utils/pagination"
)

const maxEntriesPageSize = 100

// journalService provides journal entry creation, posting and reversal.
type journalService struct {
	BaseService
	journalRepo     portsrepo.JournalRepositoryFacade
	accountRepo     portsrepo.AccountReader
	defaultPageSize int
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithJournalClock overrides the clock used for audit fields and posting times.
func WithJournalClock(clock func() time.Time) JournalServiceOption {
	return func(s *journalService) {
		s.Clock = clock
	}
}

// WithDefaultPageSize sets the page size used when a list request does not give one.
func WithDefaultPageSize(size int) JournalServiceOption {
	return func(s *journalService) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{
		journalRepo:     journalRepo,
		accountRepo:     accountRepo,
		defaultPageSize: 20,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// newEntryNumber builds a human readable entry number from the entry date and a full
// random uuid, so numbers stay unique for the life of a tenant.
func newEntryNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("JE-%s-%s", date.UTC().Format("20060102"), suffix)
}

// CreateEntry validates and persists a new entry with its lines as one atomic unit.
func (s *journalService) CreateEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	ctx = s.StartOperation(ctx, tenantID)
	if len(req.Lines) < 2 {
		return nil, &apperrors.InsufficientLinesError{Count: len(req.Lines)}
	}
	if err := dto.Validate(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create entry request", slog.String("tenant_id", tenantID))
		return nil, err
	}

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		if l.Amount == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d has no amount; auto-balance the entry first", i+1))
		}
		if err := domain.ValidateCurrencyCode(l.CurrencyCode); err != nil {
			return nil, err
		}
		if l.ExchangeRate != nil && !l.ExchangeRate.IsPositive() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d exchange rate must be positive", i+1))
		}
		lines = append(lines, domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			TenantID:     tenantID,
			AccountID:    l.AccountID,
			Amount:       *l.Amount,
			CurrencyCode: domain.NormalizeCurrencyCode(l.CurrencyCode),
			ExchangeRate: l.ExchangeRate,
			Notes:        l.Notes,
			Tags:         l.Tags,
			Synthesized:  l.Synthesized,
			LineOrder:    i,
		})
	}

	if err := accounting.ValidateEntryBalance(lines); err != nil {
		s.LogWarn(ctx, err, "Rejected unbalanced entry", slog.String("tenant_id", tenantID))
		return nil, err
	}

	if err := s.validateLineAccounts(ctx, tenantID, lines); err != nil {
		return nil, err
	}

	now := s.Now()
	entry := domain.JournalEntry{
		EntryID:     entryID,
		TenantID:    tenantID,
		EntryNumber: newEntryNumber(req.Date),
		EntryDate:   req.Date.UTC(),
		Description: req.Description,
		Status:      domain.Pending,
		Lines:       lines,
		AuditFields: domain.NewAuditFields(userID, now),
	}
	if req.Post {
		entry.Status = domain.Posted
		entry.PostedAt = &now
	}

	if err := s.journalRepo.SaveEntry(ctx, entry); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save journal entry",
				slog.String("entry_id", entryID),
				slog.String("tenant_id", tenantID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry created successfully",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("status", string(entry.Status)),
		slog.Int("lines", len(lines)),
		slog.String("tenant_id", tenantID))
	return &entry, nil
}

// validateLineAccounts checks that every referenced account exists in the tenant and is active.
func (s *journalService) validateLineAccounts(ctx context.Context, tenantID string, lines []domain.JournalLine) error {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load line accounts", slog.String("tenant_id", tenantID))
		return err
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok || account.TenantID != tenantID {
			return apperrors.NewValidationError(fmt.Sprintf("account %s not found", id))
		}
		if !account.IsActive {
			return apperrors.NewValidationError(fmt.Sprintf("account %s is inactive", id))
		}
	}
	return nil
}

// PostEntry moves a pending entry to posted. Posted is terminal.
func (s *journalService) PostEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	ctx = s.StartOperation(ctx, tenantID)
	entry, err := s.GetEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Pending {
		return nil, &apperrors.InvalidTransitionError{Resource: "journal_entry", From: string(entry.Status), To: string(domain.Posted)}
	}

	now := s.Now()
	err = s.journalRepo.UpdateEntryStatus(ctx, tenantID, entryID, domain.Pending, domain.Posted, userID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Another caller posted it between the read and the update.
			return nil, &apperrors.InvalidTransitionError{Resource: "journal_entry", From: string(domain.Posted), To: string(domain.Posted)}
		}
		s.LogError(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	entry.Status = domain.Posted
	entry.PostedAt = &now
	entry.Touch(userID, now)

	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", entryID),
		slog.String("tenant_id", tenantID))
	return entry, nil
}

// ReverseEntry records a posted correcting entry whose lines negate the original.
// Posted entries are never edited or deleted; each entry can be reversed at most once.
func (s *journalService) ReverseEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	ctx = s.StartOperation(ctx, tenantID)
	original, err := s.GetEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: only posted entries can be reversed", apperrors.ErrConflict)
	}
	if original.ReversalOfEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrConflict, entryID)
	}

	now := s.Now()
	reversalID := uuid.NewString()
	lines := accounting.ReverseLines(original.Lines)
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = reversalID
	}

	entryDate := now
	if original.EntryDate.After(entryDate) {
		entryDate = original.EntryDate
	}
	originalID := original.EntryID
	reversal := domain.JournalEntry{
		EntryID:           reversalID,
		TenantID:          tenantID,
		EntryNumber:       newEntryNumber(entryDate),
		EntryDate:         entryDate,
		Description:       "Reversal of " + original.EntryNumber,
		Status:            domain.Posted,
		ReversalOfEntryID: &originalID,
		PostedAt:          &now,
		Lines:             lines,
		AuditFields:       domain.NewAuditFields(userID, now),
	}

	if err := accounting.ValidateEntryBalance(reversal.Lines); err != nil {
		return nil, fmt.Errorf("%w: reversal of %s does not balance: %v", apperrors.ErrInternal, entryID, err)
	}

	if err := s.journalRepo.SaveEntry(ctx, reversal); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save reversal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversalID),
		slog.String("tenant_id", tenantID))
	return &reversal, nil
}

// AutoBalance fills the single empty amount and appends synthesized counter-lines.
func (s *journalService) AutoBalance(ctx context.Context, lines []dto.EntryLineRequest) ([]dto.EntryLineRequest, error) {
	candidates := make([]accounting.CandidateLine, len(lines))
	for i, l := range lines {
		candidates[i] = accounting.CandidateLine{
			AccountID:    l.AccountID,
			Amount:       accounting.AmountFromPtr(l.Amount),
			CurrencyCode: domain.NormalizeCurrencyCode(l.CurrencyCode),
			Notes:        l.Notes,
			Tags:         l.Tags,
			Synthesized:  l.Synthesized,
		}
	}

	balanced, err := accounting.AutoBalance(candidates)
	if err != nil {
		s.LogDebug(ctx, "Auto-balance rejected lines", slog.String("error", err.Error()))
		return nil, err
	}

	out := make([]dto.EntryLineRequest, len(balanced))
	for i, c := range balanced {
		amount := c.Amount.Value()
		line := dto.EntryLineRequest{
			AccountID:    c.AccountID,
			Amount:       &amount,
			CurrencyCode: c.CurrencyCode,
			Notes:        c.Notes,
			Tags:         c.Tags,
			Synthesized:  c.Synthesized,
		}
		if i < len(lines) {
			line.ExchangeRate = lines[i].ExchangeRate
		}
		out[i] = line
	}
	return out, nil
}

func (s *journalService) GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return entry, nil
}

// ListEntries retrieves a page of entries, newest first.
func (s *journalService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := pagination.ClampLimit(params.Limit, s.defaultPageSize, maxEntriesPageSize)
	if params.NextToken != nil && *params.NextToken != "" {
		if _, err := pagination.DecodeEntryCursor(*params.NextToken); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, tenantID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries",
			slog.String("tenant_id", tenantID),
			slog.Int("limit", limit))
		return nil, err
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return &dto.ListEntriesResponse{Entries: entries, NextToken: nextToken}, nil
}
