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
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	separator   string
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithPathSeparator sets the separator used to build materialized paths.
func WithPathSeparator(sep string) AccountServiceOption {
	return func(s *accountService) {
		if sep != "" {
			s.separator = sep
		}
	}
}

// WithAccountClock overrides the clock used for audit fields.
func WithAccountClock(clock func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		s.Clock = clock
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
		separator:   accounting.DefaultPathSeparator,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	ctx = s.StartOperation(ctx, tenantID)
	if err := dto.Validate(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create account request", slog.String("tenant_id", tenantID))
		return nil, err
	}

	segment := accounting.Slug(req.Name)
	if segment == "" {
		return nil, apperrors.NewValidationError("account name must contain at least one letter or digit")
	}
	if err := domain.ValidateCurrencyCode(req.CurrencyCode); err != nil {
		s.LogWarn(ctx, err, "Invalid currency code", slog.String("currency_code", req.CurrencyCode))
		return nil, err
	}

	parentPath := ""
	depth := 0
	var parentID *string
	if req.ParentAccountID != nil {
		parent, err := s.findParent(ctx, tenantID, *req.ParentAccountID)
		if err != nil {
			return nil, err
		}
		parentPath = parent.Path
		depth = parent.Depth + 1
		id := parent.AccountID
		parentID = &id
	}

	account := domain.Account{
		AccountID:       uuid.NewString(),
		TenantID:        tenantID,
		Name:            strings.TrimSpace(req.Name),
		AccountType:     req.AccountType,
		CurrencyCode:    domain.NormalizeCurrencyCode(req.CurrencyCode),
		ParentAccountID: parentID,
		Path:            accounting.JoinPath(parentPath, segment, s.separator),
		Depth:           depth,
		Description:     req.Description,
		IsActive:        true,
		AuditFields:     domain.NewAuditFields(userID, s.Now()),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			s.LogWarn(ctx, err, "Parent moved while creating account",
				slog.String("path", account.Path),
				slog.String("tenant_id", tenantID))
		case !errors.Is(err, apperrors.ErrDuplicate):
			s.LogError(ctx, err, "Failed to save account",
				slog.String("account_id", account.AccountID),
				slog.String("tenant_id", tenantID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("path", account.Path),
		slog.String("tenant_id", tenantID))
	return &account, nil
}

// findParent loads a prospective parent. Missing parents, including those of other tenants, are reported as ParentNotFoundError.
func (s *accountService) findParent(ctx context.Context, tenantID, parentID string) (*domain.Account, error) {
	parent, err := s.accountRepo.FindAccountByID(ctx, tenantID, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, &apperrors.ParentNotFoundError{ParentID: parentID}
		}
		s.LogError(ctx, err, "Failed to find parent account", slog.String("parent_id", parentID))
		return nil, err
	}
	if parent.TenantID != tenantID {
		return nil, &apperrors.ParentNotFoundError{ParentID: parentID}
	}
	if !parent.IsActive {
		return nil, apperrors.NewValidationError(fmt.Sprintf("parent account %s is inactive", parentID))
	}
	return parent, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err
	}

	// Return NotFound to obscure existence from other tenants
	if account.TenantID != tenantID {
		s.LogDebug(ctx, "Account found but belongs to different tenant",
			slog.String("account_id", accountID),
			slog.String("tenant_id", tenantID))
		return nil, apperrors.ErrNotFound
	}

	return account, nil
}

func (s *accountService) GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts by IDs",
			slog.Int("count", len(accountIDs)),
			slog.String("tenant_id", tenantID))
		return nil, err
	}
	for id, account := range accounts {
		if account.TenantID != tenantID {
			delete(accounts, id)
		}
	}
	return accounts, nil
}

func (s *accountService) ListTree(ctx context.Context, tenantID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccountsByPath(ctx, tenantID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to list accounts for tenant %s: %w", tenantID, err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountService) ListSubtree(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	root, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListSubtree(ctx, tenantID, root.Path)
	if err != nil {
		s.LogError(ctx, err, "Failed to list subtree",
			slog.String("account_id", accountID),
			slog.String("path", root.Path))
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) ListChildren(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	if _, err := s.GetAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	children, err := s.accountRepo.ListChildren(ctx, tenantID, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list child accounts", slog.String("account_id", accountID))
		return nil, err
	}
	if children == nil {
		return []domain.Account{}, nil
	}
	return children, nil
}

func (s *accountService) IsDescendantOf(candidate, ancestor domain.Account) bool {
	return candidate.TenantID == ancestor.TenantID &&
		accounting.IsDescendantPath(candidate.Path, ancestor.Path, s.separator)
}

func (s *accountService) UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	ctx = s.StartOperation(ctx, tenantID)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	// The path segment is fixed at creation; renaming only changes the display name.
	if req.Name != nil && strings.TrimSpace(*req.Name) != account.Name {
		account.Name = strings.TrimSpace(*req.Name)
		updated = true
	}
	if req.Description != nil && *req.Description != account.Description {
		account.Description = *req.Description
		updated = true
	}
	if req.IsActive != nil && *req.IsActive != account.IsActive {
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.Touch(userID, s.Now())
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated successfully",
		slog.String("account_id", accountID),
		slog.String("tenant_id", tenantID))
	return account, nil
}

// Reparent moves an account under newParentID (nil means root). The account and every
// descendant present when the store applies the move get their path prefix and depth rewritten.
func (s *accountService) Reparent(ctx context.Context, tenantID string, accountID string, newParentID *string, userID string) (*domain.Account, error) {
	ctx = s.StartOperation(ctx, tenantID)
	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	parentPath := ""
	newDepth := 0
	var parentID *string
	if newParentID != nil {
		if *newParentID == accountID {
			return nil, &apperrors.CircularReferenceError{AccountID: accountID, ParentID: *newParentID}
		}
		parent, err := s.findParent(ctx, tenantID, *newParentID)
		if err != nil {
			return nil, err
		}
		if accounting.InSubtree(parent.Path, account.Path, s.separator) {
			err := &apperrors.CircularReferenceError{AccountID: accountID, ParentID: parent.AccountID}
			s.LogWarn(ctx, err, "Rejected reparent under own descendant",
				slog.String("account_id", accountID),
				slog.String("parent_id", parent.AccountID))
			return nil, err
		}
		parentPath = parent.Path
		newDepth = parent.Depth + 1
		id := parent.AccountID
		parentID = &id
	}

	oldPath := account.Path
	newPath := accounting.JoinPath(parentPath, accounting.LastSegment(oldPath, s.separator), s.separator)
	if newPath == oldPath && sameParent(account.ParentAccountID, parentID) {
		return account, nil
	}

	move := domain.SubtreeMove{
		AccountID:       accountID,
		ParentAccountID: parentID,
		ParentPath:      parentPath,
		OldPath:         oldPath,
		NewPath:         newPath,
		DepthDelta:      newDepth - account.Depth,
	}
	now := s.Now()
	rewritten, err := s.accountRepo.MoveSubtree(ctx, tenantID, move, userID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Rejected reparent", slog.String("account_id", accountID))
		} else {
			s.LogError(ctx, err, "Failed to rewrite account paths", slog.String("account_id", accountID))
		}
		return nil, err
	}

	account.ParentAccountID = parentID
	account.Path = newPath
	account.Depth = newDepth
	account.Touch(userID, now)

	s.LogInfo(ctx, "Account reparented successfully",
		slog.String("account_id", accountID),
		slog.String("old_path", oldPath),
		slog.String("new_path", newPath),
		slog.Int("rewritten", rewritten),
		slog.String("tenant_id", tenantID))
	return account, nil
}

func sameParent(a, b *string) bool {
	if a == nil || *a == "" {
		return b == nil || *b == ""
	}
	return b != nil && *a == *b
}

// DeactivateAccount marks an account as inactive. Accounts are never physically deleted.
func (s *accountService) DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error {
	ctx = s.StartOperation(ctx, tenantID)
	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return apperrors.NewValidationError(fmt.Sprintf("account %s is already inactive", accountID))
	}

	if err := s.accountRepo.DeactivateAccount(ctx, tenantID, accountID, userID, s.Now()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		}
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully",
		slog.String("account_id", accountID),
		slog.String("tenant_id", tenantID))
	return nil
}
