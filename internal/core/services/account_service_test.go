package services_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/core/services"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
	"github.com/cupkappu/mbooking-sub001/internal/platform/logger"
)

const tenantA = "tenant-a"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	ctx      context.Context
	userID   string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo,
		services.WithAccountClock(func() time.Time { return fixedNow }))
	suite.ctx = operationCtx()
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) account(id, path string, depth int, parentID *string) *domain.Account {
	return &domain.Account{
		AccountID:       id,
		TenantID:        tenantA,
		Name:            path,
		AccountType:     domain.Asset,
		CurrencyCode:    "USD",
		ParentAccountID: parentID,
		Path:            path,
		Depth:           depth,
		IsActive:        true,
	}
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_RootSuccess() {
	req := dto.CreateAccountRequest{
		Name:         "Assets",
		AccountType:  domain.Asset,
		CurrencyCode: "usd",
	}

	suite.mockRepo.On("SaveAccount", suite.ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Path == "assets" && a.Depth == 0 && a.ParentAccountID == nil && a.TenantID == tenantA
	})).Return(nil).Once()

	created, err := suite.service.CreateAccount(suite.ctx, tenantA, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.AccountID)
	suite.Equal("USD", created.CurrencyCode)
	suite.True(created.IsActive)
	suite.Equal(suite.userID, created.CreatedBy)
	suite.Equal(fixedNow, created.CreatedAt)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_LogsUnderOperation() {
	var buf bytes.Buffer
	ctx := logger.WithLogger(context.Background(), logger.New(&buf, true, "debug"))
	suite.mockRepo.On("SaveAccount", mock.MatchedBy(func(c context.Context) bool {
		return logger.OperationID(c) != ""
	}), mock.AnythingOfType("domain.Account")).Return(nil).Once()

	_, err := suite.service.CreateAccount(ctx, tenantA, dto.CreateAccountRequest{
		Name:         "Assets",
		AccountType:  domain.Asset,
		CurrencyCode: "USD",
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Contains(buf.String(), `"operation_id"`)
	suite.Contains(buf.String(), `"tenant_id":"tenant-a"`)
	suite.Empty(logger.OperationID(ctx))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ChildPathAndDepth() {
	parent := suite.account("p1", "assets:bank", 1, strPtr("root"))
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "p1").Return(parent, nil).Once()
	suite.mockRepo.On("SaveAccount", suite.ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	created, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:            "Main Checking",
		AccountType:     domain.Asset,
		CurrencyCode:    "USD",
		ParentAccountID: strPtr("p1"),
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("assets:bank:main-checking", created.Path)
	suite.Equal(2, created.Depth)
	suite.Equal("p1", *created.ParentAccountID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ParentNotFound() {
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "missing").Return(nil, apperrors.ErrNotFound).Once()

	created, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:            "Orphan",
		AccountType:     domain.Asset,
		CurrencyCode:    "USD",
		ParentAccountID: strPtr("missing"),
	}, suite.userID)

	suite.Nil(created)
	var pnf *apperrors.ParentNotFoundError
	suite.Require().ErrorAs(err, &pnf)
	suite.Equal("missing", pnf.ParentID)
	suite.Equal(apperrors.KindParentNotFound, apperrors.KindOf(err))
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidCurrency() {
	created, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:         "Gold",
		AccountType:  domain.Asset,
		CurrencyCode: "XYZ",
	}, suite.userID)

	suite.Nil(created)
	suite.Equal(apperrors.KindInvalidCurrency, apperrors.KindOf(err))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidType() {
	_, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:         "Weird",
		AccountType:  domain.AccountType("savings"),
		CurrencyCode: "USD",
	}, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicatePath() {
	dup := &apperrors.DuplicateError{Resource: "account", Key: "assets"}
	suite.mockRepo.On("SaveAccount", suite.ctx, mock.AnythingOfType("domain.Account")).Return(dup).Once()

	_, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:         "Assets",
		AccountType:  domain.Asset,
		CurrencyCode: "USD",
	}, suite.userID)

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_SaveError() {
	suite.mockRepo.On("SaveAccount", suite.ctx, mock.AnythingOfType("domain.Account")).Return(assert.AnError).Once()

	created, err := suite.service.CreateAccount(suite.ctx, tenantA, dto.CreateAccountRequest{
		Name:         "Test Error",
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
	}, suite.userID)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, assert.AnError)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_OtherTenant() {
	other := suite.account("a1", "assets", 0, nil)
	other.TenantID = "tenant-b"
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(other, nil).Once()

	account, err := suite.service.GetAccountByID(suite.ctx, tenantA, "a1")

	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestReparent_RejectsSelf() {
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(suite.account("a1", "assets", 0, nil), nil).Once()

	_, err := suite.service.Reparent(suite.ctx, tenantA, "a1", strPtr("a1"), suite.userID)

	var circ *apperrors.CircularReferenceError
	suite.Require().ErrorAs(err, &circ)
	suite.mockRepo.AssertNotCalled(suite.T(), "MoveSubtree", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestReparent_RejectsDescendant() {
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(suite.account("a1", "assets", 0, nil), nil).Once()
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a3").Return(suite.account("a3", "assets:bank:checking", 2, strPtr("a2")), nil).Once()

	_, err := suite.service.Reparent(suite.ctx, tenantA, "a1", strPtr("a3"), suite.userID)

	suite.Equal(apperrors.KindCircularReference, apperrors.KindOf(err))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestReparent_RewritesSubtree() {
	bank := suite.account("a2", "assets:bank", 1, strPtr("a1"))
	holdings := suite.account("h1", "holdings", 0, nil)

	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a2").Return(bank, nil).Once()
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "h1").Return(holdings, nil).Once()

	expected := domain.SubtreeMove{
		AccountID:       "a2",
		ParentAccountID: strPtr("h1"),
		ParentPath:      "holdings",
		OldPath:         "assets:bank",
		NewPath:         "holdings:bank",
		DepthDelta:      0,
	}
	suite.mockRepo.On("MoveSubtree", suite.ctx, tenantA, expected, suite.userID, fixedNow).Return(3, nil).Once()

	moved, err := suite.service.Reparent(suite.ctx, tenantA, "a2", strPtr("h1"), suite.userID)

	suite.Require().NoError(err)
	suite.Equal("holdings:bank", moved.Path)
	suite.Equal(1, moved.Depth)
	suite.Equal("h1", *moved.ParentAccountID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestReparent_ToRoot() {
	bank := suite.account("a2", "assets:bank", 1, strPtr("a1"))
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a2").Return(bank, nil).Once()
	suite.mockRepo.On("MoveSubtree", suite.ctx, tenantA, mock.MatchedBy(func(m domain.SubtreeMove) bool {
		return m.NewPath == "bank" && m.OldPath == "assets:bank" && m.DepthDelta == -1 && m.ParentAccountID == nil && m.ParentPath == ""
	}), suite.userID, fixedNow).Return(1, nil).Once()

	moved, err := suite.service.Reparent(suite.ctx, tenantA, "a2", nil, suite.userID)

	suite.Require().NoError(err)
	suite.True(moved.IsRoot())
	suite.Equal("bank", moved.Path)
	suite.Equal(0, moved.Depth)
}

func (suite *AccountServiceTestSuite) TestReparent_ConflictIsReturned() {
	bank := suite.account("a2", "assets:bank", 1, strPtr("a1"))
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a2").Return(bank, nil).Once()
	suite.mockRepo.On("MoveSubtree", suite.ctx, tenantA, mock.Anything, suite.userID, fixedNow).
		Return(0, fmt.Errorf("%w: account a2 moved", apperrors.ErrConflict)).Once()

	moved, err := suite.service.Reparent(suite.ctx, tenantA, "a2", nil, suite.userID)

	suite.Nil(moved)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *AccountServiceTestSuite) TestReparent_SameParentIsNoop() {
	bank := suite.account("a2", "assets:bank", 1, strPtr("a1"))
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a2").Return(bank, nil).Once()
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(suite.account("a1", "assets", 0, nil), nil).Once()

	moved, err := suite.service.Reparent(suite.ctx, tenantA, "a2", strPtr("a1"), suite.userID)

	suite.Require().NoError(err)
	suite.Equal("assets:bank", moved.Path)
	suite.mockRepo.AssertNotCalled(suite.T(), "MoveSubtree", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestIsDescendantOf() {
	root := *suite.account("a1", "assets", 0, nil)
	child := *suite.account("a2", "assets:bank", 1, strPtr("a1"))
	lookalike := *suite.account("a5", "assetsx", 0, nil)

	suite.True(suite.service.IsDescendantOf(child, root))
	suite.False(suite.service.IsDescendantOf(root, root))
	suite.False(suite.service.IsDescendantOf(root, child))
	suite.False(suite.service.IsDescendantOf(lookalike, root))
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_AlreadyInactive() {
	inactive := suite.account("a1", "assets", 0, nil)
	inactive.IsActive = false
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(inactive, nil).Once()

	err := suite.service.DeactivateAccount(suite.ctx, tenantA, "a1", suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_KeepsPath() {
	account := suite.account("a1", "assets", 0, nil)
	suite.mockRepo.On("FindAccountByID", suite.ctx, tenantA, "a1").Return(account, nil).Once()
	suite.mockRepo.On("UpdateAccount", suite.ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Name == "Everything I Own" && a.Path == "assets"
	})).Return(nil).Once()

	updated, err := suite.service.UpdateAccount(suite.ctx, tenantA, "a1", dto.UpdateAccountRequest{Name: strPtr("Everything I Own")}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("assets", updated.Path)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Run Test Suite ---

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
