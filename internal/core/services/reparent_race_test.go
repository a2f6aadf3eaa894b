package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/core/services"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
	"github.com/cupkappu/mbooking-sub001/internal/platform/config"
	"github.com/cupkappu/mbooking-sub001/internal/repositories/memory"
)

// interleavingAccountRepo runs onLookup once, right after the account with id trigger has
// been read, so a write lands between a service's read and its own write.
type interleavingAccountRepo struct {
	portsrepo.AccountRepositoryFacade
	trigger  string
	onLookup func()
}

func (r *interleavingAccountRepo) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	account, err := r.AccountRepositoryFacade.FindAccountByID(ctx, tenantID, accountID)
	if accountID == r.trigger && r.onLookup != nil {
		hook := r.onLookup
		r.onLookup = nil
		hook()
	}
	return account, err
}

type ReparentInterleavingTestSuite struct {
	suite.Suite
	ctx      context.Context
	accounts *interleavingAccountRepo
	ledger   *portssvc.ServiceContainer
}

func (suite *ReparentInterleavingTestSuite) SetupTest() {
	suite.ctx = context.Background()
	repos := memory.NewRepositoryProvider(memory.NewStore(":"))
	suite.accounts = &interleavingAccountRepo{AccountRepositoryFacade: repos.AccountRepo}
	repos.AccountRepo = suite.accounts
	suite.ledger = services.NewServiceContainer(&config.Config{
		RateCacheTTL:         time.Minute,
		RateCacheCleanup:     5 * time.Minute,
		AccountPathSeparator: ":",
		DefaultPageSize:      20,
	}, repos)
}

func TestReparentInterleavingTestSuite(t *testing.T) {
	suite.Run(t, new(ReparentInterleavingTestSuite))
}

func (suite *ReparentInterleavingTestSuite) create(name string, parent *domain.Account) *domain.Account {
	req := dto.CreateAccountRequest{Name: name, AccountType: domain.Asset, CurrencyCode: "USD"}
	if parent != nil {
		req.ParentAccountID = &parent.AccountID
	}
	account, err := suite.ledger.Account.CreateAccount(suite.ctx, tenantA, req, "user-1")
	suite.Require().NoError(err)
	return account
}

func (suite *ReparentInterleavingTestSuite) TestChildCreatedDuringReparentIsMoved() {
	a := suite.create("A", nil)
	b := suite.create("B", nil)
	x := suite.create("X", a)

	var y *domain.Account
	suite.accounts.trigger = b.AccountID
	suite.accounts.onLookup = func() { y = suite.create("Y", x) }

	moved, err := suite.ledger.Account.Reparent(suite.ctx, tenantA, x.AccountID, &b.AccountID, "user-1")
	suite.Require().NoError(err)
	suite.Require().NotNil(y)
	suite.Equal("b:x", moved.Path)

	child, err := suite.ledger.Account.GetAccountByID(suite.ctx, tenantA, y.AccountID)
	suite.Require().NoError(err)
	suite.Equal("b:x:y", child.Path)
	suite.Equal(2, child.Depth)
	suite.True(suite.ledger.Account.IsDescendantOf(*child, *moved))

	subtree, err := suite.ledger.Account.ListSubtree(suite.ctx, tenantA, b.AccountID)
	suite.Require().NoError(err)
	suite.Len(subtree, 3)
}

func (suite *ReparentInterleavingTestSuite) TestCreateUnderMovedParentConflicts() {
	a := suite.create("A", nil)
	b := suite.create("B", nil)
	x := suite.create("X", a)

	// X moves after CreateAccount has read it as a:x
	suite.accounts.trigger = x.AccountID
	suite.accounts.onLookup = func() {
		_, err := suite.ledger.Account.Reparent(suite.ctx, tenantA, x.AccountID, &b.AccountID, "user-1")
		suite.Require().NoError(err)
	}

	_, err := suite.ledger.Account.CreateAccount(suite.ctx, tenantA,
		dto.CreateAccountRequest{Name: "Y", AccountType: domain.Asset, CurrencyCode: "USD", ParentAccountID: &x.AccountID}, "user-1")
	suite.ErrorIs(err, apperrors.ErrConflict)

	tree, err := suite.ledger.Account.ListTree(suite.ctx, tenantA)
	suite.Require().NoError(err)
	for _, account := range tree {
		suite.NotEqual("a:x:y", account.Path)
	}
}
