package repositories_test

import (
	"context"
	"testing"
	"time"

	"doner/internal/models"
	"doner/internal/repositories"
	"doner/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *repositories.GORMStagingLedger
	orders *repositories.GORMOrderRepository
}

func (s *LedgerTestSuite) SetupTest() {
	db := testutil.NewDB(s.T())
	s.ctx = context.Background()
	s.ledger = repositories.NewGORMStagingLedger(db)
	s.orders = repositories.NewGORMOrderRepository(db)
}

func stagedCart(token string, createdAt time.Time) *models.StagedCart {
	return &models.StagedCart{
		TokenKey: models.TokenKey(token),
		UserID:   42,
		Lines: []models.CartLine{
			{ItemID: 1, Name: "Kebab", Price: decimal.RequireFromString("15.99"), Quantity: 2},
		},
		TotalPrice: decimal.RequireFromString("31.98"),
		Currency:   "BYN",
		CreatedAt:  createdAt,
	}
}

func payment() repositories.Payment {
	return repositories.Payment{PayerID: 42, PaidAmount: 3198, PaidAt: time.Now().UTC()}
}

func (s *LedgerTestSuite) TestStageAndGet() {
	cart := stagedCart("token-1", time.Now().UTC())
	s.Require().NoError(s.ledger.Stage(s.ctx, cart))
	s.NotZero(cart.ID)

	got, err := s.ledger.Get(s.ctx, cart.TokenKey)
	s.Require().NoError(err)
	s.Equal("31.98", got.TotalPrice.StringFixed(2))
	s.Require().Len(got.Lines, 1)
	s.Equal("Kebab", got.Lines[0].Name)
	s.True(got.Lines[0].Price.Equal(decimal.RequireFromString("15.99")))

	err = s.ledger.Stage(s.ctx, stagedCart("token-1", time.Now().UTC()))
	s.ErrorIs(err, repositories.ErrDuplicate)

	_, err = s.ledger.Get(s.ctx, models.TokenKey("missing"))
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *LedgerTestSuite) TestReconcileConsumesTokenOnce() {
	cart := stagedCart("token-1", time.Now().UTC())
	s.Require().NoError(s.ledger.Stage(s.ctx, cart))

	order, err := s.ledger.Reconcile(s.ctx, cart.TokenKey, payment())
	s.Require().NoError(err)
	s.NotZero(order.ID)
	s.Equal(int64(42), order.UserID)
	s.Equal(int64(3198), order.PaidAmount)

	_, err = s.ledger.Reconcile(s.ctx, cart.TokenKey, payment())
	s.ErrorIs(err, repositories.ErrNotFound)

	tombstone, err := s.ledger.Tombstone(s.ctx, cart.TokenKey)
	s.Require().NoError(err)
	s.Equal(models.OutcomeReconciled, tombstone.Outcome)
	s.Require().NotNil(tombstone.OrderID)
	s.Equal(order.ID, *tombstone.OrderID)

	staged, err := s.ledger.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), staged)

	n, err := s.orders.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	stored, err := s.orders.GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal("31.98", stored.TotalPrice.StringFixed(2))

	byUser, err := s.orders.GetByUser(s.ctx, 42)
	s.Require().NoError(err)
	s.Len(byUser, 1)
}

func (s *LedgerTestSuite) TestDiscardWritesTombstone() {
	cart := stagedCart("token-1", time.Now().UTC())
	s.Require().NoError(s.ledger.Stage(s.ctx, cart))
	s.Require().NoError(s.ledger.Discard(s.ctx, cart.TokenKey))

	_, err := s.ledger.Get(s.ctx, cart.TokenKey)
	s.ErrorIs(err, repositories.ErrNotFound)

	tombstone, err := s.ledger.Tombstone(s.ctx, cart.TokenKey)
	s.Require().NoError(err)
	s.Equal(models.OutcomeDiscarded, tombstone.Outcome)
	s.Nil(tombstone.OrderID)

	_, err = s.ledger.Reconcile(s.ctx, cart.TokenKey, payment())
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *LedgerTestSuite) TestReapExpiredAndPrune() {
	now := time.Now().UTC()
	s.Require().NoError(s.ledger.Stage(s.ctx, stagedCart("old-1", now.Add(-3*time.Hour))))
	s.Require().NoError(s.ledger.Stage(s.ctx, stagedCart("old-2", now.Add(-2*time.Hour))))
	s.Require().NoError(s.ledger.Stage(s.ctx, stagedCart("fresh", now)))

	reaped, err := s.ledger.ReapExpired(s.ctx, now.Add(-time.Hour), 1)
	s.Require().NoError(err)
	s.Equal(1, reaped)

	// Oldest first.
	tombstone, err := s.ledger.Tombstone(s.ctx, models.TokenKey("old-1"))
	s.Require().NoError(err)
	s.Equal(models.OutcomeExpired, tombstone.Outcome)

	reaped, err = s.ledger.ReapExpired(s.ctx, now.Add(-time.Hour), 10)
	s.Require().NoError(err)
	s.Equal(1, reaped)

	staged, err := s.ledger.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), staged)

	pruned, err := s.ledger.PruneTombstones(s.ctx, time.Now().UTC().Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(int64(2), pruned)

	_, err = s.ledger.Tombstone(s.ctx, models.TokenKey("old-2"))
	s.ErrorIs(err, repositories.ErrNotFound)
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
