package services

import (
	"context"
	"errors"
	"fmt"

	"doner/internal/models"
	"doner/internal/repositories"
)

// OrderService handles read access to finalized orders. Orders are created
// only by ConfirmationService.
type OrderService struct {
	orderRepo repositories.OrderRepository
	adminID   int64
}

// NewOrderService creates a new OrderService. The administrator may read
// every order; everyone else sees only their own. An adminID of 0 means
// nobody has that access.
func NewOrderService(orderRepo repositories.OrderRepository, adminID int64) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		adminID:   adminID,
	}
}

func (s *OrderService) isAdmin(callerID int64) bool {
	return s.adminID != 0 && callerID == s.adminID
}

// ListOrders returns the caller's orders. The administrator may pass userID
// to read one payer's history, or 0 for every order.
func (s *OrderService) ListOrders(ctx context.Context, callerID, userID int64) ([]models.Order, error) {
	if callerID <= 0 {
		return nil, ErrUnauthorized
	}
	if s.isAdmin(callerID) {
		if userID == 0 {
			return s.orderRepo.GetAll(ctx)
		}
		return s.orderRepo.GetByUser(ctx, userID)
	}
	if userID != 0 && userID != callerID {
		return nil, fmt.Errorf("%w: user %d cannot read orders of user %d", ErrUnauthorized, callerID, userID)
	}
	return s.orderRepo.GetByUser(ctx, callerID)
}

// GetOrder retrieves a single order by its ID. Orders of other payers are
// reported as not found unless the caller is the administrator.
func (s *OrderService) GetOrder(ctx context.Context, callerID int64, id uint) (*models.Order, error) {
	if callerID <= 0 {
		return nil, ErrUnauthorized
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
		}
		return nil, err
	}
	if order.UserID != callerID && !s.isAdmin(callerID) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return order, nil
}
