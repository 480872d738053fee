package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

// Service exposes order history for customers and order management for the
// back office.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, actorRole enums.UserRole) (*models.Order, error)
}

type service struct {
	repo Repository
}

// NewService builds an orders service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// OrderList bundles an order page with its pagination metadata.
type OrderList struct {
	Orders []models.Order
	Meta   pagination.Meta
}

// InvalidStatusDetails lists the statuses an order may hold.
type InvalidStatusDetails struct {
	Provided      string   `json:"provided"`
	ValidStatuses []string `json:"valid_statuses"`
}

// ListForUser returns the customer's order history, newest first.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	page := pagination.Normalize(params)
	rows, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &OrderList{Orders: rows, Meta: pagination.NewMeta(page, total)}, nil
}

// GetForUser loads one order, rejecting access to other users' orders.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	order, err := s.lookup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// ListAll returns the back-office order queue, newest first.
func (s *service) ListAll(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, invalidStatus(string(*filter.Status))
	}
	page := pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &OrderList{Orders: rows, Meta: pagination.NewMeta(page, total)}, nil
}

// Get loads one order for the back office.
func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.lookup(ctx, orderID)
}

// SetStatus moves the order to the requested status. Any of the known
// statuses may be set from any other; there is no transition graph. Only a
// manager may change status, regardless of how the call was routed.
func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, actorRole enums.UserRole) (*models.Order, error) {
	if actorRole != enums.UserRoleManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	if !status.IsValid() {
		return nil, invalidStatus(string(status))
	}
	if _, err := s.lookup(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	return s.lookup(ctx, orderID)
}

func (s *service) lookup(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func invalidStatus(provided string) error {
	valid := enums.OrderStatuses()
	names := make([]string, 0, len(valid))
	for _, s := range valid {
		names = append(names, string(s))
	}
	return pkgerrors.New(pkgerrors.CodeInvalidStatus, "unknown order status").
		WithDetails(InvalidStatusDetails{Provided: provided, ValidStatuses: names})
}
