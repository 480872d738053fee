package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/internal/cart"
	"github.com/pagebound/bookstore-backend/internal/catalog"
	"github.com/pagebound/bookstore-backend/internal/orders"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/metrics"
	"github.com/pagebound/bookstore-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes checkout orchestration.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, shipping types.ShippingDetails) (*models.Order, error)
}

type service struct {
	tx         txRunner
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	books      catalog.Repository
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service. Metrics may be nil.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	books catalog.Repository,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("book stock required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		books:      books,
		metrics:    checkoutMetrics,
	}, nil
}

// InsufficientStockDetails reports the line that failed the stock guard.
type InsufficientStockDetails struct {
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

// Place converts the user's cart into a pending order. The whole conversion
// runs in one transaction: stock is taken with a guarded decrement per line,
// line prices are snapshotted, and the cart is drained. Any line failing the
// guard rolls the entire checkout back with stock and cart untouched.
func (s *service) Place(ctx context.Context, userID uuid.UUID, shipping types.ShippingDetails) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if missing := shipping.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping details are incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		books := s.books.WithTx(tx)

		lines, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			book, err := books.FindByID(ctx, line.BookID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "a book in the cart is no longer available")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
			}

			ok, err := books.DecrementStock(ctx, book.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock changed before checkout completed").
					WithDetails(InsufficientStockDetails{
						BookID:    book.ID,
						Title:     book.Title,
						Available: book.StockQuantity,
						Requested: line.Quantity,
					})
			}

			bookID := book.ID
			items = append(items, models.OrderItem{
				BookID:          &bookID,
				Title:           book.Title,
				Quantity:        line.Quantity,
				PriceAtPurchase: book.Price,
			})
			total = total.Add(book.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order, err := ordersRepo.Create(ctx, &models.Order{
			UserID:           userID,
			TotalAmount:      total,
			Status:           enums.OrderStatusPendingPayment,
			ShippingName:     optional(shipping.Name),
			ShippingAddress1: optional(shipping.Address1),
			ShippingAddress2: optional(shipping.Address2),
			ShippingCity:     optional(shipping.City),
			ShippingState:    optional(shipping.State),
			ShippingZipCode:  optional(shipping.ZipCode),
			ShippingCountry:  optional(shipping.Country),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		if err := cartRepo.DeleteByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drain cart")
		}

		order.Items = items
		result = order
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.metrics.IncPlaced()
	return result, nil
}

func (s *service) countRejection(err error) {
	coded := pkgerrors.As(err)
	if coded == nil {
		s.metrics.IncRejected("internal")
		return
	}
	switch coded.Code() {
	case pkgerrors.CodeEmptyCart:
		s.metrics.IncRejected("empty_cart")
	case pkgerrors.CodeInsufficientStock:
		s.metrics.IncRejected("insufficient_stock")
	default:
		s.metrics.IncRejected(string(coded.Code()))
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
