package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
)

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

// Service exposes cart operations for the storefront.
type Service interface {
	AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo       Repository
	books      bookLoader
	maxLineQty int
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, books bookLoader, maxLineQty int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if maxLineQty <= 0 {
		return nil, fmt.Errorf("max line quantity must be positive")
	}
	return &service{repo: repo, books: books, maxLineQty: maxLineQty}, nil
}

// Line pairs a cart row with its computed subtotal.
type Line struct {
	Item     models.CartItem
	Subtotal decimal.Decimal
}

// View is the customer's cart with computed totals.
type View struct {
	Items []Line
	Total decimal.Decimal
}

// InsufficientStockDetails describes how far a request overshot the shelf.
type InsufficientStockDetails struct {
	BookID    uuid.UUID `json:"book_id"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

// AddItem adds quantity copies of a book to the user's cart, merging with an
// existing line. The merged quantity is checked against current stock and the
// per-line cap before anything is written.
func (s *service) AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}

	existing, err := s.repo.FindByUserAndBook(ctx, userID, bookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	merged := quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if merged > s.maxLineQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cart line cannot exceed %d copies", s.maxLineQty))
	}
	if book.StockQuantity < merged {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for this book").
			WithDetails(InsufficientStockDetails{
				BookID:    bookID,
				Available: book.StockQuantity,
				Requested: merged,
			})
	}

	if existing != nil {
		existing.Quantity = merged
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return updated, nil
	}

	created, err := s.repo.Create(ctx, &models.CartItem{
		UserID:   userID,
		BookID:   bookID,
		Quantity: quantity,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
	}
	return created, nil
}

// UpdateItemQuantity sets the line to an absolute quantity. Zero removes the
// line; any other value is checked against stock and the per-line cap.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity > s.maxLineQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cart line cannot exceed %d copies", s.maxLineQty))
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
		return nil, nil
	}

	if item.Book != nil && item.Book.StockQuantity < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for this book").
			WithDetails(InsufficientStockDetails{
				BookID:    item.BookID,
				Available: item.Book.StockQuantity,
				Requested: quantity,
			})
	}

	item.Quantity = quantity
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	return updated, nil
}

// RemoveItem drops the line from the user's cart. A line that is already
// gone counts as removed.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	return nil
}

// GetCart returns the user's cart with line subtotals and the running total.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}

	view := &View{Items: make([]Line, 0, len(rows)), Total: decimal.Zero}
	for _, row := range rows {
		subtotal := decimal.Zero
		if row.Book != nil {
			subtotal = row.Book.Price.Mul(decimal.NewFromInt(int64(row.Quantity)))
		}
		view.Items = append(view.Items, Line{Item: row, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}

func (s *service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	return item, nil
}
