package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

const homeShelfSize = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog operations for storefront and back office.
type Service interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context, filter Filter, params pagination.Params) (*BookList, error)
	HomeShelves(ctx context.Context) (*HomeShelves, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateBookInput captures the payload for a new catalog listing.
type CreateBookInput struct {
	Title              string
	Author             *string
	ISBN               *string
	Description        *string
	Price              decimal.Decimal
	StockQuantity      int
	CoverImageFilename *string
	Category           *string
	PublicationDate    *time.Time
}

// UpdateBookInput carries partial updates; nil fields are left unchanged.
type UpdateBookInput struct {
	Title              *string
	Author             *string
	ISBN               *string
	Description        *string
	Price              *decimal.Decimal
	StockQuantity      *int
	CoverImageFilename *string
	Category           *string
	PublicationDate    *time.Time
}

// BookList bundles a catalog page with its pagination metadata.
type BookList struct {
	Books []models.Book
	Meta  pagination.Meta
}

// HomeShelves carries the storefront landing shelves.
type HomeShelves struct {
	Featured    []models.Book
	NewArrivals []models.Book
}

// CreateBook validates and persists a new listing.
func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	book := &models.Book{
		Title:              strings.TrimSpace(input.Title),
		Author:             input.Author,
		ISBN:               normalizeISBN(input.ISBN),
		Description:        input.Description,
		Price:              input.Price,
		StockQuantity:      input.StockQuantity,
		CoverImageFilename: input.CoverImageFilename,
		Category:           input.Category,
		PublicationDate:    input.PublicationDate,
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this ISBN already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create book")
	}
	return created, nil
}

// UpdateBook applies the provided partial update to an existing listing.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		book.Title = title
	}
	if input.Author != nil {
		book.Author = input.Author
	}
	if input.ISBN != nil {
		book.ISBN = normalizeISBN(input.ISBN)
	}
	if input.Description != nil {
		book.Description = input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		book.Price = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		book.StockQuantity = *input.StockQuantity
	}
	if input.CoverImageFilename != nil {
		book.CoverImageFilename = input.CoverImageFilename
	}
	if input.Category != nil {
		book.Category = input.Category
	}
	if input.PublicationDate != nil {
		book.PublicationDate = input.PublicationDate
	}

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this ISBN already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update book")
	}
	return updated, nil
}

// GetBook loads one listing.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return book, nil
}

// DeleteBook removes the listing and its cart lines atomically. Order items
// keep their snapshots with the book reference detached.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return mapLookupErr(err)
	}
	return nil
}

// ListBooks returns the filtered, paginated catalog.
func (s *service) ListBooks(ctx context.Context, filter Filter, params pagination.Params) (*BookList, error) {
	page := pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list books")
	}
	return &BookList{Books: rows, Meta: pagination.NewMeta(page, total)}, nil
}

// HomeShelves loads the landing page shelves.
func (s *service) HomeShelves(ctx context.Context) (*HomeShelves, error) {
	featured, err := s.repo.ListNewest(ctx, homeShelfSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load featured books")
	}
	arrivals, err := s.repo.ListRecentlyPublished(ctx, homeShelfSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load new arrivals")
	}
	return &HomeShelves{Featured: featured, NewArrivals: arrivals}, nil
}

func normalizeISBN(isbn *string) *string {
	if isbn == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*isbn)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
}
