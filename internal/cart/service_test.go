package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	books := `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT,
  isbn TEXT UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL DEFAULT 0,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  cover_image_filename TEXT,
  category TEXT,
  publication_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  added_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, book_id)
);`
	for _, stmt := range []string{books, cartItems} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type stubBookLoader struct {
	books map[uuid.UUID]*models.Book
}

func (s *stubBookLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

func newCartService(t *testing.T, maxLineQty int, books ...*models.Book) (Service, *gorm.DB) {
	t.Helper()

	conn := setupCartTestDB(t)
	loader := &stubBookLoader{books: map[uuid.UUID]*models.Book{}}
	for _, book := range books {
		loader.books[book.ID] = book
		require.NoError(t, conn.Create(book).Error)
	}

	svc, err := NewService(NewRepository(conn), loader, maxLineQty)
	require.NoError(t, err)
	return svc, conn
}

func testBook(stock int) *models.Book {
	return &models.Book{
		ID:            uuid.New(),
		Title:         "Cart Test Book",
		Price:         decimal.NewFromFloat(9.99),
		StockQuantity: stock,
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	book := testBook(10)
	svc, _ := newCartService(t, 100, book)
	userID := uuid.New()

	first, err := svc.AddItem(context.Background(), userID, book.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, first.Quantity)

	merged, err := svc.AddItem(context.Background(), userID, book.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID, "merging must reuse the existing line")
	assert.Equal(t, 5, merged.Quantity)
}

func TestAddItemRejectsMergedOverStock(t *testing.T) {
	book := testBook(4)
	svc, _ := newCartService(t, 100, book)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, book.ID, 3)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), userID, book.ID, 2)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, coded.Code())

	details, ok := coded.Details().(InsufficientStockDetails)
	require.True(t, ok)
	assert.Equal(t, 4, details.Available)
	assert.Equal(t, 5, details.Requested)
}

func TestAddItemEnforcesLineCap(t *testing.T) {
	book := testBook(500)
	svc, _ := newCartService(t, 100, book)

	_, err := svc.AddItem(context.Background(), uuid.New(), book.ID, 101)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestAddItemUnknownBook(t *testing.T) {
	svc, _ := newCartService(t, 100)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	book := testBook(10)
	svc, conn := newCartService(t, 100, book)
	userID := uuid.New()

	line, err := svc.AddItem(context.Background(), userID, book.ID, 2)
	require.NoError(t, err)

	item, err := svc.UpdateItemQuantity(context.Background(), userID, line.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	err = conn.Where("id = ?", line.ID).First(&models.CartItem{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateItemQuantityChecksStock(t *testing.T) {
	book := testBook(3)
	svc, _ := newCartService(t, 100, book)
	userID := uuid.New()

	line, err := svc.AddItem(context.Background(), userID, book.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(context.Background(), userID, line.ID, 5)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, coded.Code())
}

func TestUpdateItemQuantityRejectsForeignLine(t *testing.T) {
	book := testBook(10)
	svc, _ := newCartService(t, 100, book)

	line, err := svc.AddItem(context.Background(), uuid.New(), book.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(context.Background(), uuid.New(), line.ID, 2)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestRemoveItemRejectsForeignLine(t *testing.T) {
	book := testBook(10)
	svc, _ := newCartService(t, 100, book)

	line, err := svc.AddItem(context.Background(), uuid.New(), book.ID, 1)
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), uuid.New(), line.ID)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestRemoveItemAbsentLineIsSuccess(t *testing.T) {
	svc, _ := newCartService(t, 100)

	// Removing twice, or removing a line that never existed, is not an error.
	err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
}

func TestGetCartComputesTotals(t *testing.T) {
	first := testBook(10)
	second := &models.Book{
		ID:            uuid.New(),
		Title:         "Second Book",
		Price:         decimal.NewFromFloat(5.00),
		StockQuantity: 10,
	}
	svc, _ := newCartService(t, 100, first, second)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, first.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, second.ID, 3)
	require.NoError(t, err)

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	// 2 * 9.99 + 3 * 5.00
	assert.True(t, view.Total.Equal(decimal.NewFromFloat(34.98)), "got total %s", view.Total)
	for _, line := range view.Items {
		if line.Item.BookID == first.ID {
			assert.True(t, line.Subtotal.Equal(decimal.NewFromFloat(19.98)), "got subtotal %s", line.Subtotal)
		}
	}
}

func TestGetCartEmpty(t *testing.T) {
	svc, _ := newCartService(t, 100)

	view, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}
