package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/internal/cart"
	"github.com/pagebound/bookstore-backend/internal/catalog"
	"github.com/pagebound/bookstore-backend/internal/orders"
	"github.com/pagebound/bookstore-backend/pkg/db"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/types"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  added_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, book_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_date DATETIME,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending_payment',
  shipping_name TEXT,
  shipping_address1 TEXT,
  shipping_address2 TEXT,
  shipping_city TEXT,
  shipping_state TEXT,
  shipping_zip_code TEXT,
  shipping_country TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  book_id TEXT,
  title TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_purchase NUMERIC NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newCheckoutService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(
		db.FromGorm(conn),
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		catalog.NewRepository(conn),
		nil,
	)
	require.NoError(t, err)
	return svc
}

func seedCheckoutBook(t *testing.T, conn *gorm.DB, price float64, stock int) models.Book {
	t.Helper()

	book := models.Book{
		ID:            uuid.New(),
		Title:         "Checkout Book " + uuid.NewString()[:8],
		Price:         decimal.NewFromFloat(price),
		StockQuantity: stock,
	}
	require.NoError(t, conn.Create(&book).Error)
	return book
}

func seedCartLine(t *testing.T, conn *gorm.DB, userID uuid.UUID, bookID uuid.UUID, qty int) {
	t.Helper()

	require.NoError(t, conn.Create(&models.CartItem{
		ID:       uuid.New(),
		UserID:   userID,
		BookID:   bookID,
		Quantity: qty,
	}).Error)
}

func validShipping() types.ShippingDetails {
	return types.ShippingDetails{
		Name:     "Jordan Reader",
		Address1: "12 Shelf Lane",
		City:     "Booktown",
		ZipCode:  "12345",
		Country:  "US",
	}
}

func TestPlaceConvertsCartToOrder(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	userID := uuid.New()

	first := seedCheckoutBook(t, conn, 10.00, 5)
	second := seedCheckoutBook(t, conn, 7.50, 5)
	seedCartLine(t, conn, userID, first.ID, 2)
	seedCartLine(t, conn, userID, second.ID, 1)

	order, err := svc.Place(context.Background(), userID, validShipping())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, enums.OrderStatusPendingPayment, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(27.50)), "got total %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		require.NotNil(t, item.BookID)
		switch *item.BookID {
		case first.ID:
			assert.Equal(t, first.Title, item.Title)
			assert.True(t, item.PriceAtPurchase.Equal(decimal.NewFromFloat(10.00)))
			assert.Equal(t, 2, item.Quantity)
		case second.ID:
			assert.Equal(t, second.Title, item.Title)
			assert.True(t, item.PriceAtPurchase.Equal(decimal.NewFromFloat(7.50)))
			assert.Equal(t, 1, item.Quantity)
		default:
			t.Fatalf("unexpected order item for book %s", *item.BookID)
		}
	}

	var reloaded models.Book
	require.NoError(t, conn.Where("id = ?", first.ID).First(&reloaded).Error)
	assert.Equal(t, 3, reloaded.StockQuantity)

	var cartCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.EqualValues(t, 0, cartCount, "cart must be drained after checkout")

	assert.NotNil(t, order.ShippingName)
	assert.Nil(t, order.ShippingAddress2, "blank shipping fields stay null")
}

func TestPlaceEmptyCart(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)

	_, err := svc.Place(context.Background(), uuid.New(), validShipping())
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeEmptyCart, coded.Code())
}

func TestPlaceIncompleteShipping(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)

	shipping := validShipping()
	shipping.ZipCode = ""
	shipping.Country = ""

	_, err := svc.Place(context.Background(), uuid.New(), shipping)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())

	details, ok := coded.Details().(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"zip_code", "country"}, details["missing_fields"])
}

func TestPlaceInsufficientStockRollsBackEverything(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	userID := uuid.New()

	plenty := seedCheckoutBook(t, conn, 10.00, 10)
	scarce := seedCheckoutBook(t, conn, 5.00, 1)
	seedCartLine(t, conn, userID, plenty.ID, 2)
	seedCartLine(t, conn, userID, scarce.ID, 3)

	_, err := svc.Place(context.Background(), userID, validShipping())
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeInsufficientStock, coded.Code())

	// Nothing moved: stock, cart, and order tables are all untouched.
	var reloaded models.Book
	require.NoError(t, conn.Where("id = ?", plenty.ID).First(&reloaded).Error)
	assert.Equal(t, 10, reloaded.StockQuantity)

	var cartCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.EqualValues(t, 2, cartCount)

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Where("user_id = ?", userID).Count(&orderCount).Error)
	assert.EqualValues(t, 0, orderCount)
}

func TestPlaceBookRemovedFromCatalog(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	userID := uuid.New()

	seedCartLine(t, conn, userID, uuid.New(), 1)

	_, err := svc.Place(context.Background(), userID, validShipping())
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestPlaceSnapshotsSurviveLaterPriceEdits(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)

	userID := uuid.New()
	book := seedCheckoutBook(t, conn, 12.00, 5)
	seedCartLine(t, conn, userID, book.ID, 1)

	placed, err := svc.Place(context.Background(), userID, validShipping())
	require.NoError(t, err)

	require.NoError(t, conn.Model(&models.Book{}).
		Where("id = ?", book.ID).
		Update("price", decimal.NewFromFloat(99.99)).Error)

	var item models.OrderItem
	require.NoError(t, conn.Where("order_id = ?", placed.ID).First(&item).Error)
	assert.True(t, item.PriceAtPurchase.Equal(decimal.NewFromFloat(12.00)),
		"snapshot price changed: %s", item.PriceAtPurchase)

	var reloaded models.Order
	require.NoError(t, conn.Where("id = ?", placed.ID).First(&reloaded).Error)
	assert.True(t, reloaded.TotalAmount.Equal(decimal.NewFromFloat(12.00)))
}
