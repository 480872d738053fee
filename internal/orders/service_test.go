package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
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

func newOrdersService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := setupOrdersTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, placedAt time.Time, status enums.OrderStatus) models.Order {
	t.Helper()

	order := models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: decimal.NewFromFloat(42.00),
		Status:      status,
	}
	require.NoError(t, conn.Create(&order).Error)
	require.NoError(t, conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("order_date", placedAt).Error)

	item := models.OrderItem{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Title:           "Snapshot Title",
		Quantity:        1,
		PriceAtPurchase: decimal.NewFromFloat(42.00),
	}
	require.NoError(t, conn.Create(&item).Error)
	return order
}

func TestListForUserNewestFirst(t *testing.T) {
	svc, conn := newOrdersService(t)
	userID := uuid.New()

	older := seedOrder(t, conn, userID, time.Now().Add(-2*time.Hour), enums.OrderStatusPendingPayment)
	newer := seedOrder(t, conn, userID, time.Now().Add(-1*time.Hour), enums.OrderStatusProcessing)
	seedOrder(t, conn, uuid.New(), time.Now(), enums.OrderStatusPendingPayment)

	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, newer.ID, list.Orders[0].ID)
	assert.Equal(t, older.ID, list.Orders[1].ID)
	assert.EqualValues(t, 2, list.Meta.TotalItems)
	require.Len(t, list.Orders[0].Items, 1, "items must be preloaded")
}

func TestGetForUserRejectsForeignOrder(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedOrder(t, conn, uuid.New(), time.Now(), enums.OrderStatusPendingPayment)

	_, err := svc.GetForUser(context.Background(), uuid.New(), order.ID)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestGetForUserMissingOrder(t *testing.T) {
	svc, _ := newOrdersService(t)

	_, err := svc.GetForUser(context.Background(), uuid.New(), uuid.New())
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestListAllFiltersByStatus(t *testing.T) {
	svc, conn := newOrdersService(t)
	userID := uuid.New()

	seedOrder(t, conn, userID, time.Now(), enums.OrderStatusShipped)
	seedOrder(t, conn, userID, time.Now(), enums.OrderStatusPendingPayment)

	status := enums.OrderStatusShipped
	list, err := svc.ListAll(context.Background(), Filter{Status: &status, UserID: &userID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, enums.OrderStatusShipped, list.Orders[0].Status)
}

func TestListAllRejectsUnknownStatusFilter(t *testing.T) {
	svc, _ := newOrdersService(t)

	bogus := enums.OrderStatus("teleported")
	_, err := svc.ListAll(context.Background(), Filter{Status: &bogus}, pagination.Params{})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInvalidStatus, coded.Code())
}

func TestSetStatusMovesOrder(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedOrder(t, conn, uuid.New(), time.Now(), enums.OrderStatusPendingPayment)

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusShipped, enums.UserRoleManager)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	// No transition graph: any known status can follow any other.
	updated, err = svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPendingPayment, enums.UserRoleManager)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, updated.Status)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedOrder(t, conn, uuid.New(), time.Now(), enums.OrderStatusPendingPayment)

	_, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatus("lost"), enums.UserRoleManager)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeInvalidStatus, coded.Code())

	details, ok := coded.Details().(InvalidStatusDetails)
	require.True(t, ok)
	assert.Equal(t, "lost", details.Provided)
	assert.Len(t, details.ValidStatuses, 5)

	reloaded, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, reloaded.Status, "rejected status change must not stick")
}

func TestSetStatusRejectsNonManager(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedOrder(t, conn, uuid.New(), time.Now(), enums.OrderStatusPendingPayment)

	_, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusShipped, enums.UserRoleCustomer)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())

	reloaded, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, reloaded.Status, "forbidden status change must not stick")
}

func TestSetStatusMissingOrder(t *testing.T) {
	svc, _ := newOrdersService(t)

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatusDelivered, enums.UserRoleManager)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
