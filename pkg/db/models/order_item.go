package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of each book line within an order. BookID
// is nullable so order history survives a catalog hard delete; Title keeps
// the line readable after the fact.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	BookID          *uuid.UUID      `gorm:"column:book_id;type:uuid;index"`
	Title           string          `gorm:"column:title;not null"`
	Quantity        int             `gorm:"column:quantity;not null;default:1"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(10,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
