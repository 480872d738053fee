package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-backend/pkg/enums"
)

// Order represents a placed checkout with its shipping snapshot.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	OrderDate        time.Time         `gorm:"column:order_date;index;autoCreateTime"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending_payment';index"`
	ShippingName     *string           `gorm:"column:shipping_name"`
	ShippingAddress1 *string           `gorm:"column:shipping_address1"`
	ShippingAddress2 *string           `gorm:"column:shipping_address2"`
	ShippingCity     *string           `gorm:"column:shipping_city"`
	ShippingState    *string           `gorm:"column:shipping_state"`
	ShippingZipCode  *string           `gorm:"column:shipping_zip_code"`
	ShippingCountry  *string           `gorm:"column:shipping_country"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
