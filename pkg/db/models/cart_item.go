package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds one book line in a user's cart. A user carries at most one
// row per book, enforced by the composite unique index.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_cart_items_user_book"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:uq_cart_items_user_book"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	Book      *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	AddedAt   time.Time `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
