package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book represents a catalog listing.
type Book struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title              string          `gorm:"column:title;not null;index"`
	Author             *string         `gorm:"column:author;index"`
	ISBN               *string         `gorm:"column:isbn;uniqueIndex"`
	Description        *string         `gorm:"column:description"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity      int             `gorm:"column:stock_quantity;not null;default:0"`
	CoverImageFilename *string         `gorm:"column:cover_image_filename"`
	Category           *string         `gorm:"column:category;index"`
	PublicationDate    *time.Time      `gorm:"column:publication_date;type:date"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
