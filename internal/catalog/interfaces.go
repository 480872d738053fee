package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

// Filter narrows catalog listings. Query matches title, author, isbn, and
// category case-insensitively; Category restricts to an exact category.
type Filter struct {
	Query    string
	Category string
}

// Repository defines persistence operations for the book catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) (*models.Book, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter, page pagination.Page) ([]models.Book, int64, error)
	ListNewest(ctx context.Context, limit int) ([]models.Book, error)
	ListRecentlyPublished(ctx context.Context, limit int) ([]models.Book, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}
