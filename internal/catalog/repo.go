package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

// GormRepository exposes persistence operations for the book catalog.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// Create inserts a new book.
func (r *GormRepository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Update saves the provided book.
func (r *GormRepository) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// FindByID loads a book by primary key.
func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete removes the book along with dependent cart lines, and detaches
// order item references so order history keeps its snapshots.
func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("book_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.OrderItem{}).Where("book_id = ?", id).Update("book_id", nil).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a page of books matching the filter, ordered by title, along
// with the total count of matches.
func (r *GormRepository) List(ctx context.Context, filter Filter, page pagination.Page) ([]models.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ? OR LOWER(category) LIKE ?",
			like, like, like, like,
		)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category = ?", c)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Book
	if err := query.
		Order("title ASC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListNewest returns the most recently added books.
func (r *GormRepository) ListNewest(ctx context.Context, limit int) ([]models.Book, error) {
	var rows []models.Book
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecentlyPublished returns books ordered by publication date, newest first.
func (r *GormRepository) ListRecentlyPublished(ctx context.Context, limit int) ([]models.Book, error) {
	var rows []models.Book
	if err := r.db.WithContext(ctx).
		Order("publication_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementStock subtracts qty from the book's stock only when enough stock
// remains. Returns false when the guard did not match, with stock untouched.
func (r *GormRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrement quantity must be positive, got %d", qty)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
