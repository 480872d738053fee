package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-backend/api/responses"
	"github.com/pagebound/bookstore-backend/api/validators"
	catalogsvc "github.com/pagebound/bookstore-backend/internal/catalog"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/logger"
)

// AdminCreateBook adds a listing to the catalog.
func AdminCreateBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.CreateBook(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBookResponse(*book))
	}
}

type createBookRequest struct {
	Title              string  `json:"title" validate:"required"`
	Author             *string `json:"author,omitempty"`
	ISBN               *string `json:"isbn,omitempty"`
	Description        *string `json:"description,omitempty"`
	Price              string  `json:"price" validate:"required"`
	StockQuantity      int     `json:"stock_quantity" validate:"min=0"`
	CoverImageFilename *string `json:"cover_image_filename,omitempty"`
	Category           *string `json:"category,omitempty"`
	PublicationDate    *string `json:"publication_date,omitempty"`
}

func (req createBookRequest) toCreateInput() (catalogsvc.CreateBookInput, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return catalogsvc.CreateBookInput{}, err
	}

	published, err := parseDate(req.PublicationDate)
	if err != nil {
		return catalogsvc.CreateBookInput{}, err
	}

	return catalogsvc.CreateBookInput{
		Title:              strings.TrimSpace(req.Title),
		Author:             req.Author,
		ISBN:               req.ISBN,
		Description:        req.Description,
		Price:              price,
		StockQuantity:      req.StockQuantity,
		CoverImageFilename: req.CoverImageFilename,
		Category:           req.Category,
		PublicationDate:    published,
	}, nil
}

// AdminUpdateBook applies a partial update to a listing.
func AdminUpdateBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.UpdateBook(r.Context(), bookID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBookResponse(*book))
	}
}

type updateBookRequest struct {
	Title              *string `json:"title,omitempty"`
	Author             *string `json:"author,omitempty"`
	ISBN               *string `json:"isbn,omitempty"`
	Description        *string `json:"description,omitempty"`
	Price              *string `json:"price,omitempty"`
	StockQuantity      *int    `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	CoverImageFilename *string `json:"cover_image_filename,omitempty"`
	Category           *string `json:"category,omitempty"`
	PublicationDate    *string `json:"publication_date,omitempty"`
}

func (req updateBookRequest) toUpdateInput() (catalogsvc.UpdateBookInput, error) {
	input := catalogsvc.UpdateBookInput{
		Title:              req.Title,
		Author:             req.Author,
		ISBN:               req.ISBN,
		Description:        req.Description,
		StockQuantity:      req.StockQuantity,
		CoverImageFilename: req.CoverImageFilename,
		Category:           req.Category,
	}

	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return catalogsvc.UpdateBookInput{}, err
		}
		input.Price = &price
	}

	published, err := parseDate(req.PublicationDate)
	if err != nil {
		return catalogsvc.UpdateBookInput{}, err
	}
	input.PublicationDate = published

	return input, nil
}

// AdminDeleteBook removes a listing and any cart lines holding it.
func AdminDeleteBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return price, nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid publication date")
	}
	return &parsed, nil
}
