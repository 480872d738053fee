package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pagebound/bookstore-backend/api/middleware"
	"github.com/pagebound/bookstore-backend/api/validators"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	"github.com/pagebound/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// actorIDFromContext resolves the authenticated user's id seeded by the auth
// middleware.
func actorIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorRoleFromContext resolves the authenticated user's role seeded by the
// auth middleware.
func actorRoleFromContext(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PerPage: perPage}, nil
}

type bookResponse struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Author             *string   `json:"author,omitempty"`
	ISBN               *string   `json:"isbn,omitempty"`
	Description        *string   `json:"description,omitempty"`
	Price              string    `json:"price"`
	StockQuantity      int       `json:"stock_quantity"`
	CoverImageFilename *string   `json:"cover_image_filename,omitempty"`
	Category           *string   `json:"category,omitempty"`
	PublicationDate    *string   `json:"publication_date,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newBookResponse(book models.Book) bookResponse {
	resp := bookResponse{
		ID:                 book.ID,
		Title:              book.Title,
		Author:             book.Author,
		ISBN:               book.ISBN,
		Description:        book.Description,
		Price:              book.Price.StringFixed(2),
		StockQuantity:      book.StockQuantity,
		CoverImageFilename: book.CoverImageFilename,
		Category:           book.Category,
		CreatedAt:          book.CreatedAt,
		UpdatedAt:          book.UpdatedAt,
	}
	if book.PublicationDate != nil {
		formatted := book.PublicationDate.Format(dateLayout)
		resp.PublicationDate = &formatted
	}
	return resp
}

func newBookResponses(books []models.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, newBookResponse(book))
	}
	return out
}
