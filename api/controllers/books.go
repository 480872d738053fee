package controllers

import (
	"net/http"

	"github.com/pagebound/bookstore-backend/api/responses"
	"github.com/pagebound/bookstore-backend/api/validators"
	catalogsvc "github.com/pagebound/bookstore-backend/internal/catalog"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/logger"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

const searchQueryMaxLen = 200

// BookShelves serves the storefront landing shelves.
func BookShelves(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		shelves, err := svc.HomeShelves(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shelvesResponse{
			Featured:    newBookResponses(shelves.Featured),
			NewArrivals: newBookResponses(shelves.NewArrivals),
		})
	}
}

type shelvesResponse struct {
	Featured    []bookResponse `json:"featured"`
	NewArrivals []bookResponse `json:"new_arrivals"`
}

// BookList serves catalog browsing and search.
func BookList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalogsvc.Filter{
			Query:    validators.SanitizeString(r.URL.Query().Get("q"), searchQueryMaxLen),
			Category: validators.SanitizeString(r.URL.Query().Get("category"), searchQueryMaxLen),
		}

		list, err := svc.ListBooks(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bookListResponse{
			Books: newBookResponses(list.Books),
			Meta:  list.Meta,
		})
	}
}

type bookListResponse struct {
	Books []bookResponse  `json:"books"`
	Meta  pagination.Meta `json:"meta"`
}

// BookDetail serves a single listing.
func BookDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		book, err := svc.GetBook(r.Context(), bookID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBookResponse(*book))
	}
}
