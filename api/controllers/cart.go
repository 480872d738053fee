package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pagebound/bookstore-backend/api/responses"
	"github.com/pagebound/bookstore-backend/api/validators"
	cartsvc "github.com/pagebound/bookstore-backend/internal/cart"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/logger"
)

// CartFetch returns the caller's cart with computed totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(view))
	}
}

// CartAdd puts a book in the caller's cart, merging with any existing line.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), userID, payload.BookID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartItemResponse(*item))
	}
}

type cartAddRequest struct {
	BookID   uuid.UUID `json:"book_id" validate:"required,uuid4"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItemQuantity(r.Context(), userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteSuccess(w, map[string]string{"status": "removed"})
			return
		}

		responses.WriteSuccess(w, newCartItemResponse(*item))
	}
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartRemoveItem drops a line from the caller's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

type cartItemResponse struct {
	ID       uuid.UUID     `json:"id"`
	BookID   uuid.UUID     `json:"book_id"`
	Quantity int           `json:"quantity"`
	Book     *bookResponse `json:"book,omitempty"`
	AddedAt  time.Time     `json:"added_at"`
}

type cartLineResponse struct {
	cartItemResponse
	Subtotal string `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func newCartItemResponse(item models.CartItem) cartItemResponse {
	resp := cartItemResponse{
		ID:       item.ID,
		BookID:   item.BookID,
		Quantity: item.Quantity,
		AddedAt:  item.AddedAt,
	}
	if item.Book != nil {
		book := newBookResponse(*item.Book)
		resp.Book = &book
	}
	return resp
}

func newCartResponse(view *cartsvc.View) cartResponse {
	if view == nil {
		return cartResponse{Items: []cartLineResponse{}, Total: "0.00"}
	}
	items := make([]cartLineResponse, 0, len(view.Items))
	for _, line := range view.Items {
		items = append(items, cartLineResponse{
			cartItemResponse: newCartItemResponse(line.Item),
			Subtotal:         line.Subtotal.StringFixed(2),
		})
	}
	return cartResponse{Items: items, Total: view.Total.StringFixed(2)}
}
