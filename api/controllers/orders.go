package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pagebound/bookstore-backend/api/responses"
	ordersvc "github.com/pagebound/bookstore-backend/internal/orders"
	"github.com/pagebound/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
	"github.com/pagebound/bookstore-backend/pkg/logger"
	"github.com/pagebound/bookstore-backend/pkg/pagination"
)

// OrderList returns the caller's order history, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// OrderDetail returns one of the caller's orders with its line items.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"user_id"`
	OrderDate   time.Time           `json:"order_date"`
	TotalAmount string              `json:"total_amount"`
	Status      string              `json:"status"`
	Shipping    shippingResponse    `json:"shipping"`
	Items       []orderItemResponse `json:"items"`
}

type shippingResponse struct {
	Name     *string `json:"name,omitempty"`
	Address1 *string `json:"address1,omitempty"`
	Address2 *string `json:"address2,omitempty"`
	City     *string `json:"city,omitempty"`
	State    *string `json:"state,omitempty"`
	ZipCode  *string `json:"zip_code,omitempty"`
	Country  *string `json:"country,omitempty"`
}

type orderItemResponse struct {
	ID              uuid.UUID  `json:"id"`
	BookID          *uuid.UUID `json:"book_id,omitempty"`
	Title           string     `json:"title"`
	Quantity        int        `json:"quantity"`
	PriceAtPurchase string     `json:"price_at_purchase"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:              item.ID,
			BookID:          item.BookID,
			Title:           item.Title,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
		})
	}
	return orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		OrderDate:   order.OrderDate,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Status:      order.Status.String(),
		Shipping: shippingResponse{
			Name:     order.ShippingName,
			Address1: order.ShippingAddress1,
			Address2: order.ShippingAddress2,
			City:     order.ShippingCity,
			State:    order.ShippingState,
			ZipCode:  order.ShippingZipCode,
			Country:  order.ShippingCountry,
		},
		Items: items,
	}
}

func newOrderListResponse(list *ordersvc.OrderList) orderListResponse {
	if list == nil {
		return orderListResponse{Orders: []orderResponse{}}
	}
	out := make([]orderResponse, 0, len(list.Orders))
	for i := range list.Orders {
		out = append(out, newOrderResponse(&list.Orders[i]))
	}
	return orderListResponse{Orders: out, Meta: list.Meta}
}
