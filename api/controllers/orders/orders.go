package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/api/middleware"
	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	internalorders "github.com/ErnestKamau/EasyBuy-sub001/internal/orders"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

type placeOrderItem struct {
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  money.Quantity `json:"quantity" validate:"positive"`
}

type placeOrderRequest struct {
	Items      []placeOrderItem `json:"items" validate:"required,min=1,max=100,dive"`
	SlotID     string           `json:"slot_id" validate:"required,max=16"`
	PickupDate dbtypes.Date     `json:"pickup_date"`
	Notes      *string          `json:"notes" validate:"omitempty,max=500"`
}

func (p placeOrderRequest) input(userID uuid.UUID) (internalorders.PlaceOrderInput, error) {
	if p.PickupDate.IsZero() {
		return internalorders.PlaceOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "pickup_date is required")
	}
	input := internalorders.PlaceOrderInput{
		UserID:     &userID,
		SlotID:     strings.TrimSpace(p.SlotID),
		PickupDate: p.PickupDate,
		Items:      make([]internalorders.PlaceOrderLine, 0, len(p.Items)),
	}
	if p.Notes != nil {
		notes := validators.SanitizeString(*p.Notes, 500)
		input.Notes = &notes
	}
	for i, item := range p.Items {
		if item.ProductID == uuid.Nil {
			return internalorders.PlaceOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required").
				WithDetails(map[string]any{"item": i})
		}
		input.Items = append(input.Items, internalorders.PlaceOrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return input, nil
}

// Place books a pickup order for the caller.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns the caller's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForUser(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order. Customers only see their own; others get not found.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		isOwner := order.UserID != nil && *order.UserID == userID
		if !isOwner && middleware.RoleFromContext(r.Context()) != enums.RoleAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return id, nil
}

func actorPtr(r *http.Request) *uuid.UUID {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}
