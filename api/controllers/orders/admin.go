package orders

import (
	"net/http"

	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	internalorders "github.com/ErnestKamau/EasyBuy-sub001/internal/orders"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

type confirmRequest struct {
	AllowDebt bool `json:"allow_debt"`
	DueInDays *int `json:"due_in_days" validate:"omitempty,min=1,max=90"`
}

// cancelRequest defaults refund_to_wallet to true when the field is omitted.
type cancelRequest struct {
	Reason         string `json:"reason" validate:"required,max=255"`
	RefundToWallet *bool  `json:"refund_to_wallet"`
}

func (c cancelRequest) refundToWallet() bool {
	return c.RefundToWallet == nil || *c.RefundToWallet
}

type pickupRequest struct {
	Code string `json:"code" validate:"omitempty,len=6,numeric"`
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Confirm accepts a pending order. Orders with a balance need allow_debt.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Confirm(r.Context(), internalorders.ConfirmOrderInput{
			OrderID:     orderID,
			AllowDebt:   body.AllowDebt,
			DueInDays:   body.DueInDays,
			ActorUserID: actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func MarkReady(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.MarkReady(r.Context(), internalorders.MarkReadyInput{OrderID: orderID, ActorUserID: actorPtr(r)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Cancel(r.Context(), internalorders.CancelOrderInput{
			OrderID:        orderID,
			Reason:         validators.SanitizeString(body.Reason, 255),
			Actor:          enums.CancelActorAdmin,
			RefundToWallet: body.refundToWallet(),
			ActorUserID:    actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CompletePickup hands the order over at the counter, checking the code when one is sent.
func CompletePickup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body pickupRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CompletePickup(r.Context(), internalorders.CompletePickupInput{
			OrderID:     orderID,
			Code:        body.Code,
			ActorUserID: actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func VerifyCode(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.FindByVerificationCode(r.Context(), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AwaitingPickup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date query parameter required"))
			return
		}
		orders, err := svc.ListAwaitingPickup(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"pickup_date": date, "orders": orders})
	}
}

// decodeOptionalBody accepts an empty body as the zero request.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}
