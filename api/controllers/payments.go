package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/api/middleware"
	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

type paymentLedger interface {
	RecordPayment(ctx context.Context, input sales.RecordPaymentInput) (*sales.PaymentResult, error)
	VerifyPayment(ctx context.Context, input sales.VerifyPaymentInput) (*sales.PaymentResult, error)
	FailPayment(ctx context.Context, input sales.FailPaymentInput) (*sales.PaymentResult, error)
	RefundPayment(ctx context.Context, input sales.RefundPaymentInput) (*sales.PaymentResult, error)
	SetDueDate(ctx context.Context, input sales.SetDueDateInput) (*sales.SaleDTO, error)
	Get(ctx context.Context, saleID uuid.UUID) (*sales.SaleDTO, error)
}

type customerPaymentRequest struct {
	Amount    money.Amount `json:"amount" validate:"positive"`
	Method    string       `json:"method" validate:"required,oneof=mpesa card wallet"`
	Reference *string      `json:"reference" validate:"omitempty,max=128"`
	Notes     *string      `json:"notes" validate:"omitempty,max=500"`
}

type adminPaymentRequest struct {
	Amount    money.Amount `json:"amount" validate:"positive"`
	Method    string       `json:"method" validate:"required,oneof=mpesa cash card wallet"`
	Reference *string      `json:"reference" validate:"omitempty,max=128"`
	Notes     *string      `json:"notes" validate:"omitempty,max=500"`
}

type verifyPaymentRequest struct {
	Reference *string `json:"reference" validate:"omitempty,max=128"`
}

type failPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type refundPaymentRequest struct {
	Amount money.Amount `json:"amount" validate:"positive"`
	Reason string       `json:"reason" validate:"required,max=255"`
}

type dueDateRequest struct {
	DueDate dbtypes.Date `json:"due_date"`
}

// CustomerRecordPayment records a payment by the sale's own customer. Cash is counter-only.
func CustomerRecordPayment(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body customerPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordPayment(r.Context(), sales.RecordPaymentInput{
			SaleID:      saleID,
			Amount:      body.Amount,
			Method:      enums.PaymentMethod(body.Method),
			Reference:   body.Reference,
			Notes:       body.Notes,
			OwnerID:     &userID,
			ActorUserID: &userID,
			ActorRole:   enums.RoleCustomer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AdminRecordPayment(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body adminPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordPayment(r.Context(), sales.RecordPaymentInput{
			SaleID:      saleID,
			Amount:      body.Amount,
			Method:      enums.PaymentMethod(body.Method),
			Reference:   body.Reference,
			Notes:       body.Notes,
			ActorUserID: actorPtr(r),
			ActorRole:   enums.RoleAdmin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AdminVerifyPayment(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.VerifyPayment(r.Context(), sales.VerifyPaymentInput{
			PaymentID:   paymentID,
			Reference:   body.Reference,
			ActorUserID: actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminFailPayment(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body failPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.FailPayment(r.Context(), sales.FailPaymentInput{
			PaymentID:   paymentID,
			Reason:      validators.SanitizeString(body.Reason, 255),
			ActorUserID: actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminRefundPayment(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body refundPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RefundPayment(r.Context(), sales.RefundPaymentInput{
			PaymentID:   paymentID,
			Amount:      body.Amount,
			Reason:      validators.SanitizeString(body.Reason, 255),
			ActorUserID: actorPtr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminSetDueDate(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body dueDateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.DueDate.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "due_date is required"))
			return
		}
		sale, err := svc.SetDueDate(r.Context(), sales.SetDueDateInput{SaleID: saleID, DueDate: body.DueDate})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func AdminSaleDetail(svc paymentLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func actorPtr(r *http.Request) *uuid.UUID {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}
