package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

type walletLedger interface {
	Balance(ctx context.Context, userID uuid.UUID) (money.Amount, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[wallet.TransactionDTO], error)
	Adjust(ctx context.Context, input wallet.AdjustInput) (*models.WalletTransaction, error)
}

type walletAdjustmentRequest struct {
	Direction string       `json:"direction" validate:"required,oneof=credit debit"`
	Amount    money.Amount `json:"amount" validate:"positive"`
	Reason    string       `json:"reason" validate:"required,max=255"`
}

func WalletBalance(svc walletLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet.BalanceDTO{UserID: userID, Balance: balance})
	}
}

func WalletTransactions(svc walletLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
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
		page, err := svc.History(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminWalletAdjustment credits or debits a customer's wallet with a mandatory reason.
func AdminWalletAdjustment(svc walletLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		actorID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body walletAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !body.Amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive"))
			return
		}
		row, err := svc.Adjust(r.Context(), wallet.AdjustInput{
			UserID:      userID,
			Direction:   enums.WalletDirection(body.Direction),
			Amount:      body.Amount,
			Reason:      validators.SanitizeString(body.Reason, 255),
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, wallet.FromModel(*row))
	}
}
