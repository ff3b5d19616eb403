package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/receipts"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

type receiptReader interface {
	GetBySale(ctx context.Context, saleID uuid.UUID) (*receipts.ReceiptDTO, error)
}

func AdminSaleReceipt(svc receiptReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receipt, err := svc.GetBySale(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}
