package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
	"github.com/ErnestKamau/EasyBuy-sub001/api/validators"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/pickup"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

type slotDirectory interface {
	ListAvailability(ctx context.Context, date dbtypes.Date) ([]pickup.AvailabilityDTO, error)
	Catalog() *pickup.Catalog
}

// PickupSlots lists every slot on ?date=, defaulting to today in the business time zone.
func PickupSlots(svc slotDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}
		date, ok, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			date = svc.Catalog().Today(time.Now())
		}
		slots, err := svc.ListAvailability(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"pickup_date": date, "slots": slots})
	}
}
