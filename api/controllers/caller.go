package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/api/middleware"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return id, nil
}
