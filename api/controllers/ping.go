package controllers

import (
	"net/http"

	"github.com/ErnestKamau/EasyBuy-sub001/api/middleware"
	"github.com/ErnestKamau/EasyBuy-sub001/api/responses"
)

// Ping answers for one route group so gateways can verify auth wiring per scope.
// Authenticated scopes echo the caller back.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": scope, "status": "ok"}
		if user := middleware.UserIDFromContext(r.Context()); user != "" {
			payload["user_id"] = user
			payload["role"] = string(middleware.RoleFromContext(r.Context()))
		}
		responses.WriteSuccess(w, payload)
	}
}
