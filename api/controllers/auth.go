package controllers

import (
	"net/http"

	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/auth"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

// Login authenticates the submitted credentials and returns a bearer token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
