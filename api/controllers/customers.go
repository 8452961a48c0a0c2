package controllers

import (
	"net/http"

	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/customers"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

type createCustomerRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	PICName     string `json:"pic_name"`
	PICPhone    string `json:"pic_phone"`
	PICEmail    string `json:"pic_email" validate:"omitempty,email"`
}

func ListCustomers(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Create(r.Context(), customers.CreateCustomerInput{
			CompanyName: req.CompanyName,
			PICName:     req.PICName,
			PICPhone:    req.PICPhone,
			PICEmail:    req.PICEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}
