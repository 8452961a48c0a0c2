package controllers

import (
	"net/http"

	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/users"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

type createUserRequest struct {
	Username      string  `json:"username" validate:"required"`
	Password      string  `json:"password" validate:"required"`
	FullName      string  `json:"full_name"`
	Role          string  `json:"role"`
	PortfolioID   *int64  `json:"portfolio_id,omitempty"`
	CustomerID    *int64  `json:"customer_id,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	WhatsAppPhone *string `json:"whatsapp_phone,omitempty"`
}

type updateContactsRequest struct {
	Email         *string `json:"email,omitempty"`
	WhatsAppPhone *string `json:"whatsapp_phone,omitempty"`
}

func ListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Create(r.Context(), users.CreateUserInput{
			Username:      req.Username,
			Password:      req.Password,
			FullName:      req.FullName,
			Role:          req.Role,
			PortfolioID:   req.PortfolioID,
			CustomerID:    req.CustomerID,
			Email:         req.Email,
			WhatsAppPhone: req.WhatsAppPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

func UpdateUserContacts(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateContactsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.UpdateContacts(r.Context(), id, users.UpdateContactInput{
			Email:         req.Email,
			WhatsAppPhone: req.WhatsAppPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func DeleteUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": id})
	}
}
