package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/catalog"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

type createPortfolioRequest struct {
	Name string `json:"name" validate:"required"`
}

type updatePortfolioRequest struct {
	Name string `json:"name" validate:"required"`
}

type parameterRequest struct {
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createServiceRequest struct {
	PortfolioID  int64              `json:"portfolio_id" validate:"required,gt=0"`
	CategoryName string             `json:"category_name" validate:"required"`
	Name         string             `json:"name" validate:"required"`
	Description  string             `json:"description"`
	Activities   []string           `json:"activities"`
	Parameters   []parameterRequest `json:"parameters" validate:"dive"`
}

type updateServiceRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Activities  []string `json:"activities,omitempty"`
}

func ListPortfolios(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolios, err := svc.ListPortfolios(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, portfolios)
	}
}

func CreatePortfolio(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPortfolioRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		portfolio, err := svc.CreatePortfolio(r.Context(), catalog.CreatePortfolioInput{Name: req.Name})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, portfolio)
	}
}

func UpdatePortfolio(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePortfolioRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		portfolio, err := svc.UpdatePortfolio(r.Context(), id, req.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, portfolio)
	}
}

// DeletePortfolio removes the portfolio's catalog subtree and reports how
// many rows each table lost.
func DeletePortfolio(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.DeletePortfolio(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": result, "total": result.Total()})
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, services)
	}
}

func GetService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		service, activities, parameters, err := svc.GetService(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"service":    service,
			"activities": activities,
			"parameters": parameters,
		})
	}
}

func CreateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createServiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := make([]catalog.ParameterInput, 0, len(req.Parameters))
		for _, p := range req.Parameters {
			params = append(params, catalog.ParameterInput{Name: p.Name, UnitPrice: p.UnitPrice})
		}

		service, err := svc.CreateService(r.Context(), catalog.CreateServiceInput{
			PortfolioID:  req.PortfolioID,
			CategoryName: req.CategoryName,
			Name:         req.Name,
			Description:  req.Description,
			Activities:   req.Activities,
			Parameters:   params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, service)
	}
}

func UpdateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateServiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		service, err := svc.UpdateService(r.Context(), id, catalog.UpdateServiceInput{
			Name:        req.Name,
			Description: req.Description,
			Activities:  req.Activities,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, service)
	}
}

// DeleteService removes the service and its whole request closure, reporting
// per-table counts.
func DeleteService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.DeleteService(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": result, "total": result.Total()})
	}
}

func ListParameters(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parameters, err := svc.ListParameters(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, parameters)
	}
}

func AddParameter(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req parameterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parameter, err := svc.AddParameter(r.Context(), serviceID, catalog.ParameterInput{
			Name:      req.Name,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, parameter)
	}
}

func UpdateParameter(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paramID, err := validators.IDParam(r, "paramID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req parameterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parameter, err := svc.UpdateParameter(r.Context(), paramID, catalog.ParameterInput{
			Name:      req.Name,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, parameter)
	}
}

func DeleteParameter(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paramID, err := validators.IDParam(r, "paramID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteParameter(r.Context(), paramID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": paramID})
	}
}
