package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/requests"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

type parameterValueRequest struct {
	ParamID  int64           `json:"param_id" validate:"required,gt=0"`
	Quantity decimal.Decimal `json:"quantity"`
}

type requestItemRequest struct {
	ServiceType       string                  `json:"service_type"`
	Location          string                  `json:"location"`
	Specification     string                  `json:"specification"`
	WorkMethod        string                  `json:"work_method"`
	CustomDescription string                  `json:"custom_description"`
	EstimatedPrice    decimal.Decimal         `json:"estimated_price"`
	ParameterValues   []parameterValueRequest `json:"parameter_values" validate:"dive"`
}

type createRequestRequest struct {
	CustomerID  *int64 `json:"customer_id,omitempty"`
	CompanyName string `json:"company_name"`
	PICName     string `json:"pic_name"`
	PICPhone    string `json:"pic_phone"`
	PICEmail    string `json:"pic_email" validate:"omitempty,email"`

	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`

	ServiceID       *int64 `json:"service_id,omitempty"`
	ProjectLocation string `json:"project_location"`
	Specification   string `json:"specification"`
	WorkMethod      string `json:"work_method"`
	AdditionalNotes string `json:"additional_notes"`

	Items []requestItemRequest `json:"items" validate:"dive"`
}

type updateRequestRequest struct {
	Status           *string          `json:"status,omitempty"`
	ProjectValue     *decimal.Decimal `json:"project_value,omitempty"`
	DurationMonths   *int             `json:"duration_months,omitempty"`
	PaymentTerms     *int             `json:"payment_terms,omitempty"`
	SubTotal         *decimal.Decimal `json:"sub_total,omitempty"`
	AdjustmentAmount *decimal.Decimal `json:"adjustment_amount,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	TaxRate          *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount        *decimal.Decimal `json:"tax_amount,omitempty"`
	GrandTotal       *decimal.Decimal `json:"grand_total,omitempty"`
	AdditionalNotes  *string          `json:"additional_notes,omitempty"`
	AssignedAdminID  *int64           `json:"assigned_admin_id,omitempty"`
}

type updateStatusRequest struct {
	Status           string           `json:"status" validate:"required"`
	SubTotal         *decimal.Decimal `json:"sub_total,omitempty"`
	AdjustmentAmount *decimal.Decimal `json:"adjustment_amount,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	TaxRate          *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount        *decimal.Decimal `json:"tax_amount,omitempty"`
	GrandTotal       *decimal.Decimal `json:"grand_total,omitempty"`
}

type negotiationRequest struct {
	ProposedBy    string          `json:"proposed_by" validate:"required"`
	ProposedTotal decimal.Decimal `json:"proposed_total"`
	Notes         string          `json:"notes"`
}

type messageRequest struct {
	Sender         string  `json:"sender" validate:"required"`
	MessageText    string  `json:"message_text"`
	AttachmentData *string `json:"attachment_data,omitempty"`
}

func toItemInput(req requestItemRequest) requests.ItemInput {
	values := make([]requests.ParameterValueInput, 0, len(req.ParameterValues))
	for _, pv := range req.ParameterValues {
		values = append(values, requests.ParameterValueInput{
			ParamID:  pv.ParamID,
			Quantity: pv.Quantity,
		})
	}
	return requests.ItemInput{
		ServiceType:       req.ServiceType,
		Location:          req.Location,
		Specification:     req.Specification,
		WorkMethod:        req.WorkMethod,
		CustomDescription: req.CustomDescription,
		EstimatedPrice:    req.EstimatedPrice,
		ParameterValues:   values,
	}
}

func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]requests.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, toItemInput(item))
		}

		detail, err := svc.Create(r.Context(), requests.CreateRequestInput{
			CustomerID:      req.CustomerID,
			CompanyName:     req.CompanyName,
			PICName:         req.PICName,
			PICPhone:        req.PICPhone,
			PICEmail:        req.PICEmail,
			GuestName:       req.GuestName,
			GuestPhone:      req.GuestPhone,
			ServiceID:       req.ServiceID,
			ProjectLocation: req.ProjectLocation,
			Specification:   req.Specification,
			WorkMethod:      req.WorkMethod,
			AdditionalNotes: req.AdditionalNotes,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateRequestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Update(r.Context(), id, requests.UpdateRequestInput{
			Status:           req.Status,
			ProjectValue:     req.ProjectValue,
			DurationMonths:   req.DurationMonths,
			PaymentTerms:     req.PaymentTerms,
			SubTotal:         req.SubTotal,
			AdjustmentAmount: req.AdjustmentAmount,
			DiscountAmount:   req.DiscountAmount,
			TaxRate:          req.TaxRate,
			TaxAmount:        req.TaxAmount,
			GrandTotal:       req.GrandTotal,
			AdditionalNotes:  req.AdditionalNotes,
			AssignedAdminID:  req.AssignedAdminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func UpdateRequestStatus(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.UpdateStatus(r.Context(), id, requests.UpdateStatusInput{
			Status:           req.Status,
			SubTotal:         req.SubTotal,
			AdjustmentAmount: req.AdjustmentAmount,
			DiscountAmount:   req.DiscountAmount,
			TaxRate:          req.TaxRate,
			TaxAmount:        req.TaxAmount,
			GrandTotal:       req.GrandTotal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func DeleteRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
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

func ListRequestItems(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListItems(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AddRequestItem(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req requestItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.AddItem(r.Context(), id, toItemInput(req))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func DeleteRequestItem(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.IDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItem(r.Context(), id, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": itemID})
	}
}

func ListItemParameterValues(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.IDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		values, err := svc.ListParameterValues(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, values)
	}
}

func ListNegotiations(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rounds, err := svc.ListNegotiations(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rounds)
	}
}

func AddNegotiation(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req negotiationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		round, err := svc.AddNegotiation(r.Context(), id, requests.NegotiationInput{
			ProposedBy:    enums.Proposer(req.ProposedBy),
			ProposedTotal: req.ProposedTotal,
			Notes:         req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, round)
	}
}

func ListMessages(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		messages, err := svc.ListMessages(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messages)
	}
}

func AddMessage(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req messageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message, err := svc.AddMessage(r.Context(), id, requests.MessageInput{
			Sender:         req.Sender,
			MessageText:    req.MessageText,
			AttachmentData: req.AttachmentData,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// DeleteMessage is mounted outside the request subtree, matching the legacy
// admin endpoint.
func DeleteMessage(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteMessage(r.Context(), messageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": messageID})
	}
}

func RequestsDashboard(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
