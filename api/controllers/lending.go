package controllers

import (
	"net/http"
	"time"

	"github.com/sione-id/backoffice-backend/api/responses"
	"github.com/sione-id/backoffice-backend/api/validators"
	"github.com/sione-id/backoffice-backend/internal/lending"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type createLoanRequest struct {
	DivisionID        int64    `json:"division_id" validate:"required,gt=0"`
	BorrowerName      string   `json:"borrower_name" validate:"required"`
	LoanDate          string   `json:"loan_date" validate:"required"`
	DueDate           string   `json:"due_date" validate:"required"`
	DocumentNumbers   []string `json:"document_numbers" validate:"required,min=1"`
	AttachmentPath    *string  `json:"attachment_path,omitempty"`
	BorrowerSignature string   `json:"borrower_signature"`
	OfficerSignature  string   `json:"officer_signature"`
}

type returnRequest struct {
	DocumentNumbers   []string `json:"document_numbers" validate:"required,min=1"`
	ReturnDate        string   `json:"return_date" validate:"required"`
	ReturnerName      string   `json:"returner_name" validate:"required"`
	ReturnerSignature string   `json:"returner_signature"`
	OfficerSignature  string   `json:"officer_signature"`
}

type handoverDocument struct {
	Number   string  `json:"number" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Year     int     `json:"year"`
	Type     string  `json:"type"`
	FilePath *string `json:"file_path,omitempty"`
}

type createHandoverRequest struct {
	DivisionID       int64              `json:"division_id" validate:"required,gt=0"`
	HandlerName      string             `json:"handler_name" validate:"required"`
	HandoverDate     string             `json:"handover_date" validate:"required"`
	HandlerSignature string             `json:"handler_signature"`
	OfficerSignature string             `json:"officer_signature"`
	Documents        []handoverDocument `json:"documents" validate:"required,min=1,dive"`
}

type createDivisionRequest struct {
	Category string `json:"category" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

func parseDate(value, field string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
		WithDetails(map[string]any{field: value})
}

func CreateLoan(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLoanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loanDate, err := parseDate(req.LoanDate, "loan_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dueDate, err := parseDate(req.DueDate, "due_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.CreateLoan(r.Context(), lending.CreateLoanInput{
			DivisionID:        req.DivisionID,
			BorrowerName:      req.BorrowerName,
			LoanDate:          loanDate,
			DueDate:           dueDate,
			DocumentNumbers:   req.DocumentNumbers,
			AttachmentPath:    req.AttachmentPath,
			BorrowerSignature: req.BorrowerSignature,
			OfficerSignature:  req.OfficerSignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loan)
	}
}

func ListLoans(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loans, err := svc.ListLoans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loans)
	}
}

func GetLoan(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loan, err := svc.GetLoan(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

func ReturnDocuments(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req returnRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnDate, err := parseDate(req.ReturnDate, "return_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.ReturnDocuments(r.Context(), lending.ReturnInput{
			LoanID:            chi.URLParam(r, "id"),
			DocumentNumbers:   req.DocumentNumbers,
			ReturnDate:        returnDate,
			ReturnerName:      req.ReturnerName,
			ReturnerSignature: req.ReturnerSignature,
			OfficerSignature:  req.OfficerSignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

func CreateHandover(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createHandoverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handoverDate, err := parseDate(req.HandoverDate, "handover_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs := make([]lending.NewDocument, 0, len(req.Documents))
		for _, doc := range req.Documents {
			docs = append(docs, lending.NewDocument{
				Number:   doc.Number,
				Name:     doc.Name,
				Year:     doc.Year,
				Type:     doc.Type,
				FilePath: doc.FilePath,
			})
		}

		handover, err := svc.CreateHandover(r.Context(), lending.CreateHandoverInput{
			DivisionID:       req.DivisionID,
			HandlerName:      req.HandlerName,
			HandoverDate:     handoverDate,
			HandlerSignature: req.HandlerSignature,
			OfficerSignature: req.OfficerSignature,
			Documents:        docs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, handover)
	}
}

func ListDocuments(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.ListDocuments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}

func ListDivisions(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		divisions, err := svc.ListDivisions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, divisions)
	}
}

func CreateDivision(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDivisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		division, err := svc.CreateDivision(r.Context(), lending.CreateDivisionInput{
			Category: req.Category,
			Name:     req.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, division)
	}
}

func DeleteDivision(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteDivision(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": id})
	}
}

func LendingDashboard(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
