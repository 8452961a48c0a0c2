package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sione-id/backoffice-backend/internal/notifications"
	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/sequence"
	"gorm.io/gorm"
)

const (
	ticketPrefix = "REQ"

	txMaxRetries     = 3
	txInitialBackoff = 50 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sequencer interface {
	Next(tx *gorm.DB, prefix, bucket string) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, input notifications.Input) error
}

// Service defines the service request workflow operations.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*Detail, error)
	List(ctx context.Context) ([]models.ServiceRequest, error)
	Get(ctx context.Context, id int64) (*Detail, error)
	Update(ctx context.Context, id int64, input UpdateRequestInput) (*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*models.ServiceRequest, error)
	Delete(ctx context.Context, id int64) error

	AddItem(ctx context.Context, requestID int64, input ItemInput) (*models.RequestItem, error)
	ListItems(ctx context.Context, requestID int64) ([]models.RequestItem, error)
	DeleteItem(ctx context.Context, requestID, itemID int64) error
	ListParameterValues(ctx context.Context, itemID int64) ([]models.ParameterValue, error)

	AddNegotiation(ctx context.Context, requestID int64, input NegotiationInput) (*models.NegotiationRound, error)
	ListNegotiations(ctx context.Context, requestID int64) ([]models.NegotiationRound, error)

	AddMessage(ctx context.Context, requestID int64, input MessageInput) (*models.Message, error)
	ListMessages(ctx context.Context, requestID int64) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error

	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	seq      sequencer
	notifier notifier
	now      func() time.Time
}

// NewService builds the request workflow service.
func NewService(repo Repository, tx txRunner, seq sequencer, notifier notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence generator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		seq:      seq,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// runTx executes fn in a transaction, retrying transient conflicts with
// backoff. fn must be safe to rerun from scratch.
func (s *service) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(txMaxRetries, retry.NewExponential(txInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if txErr := s.tx.WithTx(ctx, fn); txErr != nil {
			if db.IsRetryable(txErr) {
				return retry.RetryableError(txErr)
			}
			return txErr
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "request transaction aborted")
}

// notify emits a workflow notification after the enclosing transaction has
// committed. Failures never surface to the workflow caller.
func (s *service) notify(ctx context.Context, input notifications.Input) {
	// The notification service logs its own delivery failures.
	_ = s.notifier.Notify(ctx, input)
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*Detail, error) {
	if input.CustomerID == nil && strings.TrimSpace(input.CompanyName) == "" &&
		strings.TrimSpace(input.GuestName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer, company name or guest name required")
	}

	var (
		request models.ServiceRequest
		items   []models.RequestItem
	)
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request = models.ServiceRequest{}
		items = nil

		customerID, err := s.resolveCustomer(ctx, repo, input)
		if err != nil {
			return err
		}

		ticket, err := s.seq.Next(tx, ticketPrefix, sequence.YearBucket(s.now()))
		if err != nil {
			return err
		}

		request = models.ServiceRequest{
			TicketNumber:    ticket,
			CustomerID:      customerID,
			ServiceID:       input.ServiceID,
			GuestName:       input.GuestName,
			GuestPhone:      input.GuestPhone,
			ProjectLocation: input.ProjectLocation,
			Specification:   input.Specification,
			WorkMethod:      input.WorkMethod,
			AdditionalNotes: input.AdditionalNotes,
			Status:          string(enums.RequestStatusNew),
		}
		if err := repo.CreateRequest(ctx, &request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
		}

		for _, itemInput := range input.Items {
			batch := []models.RequestItem{{
				RequestID:         request.ID,
				ServiceType:       itemInput.ServiceType,
				Location:          itemInput.Location,
				Specification:     itemInput.Specification,
				WorkMethod:        itemInput.WorkMethod,
				CustomDescription: itemInput.CustomDescription,
				EstimatedPrice:    itemInput.EstimatedPrice,
			}}
			if err := repo.CreateItems(ctx, batch); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request item")
			}
			// CreateItems writes the generated id back into the slice.
			created := batch[0]
			if err := createParameterValues(ctx, repo, created.ID, itemInput.ParameterValues); err != nil {
				return err
			}
			items = append(items, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.Input{
		Title:     "New service request",
		Message:   fmt.Sprintf("Request %s was submitted by %s", request.TicketNumber, requesterName(&request, input)),
		Type:      enums.NotificationTypeNewRequest,
		RelatedID: &request.ID,
	})
	return &Detail{Request: request, Items: items}, nil
}

func createParameterValues(ctx context.Context, repo Repository, itemID int64, inputs []ParameterValueInput) error {
	if len(inputs) == 0 {
		return nil
	}
	values := make([]models.ParameterValue, 0, len(inputs))
	for _, pv := range inputs {
		if pv.ParamID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "parameter id required")
		}
		values = append(values, models.ParameterValue{
			ItemID:   itemID,
			ParamID:  pv.ParamID,
			Quantity: pv.Quantity,
		})
	}
	if err := repo.CreateParameterValues(ctx, values); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create parameter values")
	}
	return nil
}

// resolveCustomer upserts the customer by company name. An explicit
// CustomerID wins, then the company upsert; pure guest requests resolve to
// no customer.
func (s *service) resolveCustomer(ctx context.Context, repo Repository, input CreateRequestInput) (*int64, error) {
	if input.CustomerID != nil {
		return input.CustomerID, nil
	}
	company := strings.TrimSpace(input.CompanyName)
	if company == "" {
		return nil, nil
	}
	existing, err := repo.FindCustomerByCompany(ctx, company)
	if err == nil {
		return &existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	customer := models.Customer{
		CompanyName: company,
		PICName:     input.PICName,
		PICPhone:    input.PICPhone,
		PICEmail:    input.PICEmail,
	}
	if err := repo.CreateCustomer(ctx, &customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return &customer.ID, nil
}

func requesterName(request *models.ServiceRequest, input CreateRequestInput) string {
	if company := strings.TrimSpace(input.CompanyName); company != "" {
		return company
	}
	if guest := strings.TrimSpace(request.GuestName); guest != "" {
		return guest
	}
	return "a customer"
}

func (s *service) List(ctx context.Context) ([]models.ServiceRequest, error) {
	rows, err := s.repo.ListRequests(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Detail, error) {
	request, err := s.findRequest(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list request items")
	}
	return &Detail{Request: *request, Items: items}, nil
}

func (s *service) findRequest(ctx context.Context, repo Repository, id int64) (*models.ServiceRequest, error) {
	request, err := repo.FindRequest(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find request")
	}
	return request, nil
}

// Update applies the non-nil fields. A status notification is emitted only
// when the update itself carries a status.
func (s *service) Update(ctx context.Context, id int64, input UpdateRequestInput) (*models.ServiceRequest, error) {
	updates := map[string]any{}
	if input.Status != nil {
		if strings.TrimSpace(*input.Status) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must not be blank")
		}
		updates["status"] = *input.Status
	}
	if input.ProjectValue != nil {
		updates["project_value"] = *input.ProjectValue
	}
	if input.DurationMonths != nil {
		updates["duration_months"] = *input.DurationMonths
	}
	if input.PaymentTerms != nil {
		updates["payment_terms"] = *input.PaymentTerms
	}
	if input.SubTotal != nil {
		updates["sub_total"] = *input.SubTotal
	}
	if input.AdjustmentAmount != nil {
		updates["adjustment_amount"] = *input.AdjustmentAmount
	}
	if input.DiscountAmount != nil {
		updates["discount_amount"] = *input.DiscountAmount
	}
	if input.TaxRate != nil {
		updates["tax_rate"] = *input.TaxRate
	}
	if input.TaxAmount != nil {
		updates["tax_amount"] = *input.TaxAmount
	}
	if input.GrandTotal != nil {
		updates["grand_total"] = *input.GrandTotal
	}
	if input.AdditionalNotes != nil {
		updates["additional_notes"] = *input.AdditionalNotes
	}
	if input.AssignedAdminID != nil {
		updates["assigned_admin_id"] = *input.AssignedAdminID
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	updates["last_updated"] = s.now()

	request, err := s.applyUpdate(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if input.Status != nil {
		s.notifyStatus(ctx, request)
	}
	return request, nil
}

// UpdateStatus is the dedicated transition endpoint. It always notifies.
func (s *service) UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*models.ServiceRequest, error) {
	if strings.TrimSpace(input.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status required")
	}
	updates := map[string]any{
		"status":       input.Status,
		"last_updated": s.now(),
	}
	if input.SubTotal != nil {
		updates["sub_total"] = *input.SubTotal
	}
	if input.AdjustmentAmount != nil {
		updates["adjustment_amount"] = *input.AdjustmentAmount
	}
	if input.DiscountAmount != nil {
		updates["discount_amount"] = *input.DiscountAmount
	}
	if input.TaxRate != nil {
		updates["tax_rate"] = *input.TaxRate
	}
	if input.TaxAmount != nil {
		updates["tax_amount"] = *input.TaxAmount
	}
	if input.GrandTotal != nil {
		updates["grand_total"] = *input.GrandTotal
	}

	request, err := s.applyUpdate(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, request)
	return request, nil
}

func (s *service) applyUpdate(ctx context.Context, id int64, updates map[string]any) (*models.ServiceRequest, error) {
	var request *models.ServiceRequest
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findRequest(ctx, repo, id); err != nil {
			return err
		}
		if err := repo.UpdateRequest(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}
		updated, err := s.findRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		request = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) notifyStatus(ctx context.Context, request *models.ServiceRequest) {
	s.notify(ctx, notifications.Input{
		Title:     "Request status updated",
		Message:   fmt.Sprintf("Request %s moved to %s", request.TicketNumber, request.Status),
		Type:      enums.NotificationTypeStatusUpdate,
		RelatedID: &request.ID,
	})
}

// Delete removes the request with its items and parameter values in one
// transaction. Negotiations, messages and notifications stay behind; only
// the service cascade in the catalog removes those.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findRequest(ctx, repo, id); err != nil {
			return err
		}
		if _, err := repo.DeleteParameterValuesByRequest(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete parameter values")
		}
		if _, err := repo.DeleteItemsByRequest(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request items")
		}
		if _, err := repo.DeleteRequest(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request")
		}
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, requestID int64, input ItemInput) (*models.RequestItem, error) {
	var item models.RequestItem
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findRequest(ctx, repo, requestID); err != nil {
			return err
		}
		batch := []models.RequestItem{{
			RequestID:         requestID,
			ServiceType:       input.ServiceType,
			Location:          input.Location,
			Specification:     input.Specification,
			WorkMethod:        input.WorkMethod,
			CustomDescription: input.CustomDescription,
			EstimatedPrice:    input.EstimatedPrice,
		}}
		if err := repo.CreateItems(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request item")
		}
		item = batch[0]
		return createParameterValues(ctx, repo, item.ID, input.ParameterValues)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *service) ListItems(ctx context.Context, requestID int64) ([]models.RequestItem, error) {
	if _, err := s.findRequest(ctx, s.repo, requestID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list request items")
	}
	return items, nil
}

func (s *service) DeleteItem(ctx context.Context, requestID, itemID int64) error {
	return s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find request item")
		}
		if item.RequestID != requestID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "request item not found")
		}
		if _, err := repo.DeleteParameterValuesByItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete parameter values")
		}
		if _, err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request item")
		}
		return nil
	})
}

func (s *service) ListParameterValues(ctx context.Context, itemID int64) ([]models.ParameterValue, error) {
	values, err := s.repo.ListParameterValuesByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parameter values")
	}
	return values, nil
}

// AddNegotiation appends a round numbered one past the current maximum,
// whichever side proposed the previous one. Client proposals notify the
// admins; admin counter-offers do not.
func (s *service) AddNegotiation(ctx context.Context, requestID int64, input NegotiationInput) (*models.NegotiationRound, error) {
	if input.ProposedBy != enums.ProposerAdmin && input.ProposedBy != enums.ProposerClient {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposer must be Admin or Client")
	}

	var (
		round  models.NegotiationRound
		ticket string
	)
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.findRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		ticket = request.TicketNumber

		max, err := repo.MaxNegotiationRound(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load negotiation history")
		}
		round = models.NegotiationRound{
			RequestID:     requestID,
			Round:         max + 1,
			ProposedBy:    input.ProposedBy,
			ProposedTotal: input.ProposedTotal,
			Notes:         input.Notes,
		}
		if err := repo.CreateNegotiation(ctx, &round); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create negotiation round")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.ProposedBy == enums.ProposerClient {
		s.notify(ctx, notifications.Input{
			Title:     "New negotiation proposal",
			Message:   fmt.Sprintf("Request %s received a client proposal of %s in round %d", ticket, round.ProposedTotal.StringFixed(2), round.Round),
			Type:      enums.NotificationTypeNegotiation,
			RelatedID: &round.RequestID,
		})
	}
	return &round, nil
}

func (s *service) ListNegotiations(ctx context.Context, requestID int64) ([]models.NegotiationRound, error) {
	if _, err := s.findRequest(ctx, s.repo, requestID); err != nil {
		return nil, err
	}
	rounds, err := s.repo.ListNegotiations(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list negotiations")
	}
	return rounds, nil
}

// AddMessage appends to the discussion thread. Client messages notify the
// admins.
func (s *service) AddMessage(ctx context.Context, requestID int64, input MessageInput) (*models.Message, error) {
	if strings.TrimSpace(input.Sender) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender required")
	}
	if strings.TrimSpace(input.MessageText) == "" && input.AttachmentData == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text or attachment required")
	}

	request, err := s.findRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	message := models.Message{
		RequestID:      requestID,
		Sender:         input.Sender,
		MessageText:    input.MessageText,
		AttachmentData: input.AttachmentData,
	}
	if err := s.repo.CreateMessage(ctx, &message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}

	if input.Sender == string(enums.ProposerClient) {
		s.notify(ctx, notifications.Input{
			Title:     "New message",
			Message:   fmt.Sprintf("Request %s has a new client message", request.TicketNumber),
			Type:      enums.NotificationTypeMessage,
			RelatedID: &message.RequestID,
		})
	}
	return &message, nil
}

func (s *service) ListMessages(ctx context.Context, requestID int64) ([]models.Message, error) {
	if _, err := s.findRequest(ctx, s.repo, requestID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	return messages, nil
}

func (s *service) DeleteMessage(ctx context.Context, messageID int64) error {
	affected, err := s.repo.DeleteMessage(ctx, messageID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete message")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.repo.CountRequests(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count requests")
	}
	inProcess, err := s.repo.CountRequestsByStatuses(ctx, statusStrings(enums.InProcessRequestStatuses))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count in-process requests")
	}
	deal, err := s.repo.CountRequestsByStatuses(ctx, []string{string(enums.RequestStatusDeal)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count deals")
	}
	rejected, err := s.repo.CountRequestsByStatuses(ctx, []string{string(enums.RequestStatusRejected)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count rejected requests")
	}
	return &Stats{Total: total, InProcess: inProcess, Deal: deal, Rejected: rejected}, nil
}

func statusStrings(statuses []enums.RequestStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
