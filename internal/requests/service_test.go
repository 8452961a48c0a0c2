package requests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sione-id/backoffice-backend/internal/notifications"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubRequestsRepo struct {
	requests     map[int64]*models.ServiceRequest
	items        map[int64]*models.RequestItem
	paramValues  []*models.ParameterValue
	negotiations []*models.NegotiationRound
	messages     []*models.Message
	customers    map[int64]*models.Customer

	nextRequestID int64
	nextItemID    int64
	nextRoundID   int64
	nextMessageID int64
	nextCustID    int64

	createRequestErr error
}

func newStubRequestsRepo() *stubRequestsRepo {
	return &stubRequestsRepo{
		requests:  make(map[int64]*models.ServiceRequest),
		items:     make(map[int64]*models.RequestItem),
		customers: make(map[int64]*models.Customer),
	}
}

func (s *stubRequestsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRequestsRepo) CreateRequest(ctx context.Context, request *models.ServiceRequest) error {
	if s.createRequestErr != nil {
		return s.createRequestErr
	}
	s.nextRequestID++
	request.ID = s.nextRequestID
	copied := *request
	s.requests[copied.ID] = &copied
	return nil
}

func (s *stubRequestsRepo) FindRequest(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (s *stubRequestsRepo) ListRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	for _, request := range s.requests {
		out = append(out, *request)
	}
	return out, nil
}

func (s *stubRequestsRepo) UpdateRequest(ctx context.Context, id int64, updates map[string]any) error {
	request, ok := s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(string); ok {
		request.Status = status
	}
	if total, ok := updates["grand_total"].(decimal.Decimal); ok {
		request.GrandTotal = total
	}
	if stamp, ok := updates["last_updated"].(time.Time); ok {
		request.LastUpdated = stamp
	}
	return nil
}

func (s *stubRequestsRepo) DeleteRequest(ctx context.Context, id int64) (int64, error) {
	if _, ok := s.requests[id]; !ok {
		return 0, nil
	}
	delete(s.requests, id)
	return 1, nil
}

func (s *stubRequestsRepo) CreateItems(ctx context.Context, items []models.RequestItem) error {
	for i := range items {
		s.nextItemID++
		items[i].ID = s.nextItemID
		copied := items[i]
		s.items[copied.ID] = &copied
	}
	return nil
}

func (s *stubRequestsRepo) ListItems(ctx context.Context, requestID int64) ([]models.RequestItem, error) {
	var out []models.RequestItem
	for _, item := range s.items {
		if item.RequestID == requestID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubRequestsRepo) FindItem(ctx context.Context, id int64) (*models.RequestItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubRequestsRepo) DeleteItem(ctx context.Context, id int64) (int64, error) {
	if _, ok := s.items[id]; !ok {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}

func (s *stubRequestsRepo) DeleteItemsByRequest(ctx context.Context, requestID int64) (int64, error) {
	var affected int64
	for id, item := range s.items {
		if item.RequestID == requestID {
			delete(s.items, id)
			affected++
		}
	}
	return affected, nil
}

func (s *stubRequestsRepo) CreateParameterValues(ctx context.Context, values []models.ParameterValue) error {
	for i := range values {
		copied := values[i]
		s.paramValues = append(s.paramValues, &copied)
	}
	return nil
}

func (s *stubRequestsRepo) ListParameterValuesByItem(ctx context.Context, itemID int64) ([]models.ParameterValue, error) {
	var out []models.ParameterValue
	for _, value := range s.paramValues {
		if value.ItemID == itemID {
			out = append(out, *value)
		}
	}
	return out, nil
}

func (s *stubRequestsRepo) DeleteParameterValuesByItem(ctx context.Context, itemID int64) (int64, error) {
	var kept []*models.ParameterValue
	var affected int64
	for _, value := range s.paramValues {
		if value.ItemID == itemID {
			affected++
			continue
		}
		kept = append(kept, value)
	}
	s.paramValues = kept
	return affected, nil
}

func (s *stubRequestsRepo) DeleteParameterValuesByRequest(ctx context.Context, requestID int64) (int64, error) {
	itemIDs := make(map[int64]bool)
	for id, item := range s.items {
		if item.RequestID == requestID {
			itemIDs[id] = true
		}
	}
	var kept []*models.ParameterValue
	var affected int64
	for _, value := range s.paramValues {
		if itemIDs[value.ItemID] {
			affected++
			continue
		}
		kept = append(kept, value)
	}
	s.paramValues = kept
	return affected, nil
}

func (s *stubRequestsRepo) MaxNegotiationRound(ctx context.Context, requestID int64) (int, error) {
	max := 0
	for _, round := range s.negotiations {
		if round.RequestID == requestID && round.Round > max {
			max = round.Round
		}
	}
	return max, nil
}

func (s *stubRequestsRepo) CreateNegotiation(ctx context.Context, round *models.NegotiationRound) error {
	s.nextRoundID++
	round.ID = s.nextRoundID
	copied := *round
	s.negotiations = append(s.negotiations, &copied)
	return nil
}

func (s *stubRequestsRepo) ListNegotiations(ctx context.Context, requestID int64) ([]models.NegotiationRound, error) {
	var out []models.NegotiationRound
	for _, round := range s.negotiations {
		if round.RequestID == requestID {
			out = append(out, *round)
		}
	}
	return out, nil
}

func (s *stubRequestsRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	s.nextMessageID++
	message.ID = s.nextMessageID
	copied := *message
	s.messages = append(s.messages, &copied)
	return nil
}

func (s *stubRequestsRepo) ListMessages(ctx context.Context, requestID int64) ([]models.Message, error) {
	var out []models.Message
	for _, message := range s.messages {
		if message.RequestID == requestID {
			out = append(out, *message)
		}
	}
	return out, nil
}

func (s *stubRequestsRepo) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	var kept []*models.Message
	var affected int64
	for _, message := range s.messages {
		if message.ID == id {
			affected++
			continue
		}
		kept = append(kept, message)
	}
	s.messages = kept
	return affected, nil
}

func (s *stubRequestsRepo) FindCustomerByCompany(ctx context.Context, companyName string) (*models.Customer, error) {
	for _, customer := range s.customers {
		if customer.CompanyName == companyName {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRequestsRepo) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	s.nextCustID++
	customer.ID = s.nextCustID
	copied := *customer
	s.customers[copied.ID] = &copied
	return nil
}

func (s *stubRequestsRepo) CountRequests(ctx context.Context) (int64, error) {
	return int64(len(s.requests)), nil
}

func (s *stubRequestsRepo) CountRequestsByStatuses(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	for _, request := range s.requests {
		for _, status := range statuses {
			if request.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSequencer struct {
	counters map[string]int
}

func (s *stubSequencer) Next(tx *gorm.DB, prefix, bucket string) (string, error) {
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	key := prefix + "-" + bucket
	s.counters[key]++
	return fmt.Sprintf("%s-%s-%03d", prefix, bucket, s.counters[key]), nil
}

type stubNotifier struct {
	inputs []notifications.Input
}

func (s *stubNotifier) Notify(ctx context.Context, input notifications.Input) error {
	s.inputs = append(s.inputs, input)
	return nil
}

func newTestService(t *testing.T, repo *stubRequestsRepo) (Service, *stubNotifier) {
	t.Helper()
	notifier := &stubNotifier{}
	svc, err := NewService(repo, stubTxRunner{}, &stubSequencer{}, notifier)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.(*service).now = func() time.Time {
		return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	}
	return svc, notifier
}

func TestCreateMintsTicketAndUpsertsCustomer(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, notifier := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{
		CompanyName:     "PT Maju",
		PICName:         "Budi",
		PICEmail:        "budi@majumaju.co.id",
		ProjectLocation: "Jakarta",
		Items: []ItemInput{
			{
				ServiceType:    "Survey",
				EstimatedPrice: decimal.NewFromInt(1500000),
				ParameterValues: []ParameterValueInput{
					{ParamID: 7, Quantity: decimal.NewFromInt(3)},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Request.TicketNumber != "REQ-2025-001" {
		t.Fatalf("ticket = %q, want REQ-2025-001", detail.Request.TicketNumber)
	}
	if detail.Request.Status != string(enums.RequestStatusNew) {
		t.Fatalf("status = %q, want %q", detail.Request.Status, enums.RequestStatusNew)
	}
	if detail.Request.CustomerID == nil {
		t.Fatal("expected customer to be created and linked")
	}
	if len(repo.customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(repo.customers))
	}
	if len(detail.Items) != 1 || detail.Items[0].ID == 0 {
		t.Fatalf("expected one persisted item with id, got %+v", detail.Items)
	}
	if len(repo.paramValues) != 1 || repo.paramValues[0].ItemID != detail.Items[0].ID {
		t.Fatalf("expected one parameter value bound to the item")
	}
	if len(notifier.inputs) != 1 || notifier.inputs[0].Type != enums.NotificationTypeNewRequest {
		t.Fatalf("expected one new-request notification, got %+v", notifier.inputs)
	}
}

func TestCreateReusesExistingCustomer(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if len(repo.customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(repo.customers))
	}
	if *first.Request.CustomerID != *second.Request.CustomerID {
		t.Fatal("both requests should reference the same customer")
	}
	if second.Request.TicketNumber != "REQ-2025-002" {
		t.Fatalf("second ticket = %q, want REQ-2025-002", second.Request.TicketNumber)
	}
}

func TestCreateGuestRequestHasNoCustomer(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)

	detail, err := svc.Create(context.Background(), CreateRequestInput{
		GuestName:  "Siti",
		GuestPhone: "0812000111",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Request.CustomerID != nil {
		t.Fatal("guest request must not reference a customer")
	}
	if len(repo.customers) != 0 {
		t.Fatalf("customers = %d, want 0", len(repo.customers))
	}
}

func TestCreateRejectsAnonymousRequest(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateRequestInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdateNotifiesOnlyWhenStatusSupplied(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, notifier := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.inputs = nil

	total := decimal.NewFromInt(9000000)
	if _, err := svc.Update(ctx, detail.Request.ID, UpdateRequestInput{GrandTotal: &total}); err != nil {
		t.Fatalf("financial update: %v", err)
	}
	if len(notifier.inputs) != 0 {
		t.Fatalf("financial-only update must not notify, got %+v", notifier.inputs)
	}

	status := "Reviewing"
	updated, err := svc.Update(ctx, detail.Request.ID, UpdateRequestInput{Status: &status})
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if updated.Status != "Reviewing" {
		t.Fatalf("status = %q, want Reviewing", updated.Status)
	}
	if len(notifier.inputs) != 1 || notifier.inputs[0].Type != enums.NotificationTypeStatusUpdate {
		t.Fatalf("expected one status notification, got %+v", notifier.inputs)
	}
}

func TestUpdateStatusAcceptsFreeFormAndAlwaysNotifies(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, notifier := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.inputs = nil

	updated, err := svc.UpdateStatus(ctx, detail.Request.ID, UpdateStatusInput{Status: "Waiting for site access"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "Waiting for site access" {
		t.Fatalf("status = %q", updated.Status)
	}
	if len(notifier.inputs) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.inputs))
	}

	_, err = svc.UpdateStatus(ctx, detail.Request.ID, UpdateStatusInput{Status: "   "})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("blank status should be rejected, got %v", err)
	}
}

func TestUpdateStatusMissingRequest(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), 99, UpdateStatusInput{Status: "Deal"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAddNegotiationNumbersRoundsAcrossProposers(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, notifier := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.inputs = nil

	first, err := svc.AddNegotiation(ctx, detail.Request.ID, NegotiationInput{
		ProposedBy:    enums.ProposerAdmin,
		ProposedTotal: decimal.NewFromInt(10000000),
	})
	if err != nil {
		t.Fatalf("first round: %v", err)
	}
	if first.Round != 1 {
		t.Fatalf("first round = %d, want 1", first.Round)
	}
	if len(notifier.inputs) != 0 {
		t.Fatalf("admin proposal must not notify, got %+v", notifier.inputs)
	}

	second, err := svc.AddNegotiation(ctx, detail.Request.ID, NegotiationInput{
		ProposedBy:    enums.ProposerClient,
		ProposedTotal: decimal.NewFromInt(8500000),
	})
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if second.Round != 2 {
		t.Fatalf("second round = %d, want 2", second.Round)
	}
	if len(notifier.inputs) != 1 || notifier.inputs[0].Type != enums.NotificationTypeNegotiation {
		t.Fatalf("client proposal should notify, got %+v", notifier.inputs)
	}
}

func TestAddNegotiationRejectsUnknownProposer(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)

	_, err := svc.AddNegotiation(context.Background(), 1, NegotiationInput{ProposedBy: "Vendor"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAddMessageNotifiesForClientSenderOnly(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, notifier := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT Maju"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.inputs = nil

	if _, err := svc.AddMessage(ctx, detail.Request.ID, MessageInput{Sender: "Admin", MessageText: "Quotation attached"}); err != nil {
		t.Fatalf("admin message: %v", err)
	}
	if len(notifier.inputs) != 0 {
		t.Fatalf("admin message must not notify, got %+v", notifier.inputs)
	}

	if _, err := svc.AddMessage(ctx, detail.Request.ID, MessageInput{Sender: "Client", MessageText: "Can we revise the scope?"}); err != nil {
		t.Fatalf("client message: %v", err)
	}
	if len(notifier.inputs) != 1 || notifier.inputs[0].Type != enums.NotificationTypeMessage {
		t.Fatalf("client message should notify, got %+v", notifier.inputs)
	}

	messages, err := svc.ListMessages(ctx, detail.Request.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
}

func TestDeleteRemovesItemsAndParameterValues(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	detail, err := svc.Create(ctx, CreateRequestInput{
		CompanyName: "PT Maju",
		Items: []ItemInput{
			{ServiceType: "Survey", ParameterValues: []ParameterValueInput{{ParamID: 1, Quantity: decimal.NewFromInt(2)}}},
			{ServiceType: "Drafting"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, detail.Request.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.requests) != 0 {
		t.Fatalf("requests left = %d", len(repo.requests))
	}
	if len(repo.items) != 0 {
		t.Fatalf("items left = %d", len(repo.items))
	}
	if len(repo.paramValues) != 0 {
		t.Fatalf("parameter values left = %d", len(repo.paramValues))
	}
}

func TestDeleteItemScopedToRequest(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT A", Items: []ItemInput{{ServiceType: "Survey"}}})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := svc.Create(ctx, CreateRequestInput{CompanyName: "PT B"})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	err = svc.DeleteItem(ctx, b.Request.ID, a.Items[0].ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("cross-request item delete should be NOT_FOUND, got %v", err)
	}
	if err := svc.DeleteItem(ctx, a.Request.ID, a.Items[0].ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
}

func TestStatsCountsByStatusBuckets(t *testing.T) {
	repo := newStubRequestsRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	seed := []string{"New Request", "Reviewing", "Negotiation", "Deal", "Rejected", "Completed"}
	for i, status := range seed {
		detail, err := svc.Create(ctx, CreateRequestInput{CompanyName: fmt.Sprintf("PT %d", i)})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if status != string(enums.RequestStatusNew) {
			if _, err := svc.UpdateStatus(ctx, detail.Request.ID, UpdateStatusInput{Status: status}); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 6 {
		t.Fatalf("total = %d, want 6", stats.Total)
	}
	if stats.InProcess != 3 {
		t.Fatalf("in process = %d, want 3", stats.InProcess)
	}
	if stats.Deal != 1 || stats.Rejected != 1 {
		t.Fatalf("deal = %d rejected = %d, want 1/1", stats.Deal, stats.Rejected)
	}
}
