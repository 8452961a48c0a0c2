package requests

import (
	"context"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the quotation workflow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRequest(ctx context.Context, request *models.ServiceRequest) error
	FindRequest(ctx context.Context, id int64) (*models.ServiceRequest, error)
	ListRequests(ctx context.Context) ([]models.ServiceRequest, error)
	UpdateRequest(ctx context.Context, id int64, updates map[string]any) error
	DeleteRequest(ctx context.Context, id int64) (int64, error)

	CreateItems(ctx context.Context, items []models.RequestItem) error
	ListItems(ctx context.Context, requestID int64) ([]models.RequestItem, error)
	FindItem(ctx context.Context, id int64) (*models.RequestItem, error)
	DeleteItem(ctx context.Context, id int64) (int64, error)
	DeleteItemsByRequest(ctx context.Context, requestID int64) (int64, error)

	CreateParameterValues(ctx context.Context, values []models.ParameterValue) error
	ListParameterValuesByItem(ctx context.Context, itemID int64) ([]models.ParameterValue, error)
	DeleteParameterValuesByItem(ctx context.Context, itemID int64) (int64, error)
	DeleteParameterValuesByRequest(ctx context.Context, requestID int64) (int64, error)

	MaxNegotiationRound(ctx context.Context, requestID int64) (int, error)
	CreateNegotiation(ctx context.Context, round *models.NegotiationRound) error
	ListNegotiations(ctx context.Context, requestID int64) ([]models.NegotiationRound, error)

	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, requestID int64) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id int64) (int64, error)

	FindCustomerByCompany(ctx context.Context, companyName string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error

	CountRequests(ctx context.Context) (int64, error)
	CountRequestsByStatuses(ctx context.Context, statuses []string) (int64, error)
}
