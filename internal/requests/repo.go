package requests

import (
	"context"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRequest(ctx context.Context, request *models.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindRequest(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	err := r.db.WithContext(ctx).
		Order("request_date DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) UpdateRequest(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteRequest(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ServiceRequest{})
	return result.RowsAffected, result.Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.RequestItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ListItems(ctx context.Context, requestID int64) ([]models.RequestItem, error) {
	var items []models.RequestItem
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItem(ctx context.Context, id int64) (*models.RequestItem, error) {
	var item models.RequestItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DeleteItem(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.RequestItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteItemsByRequest(ctx context.Context, requestID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&models.RequestItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) CreateParameterValues(ctx context.Context, values []models.ParameterValue) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&values).Error
}

func (r *repository) ListParameterValuesByItem(ctx context.Context, itemID int64) ([]models.ParameterValue, error) {
	var values []models.ParameterValue
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("id ASC").
		Find(&values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (r *repository) DeleteParameterValuesByItem(ctx context.Context, itemID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ParameterValue{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteParameterValuesByRequest(ctx context.Context, requestID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("item_id IN (?)", r.db.Model(&models.RequestItem{}).
			Select("id").
			Where("request_id = ?", requestID)).
		Delete(&models.ParameterValue{})
	return result.RowsAffected, result.Error
}

func (r *repository) MaxNegotiationRound(ctx context.Context, requestID int64) (int, error) {
	var highest *int
	err := r.db.WithContext(ctx).
		Model(&models.NegotiationRound{}).
		Where("request_id = ?", requestID).
		Select("MAX(round)").
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	if highest == nil {
		return 0, nil
	}
	return *highest, nil
}

func (r *repository) CreateNegotiation(ctx context.Context, round *models.NegotiationRound) error {
	return r.db.WithContext(ctx).Create(round).Error
}

func (r *repository) ListNegotiations(ctx context.Context, requestID int64) ([]models.NegotiationRound, error) {
	var rounds []models.NegotiationRound
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("round ASC").
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) ListMessages(ctx context.Context, requestID int64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

func (r *repository) FindCustomerByCompany(ctx context.Context, companyName string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("company_name = ?", companyName).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) CountRequests(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Count(&count).Error
	return count, err
}

func (r *repository) CountRequestsByStatuses(ctx context.Context, statuses []string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}
