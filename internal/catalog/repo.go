package catalog

import (
	"context"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	err := r.db.WithContext(ctx).Order("name ASC").Find(&portfolios).Error
	if err != nil {
		return nil, err
	}
	return portfolios, nil
}

func (r *repository) FindPortfolio(ctx context.Context, id int64) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&portfolio).Error
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (r *repository) CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	return r.db.WithContext(ctx).Create(portfolio).Error
}

func (r *repository) UpdatePortfolio(ctx context.Context, id int64, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Portfolio{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("portfolio_id ASC, name ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindCategoryByName(ctx context.Context, portfolioID int64, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND name = ?", portfolioID, name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) FindSubCategoryByName(ctx context.Context, categoryID int64, name string) (*models.SubCategory, error) {
	var sub models.SubCategory
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND name = ?", categoryID, name).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := r.db.WithContext(ctx).Order("name ASC").Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) FindService(ctx context.Context, id int64) (*models.Service, error) {
	var service models.Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) CreateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *repository) UpdateService(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListActivities(ctx context.Context, serviceID int64) ([]models.ServiceActivity, error) {
	var activities []models.ServiceActivity
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("step_order ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *repository) CreateActivities(ctx context.Context, activities []models.ServiceActivity) error {
	if len(activities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&activities).Error
}

func (r *repository) DeleteActivitiesByService(ctx context.Context, serviceID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Delete(&models.ServiceActivity{})
	return result.RowsAffected, result.Error
}

func (r *repository) ListParameters(ctx context.Context, serviceID int64) ([]models.PricingParameter, error) {
	var params []models.PricingParameter
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("name ASC").
		Find(&params).Error
	if err != nil {
		return nil, err
	}
	return params, nil
}

func (r *repository) FindParameter(ctx context.Context, id int64) (*models.PricingParameter, error) {
	var param models.PricingParameter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&param).Error
	if err != nil {
		return nil, err
	}
	return &param, nil
}

func (r *repository) CreateParameter(ctx context.Context, param *models.PricingParameter) error {
	return r.db.WithContext(ctx).Create(param).Error
}

func (r *repository) UpdateParameter(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PricingParameter{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteParameter(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PricingParameter{})
	return result.RowsAffected, result.Error
}

func (r *repository) FindParameterIDsByService(ctx context.Context, serviceID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.PricingParameter{}).
		Where("service_id = ?", serviceID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) DeleteParametersByService(ctx context.Context, serviceID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Delete(&models.PricingParameter{})
	return result.RowsAffected, result.Error
}

func (r *repository) FindRequestIDsByService(ctx context.Context, serviceID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("service_id = ?", serviceID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) FindItemIDsByRequests(ctx context.Context, requestIDs []int64) ([]int64, error) {
	var ids []int64
	if len(requestIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("request_id IN ?", requestIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) DeleteNotificationsByRequests(ctx context.Context, requestIDs []int64) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("related_id IN ?", requestIDs).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteMessagesByRequests(ctx context.Context, requestIDs []int64) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteNegotiationsByRequests(ctx context.Context, requestIDs []int64) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Delete(&models.NegotiationRound{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteParameterValuesByItems(ctx context.Context, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Delete(&models.ParameterValue{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteParameterValuesByParams(ctx context.Context, paramIDs []int64) (int64, error) {
	if len(paramIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("param_id IN ?", paramIDs).
		Delete(&models.ParameterValue{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteItemsByRequests(ctx context.Context, requestIDs []int64) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Delete(&models.RequestItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteRequestsByService(ctx context.Context, serviceID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Delete(&models.ServiceRequest{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteService(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Service{})
	return result.RowsAffected, result.Error
}

func (r *repository) FindCategoryIDsByPortfolio(ctx context.Context, portfolioID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("portfolio_id = ?", portfolioID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) FindSubCategoryIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	var ids []int64
	if len(categoryIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.SubCategory{}).
		Where("category_id IN ?", categoryIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) FindServiceIDsBySubCategories(ctx context.Context, subCategoryIDs []int64) ([]int64, error) {
	var ids []int64
	if len(subCategoryIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("sub_category_id IN ?", subCategoryIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) DeleteSubCategoriesByCategories(ctx context.Context, categoryIDs []int64) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Delete(&models.SubCategory{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteCategoriesByPortfolio(ctx context.Context, portfolioID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Delete(&models.Category{})
	return result.RowsAffected, result.Error
}

func (r *repository) DetachRequestsFromServices(ctx context.Context, serviceIDs []int64) (int64, error) {
	if len(serviceIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("service_id IN ?", serviceIDs).
		Update("service_id", nil)
	return result.RowsAffected, result.Error
}

func (r *repository) DetachUsersFromPortfolio(ctx context.Context, portfolioID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("portfolio_id = ?", portfolioID).
		Update("portfolio_id", nil)
	return result.RowsAffected, result.Error
}

func (r *repository) DeletePortfolio(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Portfolio{})
	return result.RowsAffected, result.Error
}
