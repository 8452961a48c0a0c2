package catalog

import (
	"context"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the service catalog and the
// cascade closure over dependent quotation rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListPortfolios(ctx context.Context) ([]models.Portfolio, error)
	FindPortfolio(ctx context.Context, id int64) (*models.Portfolio, error)
	CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error
	UpdatePortfolio(ctx context.Context, id int64, name string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByName(ctx context.Context, portfolioID int64, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	FindSubCategoryByName(ctx context.Context, categoryID int64, name string) (*models.SubCategory, error)
	CreateSubCategory(ctx context.Context, sub *models.SubCategory) error

	ListServices(ctx context.Context) ([]models.Service, error)
	FindService(ctx context.Context, id int64) (*models.Service, error)
	CreateService(ctx context.Context, service *models.Service) error
	UpdateService(ctx context.Context, id int64, updates map[string]any) error

	ListActivities(ctx context.Context, serviceID int64) ([]models.ServiceActivity, error)
	CreateActivities(ctx context.Context, activities []models.ServiceActivity) error
	DeleteActivitiesByService(ctx context.Context, serviceID int64) (int64, error)

	ListParameters(ctx context.Context, serviceID int64) ([]models.PricingParameter, error)
	FindParameter(ctx context.Context, id int64) (*models.PricingParameter, error)
	CreateParameter(ctx context.Context, param *models.PricingParameter) error
	UpdateParameter(ctx context.Context, id int64, updates map[string]any) error
	DeleteParameter(ctx context.Context, id int64) (int64, error)
	FindParameterIDsByService(ctx context.Context, serviceID int64) ([]int64, error)
	DeleteParametersByService(ctx context.Context, serviceID int64) (int64, error)

	FindRequestIDsByService(ctx context.Context, serviceID int64) ([]int64, error)
	FindItemIDsByRequests(ctx context.Context, requestIDs []int64) ([]int64, error)
	DeleteNotificationsByRequests(ctx context.Context, requestIDs []int64) (int64, error)
	DeleteMessagesByRequests(ctx context.Context, requestIDs []int64) (int64, error)
	DeleteNegotiationsByRequests(ctx context.Context, requestIDs []int64) (int64, error)
	DeleteParameterValuesByItems(ctx context.Context, itemIDs []int64) (int64, error)
	DeleteParameterValuesByParams(ctx context.Context, paramIDs []int64) (int64, error)
	DeleteItemsByRequests(ctx context.Context, requestIDs []int64) (int64, error)
	DeleteRequestsByService(ctx context.Context, serviceID int64) (int64, error)
	DeleteService(ctx context.Context, id int64) (int64, error)

	FindCategoryIDsByPortfolio(ctx context.Context, portfolioID int64) ([]int64, error)
	FindSubCategoryIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error)
	FindServiceIDsBySubCategories(ctx context.Context, subCategoryIDs []int64) ([]int64, error)
	DeleteSubCategoriesByCategories(ctx context.Context, categoryIDs []int64) (int64, error)
	DeleteCategoriesByPortfolio(ctx context.Context, portfolioID int64) (int64, error)
	DetachRequestsFromServices(ctx context.Context, serviceIDs []int64) (int64, error)
	DetachUsersFromPortfolio(ctx context.Context, portfolioID int64) (int64, error)
	DeletePortfolio(ctx context.Context, id int64) (int64, error)
}
