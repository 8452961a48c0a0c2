package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

// DefaultSubCategoryName is where services land when a category has no
// explicit subcategory yet.
const DefaultSubCategoryName = "General"

const (
	cascadeMaxRetries     = 3
	cascadeInitialBackoff = 50 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines catalog operations including the ordered cascades.
type Service interface {
	ListPortfolios(ctx context.Context) ([]models.Portfolio, error)
	CreatePortfolio(ctx context.Context, input CreatePortfolioInput) (*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id int64, name string) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id int64) (CascadeResult, error)

	ListCategories(ctx context.Context) ([]models.Category, error)

	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, id int64) (*models.Service, []models.ServiceActivity, []models.PricingParameter, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error)
	UpdateService(ctx context.Context, id int64, input UpdateServiceInput) (*models.Service, error)
	DeleteService(ctx context.Context, id int64) (CascadeResult, error)

	ListParameters(ctx context.Context, serviceID int64) ([]models.PricingParameter, error)
	AddParameter(ctx context.Context, serviceID int64, input ParameterInput) (*models.PricingParameter, error)
	UpdateParameter(ctx context.Context, id int64, input ParameterInput) (*models.PricingParameter, error)
	DeleteParameter(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the catalog service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) runCascade(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(cascadeMaxRetries, retry.NewExponential(cascadeInitialBackoff))
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
	return pkgerrors.Wrap(pkgerrors.CodeCascadeFailed, err, "cascade aborted, nothing removed")
}

func (s *service) ListPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	portfolios, err := s.repo.ListPortfolios(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list portfolios")
	}
	return portfolios, nil
}

func (s *service) CreatePortfolio(ctx context.Context, input CreatePortfolioInput) (*models.Portfolio, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "portfolio name required")
	}
	portfolio := &models.Portfolio{Name: input.Name}
	if err := s.repo.CreatePortfolio(ctx, portfolio); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert portfolio")
	}
	return portfolio, nil
}

func (s *service) UpdatePortfolio(ctx context.Context, id int64, name string) (*models.Portfolio, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "portfolio name required")
	}
	if _, err := s.findPortfolio(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePortfolio(ctx, id, name); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update portfolio")
	}
	return &models.Portfolio{ID: id, Name: name}, nil
}

func (s *service) findPortfolio(ctx context.Context, id int64) (*models.Portfolio, error) {
	portfolio, err := s.repo.FindPortfolio(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "portfolio not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load portfolio")
	}
	return portfolio, nil
}

// DeletePortfolio removes a portfolio and its whole catalog subtree in one
// transaction: per-service activities and pricing parameters first, then
// services, subcategories, categories. Service requests referencing the doomed
// services and users referencing the portfolio are detached, never deleted.
func (s *service) DeletePortfolio(ctx context.Context, id int64) (CascadeResult, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "portfolio id required")
	}

	result := CascadeResult{}
	err := s.runCascade(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		counts := CascadeResult{}

		if _, err := repo.FindPortfolio(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "portfolio not found")
			}
			return err
		}

		categoryIDs, err := repo.FindCategoryIDsByPortfolio(ctx, id)
		if err != nil {
			return err
		}
		subCategoryIDs, err := repo.FindSubCategoryIDsByCategories(ctx, categoryIDs)
		if err != nil {
			return err
		}
		serviceIDs, err := repo.FindServiceIDsBySubCategories(ctx, subCategoryIDs)
		if err != nil {
			return err
		}

		detached, err := repo.DetachRequestsFromServices(ctx, serviceIDs)
		if err != nil {
			return err
		}
		counts.add("requests_detached", detached)

		for _, serviceID := range serviceIDs {
			paramIDs, err := repo.FindParameterIDsByService(ctx, serviceID)
			if err != nil {
				return err
			}
			n, err := repo.DeleteParameterValuesByParams(ctx, paramIDs)
			if err != nil {
				return err
			}
			counts.add("parameter_values", n)

			n, err = repo.DeleteParametersByService(ctx, serviceID)
			if err != nil {
				return err
			}
			counts.add("pricing_parameters", n)

			n, err = repo.DeleteActivitiesByService(ctx, serviceID)
			if err != nil {
				return err
			}
			counts.add("service_activities", n)

			n, err = repo.DeleteService(ctx, serviceID)
			if err != nil {
				return err
			}
			counts.add("services", n)
		}

		n, err := repo.DeleteSubCategoriesByCategories(ctx, categoryIDs)
		if err != nil {
			return err
		}
		counts.add("sub_categories", n)

		n, err = repo.DeleteCategoriesByPortfolio(ctx, id)
		if err != nil {
			return err
		}
		counts.add("categories", n)

		n, err = repo.DetachUsersFromPortfolio(ctx, id)
		if err != nil {
			return err
		}
		counts.add("users_detached", n)

		n, err = repo.DeletePortfolio(ctx, id)
		if err != nil {
			return err
		}
		counts.add("portfolios", n)

		for table, count := range counts {
			result.add(table, count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) ListServices(ctx context.Context) ([]models.Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return services, nil
}

func (s *service) GetService(ctx context.Context, id int64) (*models.Service, []models.ServiceActivity, []models.PricingParameter, error) {
	entry, err := s.repo.FindService(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	activities, err := s.repo.ListActivities(ctx, id)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load activities")
	}
	params, err := s.repo.ListParameters(ctx, id)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parameters")
	}
	return entry, activities, params, nil
}

// CreateService resolves the category by name under the portfolio, creating
// both the category and its default subcategory when they do not exist yet.
func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	if input.PortfolioID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "portfolio id required")
	}
	if strings.TrimSpace(input.CategoryName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
	}

	var created *models.Service
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindPortfolio(ctx, input.PortfolioID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "portfolio not found")
			}
			return err
		}

		subCategoryID, err := resolveDefaultSubCategory(ctx, repo, input.PortfolioID, input.CategoryName)
		if err != nil {
			return err
		}

		entry := &models.Service{
			SubCategoryID: subCategoryID,
			Name:          input.Name,
			Description:   input.Description,
		}
		if err := repo.CreateService(ctx, entry); err != nil {
			return err
		}

		if err := repo.CreateActivities(ctx, buildActivities(entry.ID, input.Activities)); err != nil {
			return err
		}
		for _, param := range input.Parameters {
			if strings.TrimSpace(param.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "parameter name required")
			}
			if err := repo.CreateParameter(ctx, &models.PricingParameter{
				ServiceID: entry.ID,
				Name:      param.Name,
				UnitPrice: param.UnitPrice,
			}); err != nil {
				return err
			}
		}

		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateService(ctx context.Context, id int64, input UpdateServiceInput) (*models.Service, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}

	var updated *models.Service
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindService(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
			}
			return err
		}

		updates := map[string]any{}
		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "service name required")
			}
			updates["name"] = *input.Name
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if err := repo.UpdateService(ctx, id, updates); err != nil {
			return err
		}

		if input.Activities != nil {
			if _, err := repo.DeleteActivitiesByService(ctx, id); err != nil {
				return err
			}
			if err := repo.CreateActivities(ctx, buildActivities(id, input.Activities)); err != nil {
				return err
			}
		}

		entry, err := repo.FindService(ctx, id)
		if err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteService removes the service and the full closure of rows that
// reference it, children before parents, in one transaction.
func (s *service) DeleteService(ctx context.Context, id int64) (CascadeResult, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}

	result := CascadeResult{}
	err := s.runCascade(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		counts := CascadeResult{}

		if _, err := repo.FindService(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
			}
			return err
		}

		requestIDs, err := repo.FindRequestIDsByService(ctx, id)
		if err != nil {
			return err
		}
		itemIDs, err := repo.FindItemIDsByRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		paramIDs, err := repo.FindParameterIDsByService(ctx, id)
		if err != nil {
			return err
		}

		n, err := repo.DeleteNotificationsByRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		counts.add("notifications", n)

		n, err = repo.DeleteMessagesByRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		counts.add("messages", n)

		n, err = repo.DeleteNegotiationsByRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		counts.add("negotiation_rounds", n)

		n, err = repo.DeleteParameterValuesByItems(ctx, itemIDs)
		if err != nil {
			return err
		}
		counts.add("parameter_values", n)

		n, err = repo.DeleteItemsByRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		counts.add("request_items", n)

		n, err = repo.DeleteRequestsByService(ctx, id)
		if err != nil {
			return err
		}
		counts.add("service_requests", n)

		n, err = repo.DeleteActivitiesByService(ctx, id)
		if err != nil {
			return err
		}
		counts.add("service_activities", n)

		n, err = repo.DeleteParameterValuesByParams(ctx, paramIDs)
		if err != nil {
			return err
		}
		counts.add("parameter_values", n)

		n, err = repo.DeleteParametersByService(ctx, id)
		if err != nil {
			return err
		}
		counts.add("pricing_parameters", n)

		n, err = repo.DeleteService(ctx, id)
		if err != nil {
			return err
		}
		counts.add("services", n)

		for table, count := range counts {
			result.add(table, count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListParameters(ctx context.Context, serviceID int64) ([]models.PricingParameter, error) {
	if _, err := s.repo.FindService(ctx, serviceID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	params, err := s.repo.ListParameters(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parameters")
	}
	return params, nil
}

func (s *service) AddParameter(ctx context.Context, serviceID int64, input ParameterInput) (*models.PricingParameter, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parameter name required")
	}
	if _, err := s.repo.FindService(ctx, serviceID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	param := &models.PricingParameter{
		ServiceID: serviceID,
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
	}
	if err := s.repo.CreateParameter(ctx, param); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert parameter")
	}
	return param, nil
}

func (s *service) UpdateParameter(ctx context.Context, id int64, input ParameterInput) (*models.PricingParameter, error) {
	param, err := s.repo.FindParameter(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parameter not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parameter")
	}
	updates := map[string]any{}
	if strings.TrimSpace(input.Name) != "" {
		updates["name"] = input.Name
		param.Name = input.Name
	}
	updates["unit_price"] = input.UnitPrice
	param.UnitPrice = input.UnitPrice
	if err := s.repo.UpdateParameter(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update parameter")
	}
	return param, nil
}

func (s *service) DeleteParameter(ctx context.Context, id int64) error {
	return s.runTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.DeleteParameterValuesByParams(ctx, []int64{id}); err != nil {
			return err
		}
		removed, err := repo.DeleteParameter(ctx, id)
		if err != nil {
			return err
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "parameter not found")
		}
		return nil
	})
}

func (s *service) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.tx.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "catalog transaction aborted")
}

func resolveDefaultSubCategory(ctx context.Context, repo Repository, portfolioID int64, categoryName string) (int64, error) {
	category, err := repo.FindCategoryByName(ctx, portfolioID, categoryName)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return 0, err
		}
		category = &models.Category{PortfolioID: portfolioID, Name: categoryName}
		if err := repo.CreateCategory(ctx, category); err != nil {
			return 0, err
		}
	}

	sub, err := repo.FindSubCategoryByName(ctx, category.ID, DefaultSubCategoryName)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return 0, err
		}
		sub = &models.SubCategory{CategoryID: category.ID, Name: DefaultSubCategoryName}
		if err := repo.CreateSubCategory(ctx, sub); err != nil {
			return 0, err
		}
	}
	return sub.ID, nil
}

func buildActivities(serviceID int64, names []string) []models.ServiceActivity {
	activities := make([]models.ServiceActivity, 0, len(names))
	order := 1
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		activities = append(activities, models.ServiceActivity{
			ServiceID: serviceID,
			StepOrder: order,
			Name:      name,
		})
		order++
	}
	return activities
}
