package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

// CreateCustomerInput registers a customer company with its contact person.
type CreateCustomerInput struct {
	CompanyName string
	PICName     string
	PICPhone    string
	PICEmail    string
}

// Service defines customer master data operations.
type Service interface {
	List(ctx context.Context) ([]models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
}

type service struct {
	repo Repository
}

// NewService builds the customer service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.FindCustomer(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer")
	}
	return customer, nil
}

func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	company := strings.TrimSpace(input.CompanyName)
	if company == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if _, err := s.repo.FindCustomerByCompany(ctx, company); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "company already registered").
			WithDetails(map[string]any{"company_name": company})
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	customer := models.Customer{
		CompanyName: company,
		PICName:     input.PICName,
		PICPhone:    input.PICPhone,
		PICEmail:    input.PICEmail,
	}
	if err := s.repo.CreateCustomer(ctx, &customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return &customer, nil
}
