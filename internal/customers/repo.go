package customers

import (
	"context"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for customer master data.
type Repository interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
	FindCustomerByCompany(ctx context.Context, companyName string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).Order("company_name ASC").Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repository) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
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
