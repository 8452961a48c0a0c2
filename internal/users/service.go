package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"gorm.io/gorm"
)

// CreateUserInput registers an application account. Email and WhatsAppPhone
// are the contact points the notification dispatcher fans out to.
type CreateUserInput struct {
	Username      string
	Password      string
	FullName      string
	Role          string
	PortfolioID   *int64
	CustomerID    *int64
	Email         *string
	WhatsAppPhone *string
}

// UpdateContactInput replaces a user's notification contact points. Nil
// fields stay untouched; empty strings clear the contact point.
type UpdateContactInput struct {
	Email         *string
	WhatsAppPhone *string
}

const defaultRole = "Admin"

// Service defines account management operations.
type Service interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, input CreateUserInput) (*models.User, error)
	UpdateContacts(ctx context.Context, id int64, input UpdateContactInput) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

// NewService builds the users service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	return user, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password required")
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = defaultRole
	}

	user := models.User{
		Username: username,
		// Passwords are stored as-is to stay interoperable with the
		// accounts migrated from the legacy system. See DESIGN.md.
		PasswordHash:  input.Password,
		FullName:      input.FullName,
		Role:          role,
		PortfolioID:   input.PortfolioID,
		CustomerID:    input.CustomerID,
		Email:         normalizeContact(input.Email),
		WhatsAppPhone: normalizeContact(input.WhatsAppPhone),
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken").
				WithDetails(map[string]any{"username": username})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &user, nil
}

func (s *service) UpdateContacts(ctx context.Context, id int64, input UpdateContactInput) (*models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Email != nil {
		updates["email"] = normalizeContact(input.Email)
	}
	if input.WhatsAppPhone != nil {
		updates["whatsapp_phone"] = normalizeContact(input.WhatsAppPhone)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no contact fields to update")
	}
	if err := s.repo.UpdateUser(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user contacts")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

// normalizeContact maps blank contact values to NULL so the dispatcher's
// recipient query skips them.
func normalizeContact(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
