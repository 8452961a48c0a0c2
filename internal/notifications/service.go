package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/logger"
	"github.com/sione-id/backoffice-backend/pkg/pagination"
)

const dispatchTimeout = 30 * time.Second

// Input describes one notification to persist and fan out.
type Input struct {
	Title     string
	Message   string
	Type      enums.NotificationType
	RelatedID *int64
}

// Feed is one page of the notification feed.
type Feed struct {
	Notifications []models.Notification `json:"notifications"`
	NextCursor    string                `json:"next_cursor,omitempty"`
	Unread        int64                 `json:"unread"`
}

// Service persists notifications, fans them out and serves the feed.
type Service interface {
	Notify(ctx context.Context, input Input) error
	List(ctx context.Context, params pagination.Params) (*Feed, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	repo       Repository
	dispatcher *Dispatcher
	logg       *logger.Logger

	// dispatchAsync is swapped out in tests to run deliveries inline.
	dispatchAsync bool
}

// NewService builds the notification service.
func NewService(repo Repository, dispatcher *Dispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &service{
		repo:          repo,
		dispatcher:    dispatcher,
		logg:          logg,
		dispatchAsync: true,
	}, nil
}

// Notify persists the notification row and hands delivery to the dispatcher
// outside the caller's transaction. Delivery failures are logged only; the
// caller always sees success once the row is written.
func (s *service) Notify(ctx context.Context, input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	notification := &models.Notification{
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		RelatedID: input.RelatedID,
	}
	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}

	if s.dispatchAsync {
		go s.dispatch(notification)
	} else {
		s.dispatchWithCtx(ctx, notification)
	}
	return nil
}

func (s *service) dispatch(notification *models.Notification) {
	// The request context is gone by the time the goroutine runs.
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	s.dispatchWithCtx(ctx, notification)
}

func (s *service) dispatchWithCtx(ctx context.Context, notification *models.Notification) {
	if err := s.dispatcher.Dispatch(ctx, notification); err != nil && s.logg != nil {
		s.logg.Error(ctx, "notification fan-out incomplete", err)
	}
}

func (s *service) List(ctx context.Context, params pagination.Params) (*Feed, error) {
	rows, next, err := s.repo.ListNotifications(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return &Feed{Notifications: rows, NextCursor: next, Unread: unread}, nil
}

func (s *service) MarkRead(ctx context.Context, id int64) error {
	affected, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return affected, nil
}
