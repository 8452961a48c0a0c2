package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubNotificationsRepo struct {
	rows      []*models.Notification
	createErr error
}

func (s *stubNotificationsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubNotificationsRepo) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	notification.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, notification)
	return nil
}

func (s *stubNotificationsRepo) ListNotifications(ctx context.Context, params pagination.Params) ([]models.Notification, string, error) {
	var rows []models.Notification
	for _, row := range s.rows {
		rows = append(rows, *row)
	}
	return rows, "", nil
}

func (s *stubNotificationsRepo) MarkRead(ctx context.Context, id int64) (int64, error) {
	for _, row := range s.rows {
		if row.ID == id {
			row.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubNotificationsRepo) MarkAllRead(ctx context.Context) (int64, error) {
	var affected int64
	for _, row := range s.rows {
		if !row.IsRead {
			row.IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (s *stubNotificationsRepo) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	for _, row := range s.rows {
		if !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *stubNotificationsRepo) FindRecipients(ctx context.Context) ([]models.User, error) {
	return nil, nil
}

func newInlineService(t *testing.T, repo Repository, recipients RecipientSource, senders []Sender) *service {
	t.Helper()
	dispatcher, err := NewDispatcher(recipients, senders, nil, nil)
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	svc, err := NewService(repo, dispatcher, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	impl := svc.(*service)
	impl.dispatchAsync = false
	return impl
}

func TestNotifyPersistsRowAndFansOut(t *testing.T) {
	repo := &stubNotificationsRepo{}
	recipients := &stubRecipientSource{users: []models.User{{ID: 1, Email: strPtr("a@example.com")}}}
	email := &stubSender{channel: enums.ChannelEmail}
	svc := newInlineService(t, repo, recipients, []Sender{email})

	related := int64(42)
	err := svc.Notify(context.Background(), Input{
		Title:     "Status Update",
		Message:   "request moved to Deal",
		Type:      enums.NotificationTypeStatusUpdate,
		RelatedID: &related,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected persisted notification, got %d", len(repo.rows))
	}
	if repo.rows[0].RelatedID == nil || *repo.rows[0].RelatedID != 42 {
		t.Fatalf("expected related id stored")
	}
	if len(email.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(email.sent))
	}
}

func TestNotifySucceedsWhenDeliveryFails(t *testing.T) {
	repo := &stubNotificationsRepo{}
	recipients := &stubRecipientSource{users: []models.User{{ID: 1, Email: strPtr("a@example.com")}}}
	email := &stubSender{channel: enums.ChannelEmail, err: errors.New("smtp down")}
	svc := newInlineService(t, repo, recipients, []Sender{email})

	err := svc.Notify(context.Background(), Input{Title: "t", Message: "m", Type: enums.NotificationTypeMessage})
	if err != nil {
		t.Fatalf("delivery failure must not surface to the caller, got %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("row must persist regardless of delivery, got %d", len(repo.rows))
	}
}

func TestNotifyFailsWhenPersistFails(t *testing.T) {
	repo := &stubNotificationsRepo{createErr: errors.New("insert failed")}
	svc := newInlineService(t, repo, &stubRecipientSource{}, nil)

	err := svc.Notify(context.Background(), Input{Title: "t", Message: "m", Type: enums.NotificationTypeMessage})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &stubNotificationsRepo{}
	svc := newInlineService(t, repo, &stubRecipientSource{}, nil)

	err := svc.MarkRead(context.Background(), 99)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListReportsUnreadCount(t *testing.T) {
	repo := &stubNotificationsRepo{}
	svc := newInlineService(t, repo, &stubRecipientSource{}, nil)

	for i := 0; i < 3; i++ {
		if err := svc.Notify(context.Background(), Input{Title: "t", Message: "m", Type: enums.NotificationTypeMessage}); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if err := svc.MarkRead(context.Background(), 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	feed, err := svc.List(context.Background(), pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if feed.Unread != 2 {
		t.Fatalf("expected 2 unread, got %d", feed.Unread)
	}
	if len(feed.Notifications) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(feed.Notifications))
	}
}
