package models

import (
	"time"

	"github.com/sione-id/backoffice-backend/pkg/enums"
)

// Notification is an in-app notification row. RelatedID points at the
// request the event concerns, when there is one.
type Notification struct {
	ID        int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string                 `gorm:"type:text;not null" json:"title"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	Type      enums.NotificationType `gorm:"type:text;not null" json:"type"`
	RelatedID *int64                 `gorm:"index" json:"related_id,omitempty"`
	IsRead    bool                   `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time              `gorm:"autoCreateTime" json:"created_at"`
}
