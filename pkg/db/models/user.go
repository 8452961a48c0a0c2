package models

// User is an application account. Email and WhatsAppPhone are the contact
// points the notification dispatcher fans out to.
type User struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string  `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash  string  `gorm:"type:text;not null" json:"-"`
	FullName      string  `gorm:"type:text;not null" json:"full_name"`
	Role          string  `gorm:"type:text;not null;default:'Admin'" json:"role"`
	PortfolioID   *int64  `gorm:"index" json:"portfolio_id,omitempty"`
	CustomerID    *int64  `gorm:"index" json:"customer_id,omitempty"`
	Email         *string `gorm:"type:text" json:"email,omitempty"`
	WhatsAppPhone *string `gorm:"type:text;column:whatsapp_phone" json:"whatsapp_phone,omitempty"`
}
