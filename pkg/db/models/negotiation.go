package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sione-id/backoffice-backend/pkg/enums"
)

// NegotiationRound is one proposal/counter-proposal exchange. Round numbers
// are strictly increasing per request regardless of proposer; amounts are
// deliberately unvalidated.
type NegotiationRound struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID     int64           `gorm:"not null;index" json:"request_id"`
	Round         int             `gorm:"not null" json:"round"`
	ProposedBy    enums.Proposer  `gorm:"type:text;not null" json:"proposed_by"`
	ProposedTotal decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"proposed_total"`
	Notes         string          `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Message is one entry in a request's discussion thread.
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID      int64     `gorm:"not null;index" json:"request_id"`
	Sender         string    `gorm:"type:text;not null" json:"sender"`
	MessageText    string    `gorm:"type:text;not null;default:''" json:"message_text"`
	AttachmentData *string   `gorm:"type:text" json:"attachment_data,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
