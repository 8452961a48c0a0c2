package models

import "github.com/shopspring/decimal"

// Portfolio is the top of the service catalog hierarchy.
type Portfolio struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:text;not null" json:"name"`
}

// Category groups subcategories under a portfolio.
type Category struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PortfolioID int64  `gorm:"not null;index" json:"portfolio_id"`
	Name        string `gorm:"type:text;not null" json:"name"`
}

// SubCategory groups services under a category.
type SubCategory struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID int64  `gorm:"not null;index" json:"category_id"`
	Name       string `gorm:"type:text;not null" json:"name"`
}

// Service is a sellable catalog entry.
type Service struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SubCategoryID int64  `gorm:"not null;index" json:"sub_category_id"`
	Name          string `gorm:"type:text;not null" json:"name"`
	Description   string `gorm:"type:text;not null;default:''" json:"description"`
}

// ServiceActivity is one ordered step of a service's process checklist.
type ServiceActivity struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ServiceID int64  `gorm:"not null;index" json:"service_id"`
	StepOrder int    `gorm:"not null" json:"step_order"`
	Name      string `gorm:"type:text;not null" json:"name"`
}

// PricingParameter is a unit-priced dimension used to quote request items.
type PricingParameter struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ServiceID int64           `gorm:"not null;index" json:"service_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"unit_price"`
}
