package models

// Customer is the company a service request is negotiated with. Guest
// requests reference no customer at all.
type Customer struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyName string `gorm:"type:text;not null" json:"company_name"`
	PICName     string `gorm:"type:text;not null;default:''" json:"pic_name"`
	PICPhone    string `gorm:"type:text;not null;default:''" json:"pic_phone"`
	PICEmail    string `gorm:"type:text;not null;default:''" json:"pic_email"`
}
