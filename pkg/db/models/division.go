package models

// Division is lending master data grouping borrowers by organizational unit.
type Division struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Category string `gorm:"type:text;not null" json:"category"`
	Name     string `gorm:"type:text;not null" json:"name"`
}
