package models

// SequenceCounter backs the human-readable id generator. One row per
// (prefix, bucket) pair, incremented atomically inside the transaction that
// consumes the identifier.
type SequenceCounter struct {
	Prefix string `gorm:"primaryKey" json:"prefix"`
	Bucket string `gorm:"primaryKey" json:"bucket"`
	Value  int    `gorm:"not null;default:0" json:"value"`
}
