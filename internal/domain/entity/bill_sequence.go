package entity

import "time"

// BillSequence holds the last number issued for one numbering scope.
type BillSequence struct {
	ScopeKey  string `gorm:"primaryKey;size:32"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for BillSequence
func (BillSequence) TableName() string {
	return "bill_sequences"
}
