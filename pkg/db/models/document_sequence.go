package models

// DocumentSequence is the per-scope, per-year counter behind ORD/SALE/PAY/RCP numbers.
type DocumentSequence struct {
	Scope     string `gorm:"column:scope;primaryKey"`
	Year      int    `gorm:"column:year;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}
