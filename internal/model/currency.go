package model

// Currency is a transaction currency definition.
type Currency struct {
	ID            uint   `gorm:"primaryKey"`
	Code          string `gorm:"uniqueIndex"`
	Name          string
	Symbol        string
	DecimalPlaces int
}

// Budget is a user-scoped spending budget.
type Budget struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"index"`
	Name   string
	Active bool
}

// Category is a user-scoped transaction category.
type Category struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"index"`
	Name   string
}

// User owns recurrences, rules and accounts. Only the fields the
// engine needs; authentication lives elsewhere.
type User struct {
	ID                uint `gorm:"primaryKey"`
	Email             string
	DefaultCurrencyID uint
}
