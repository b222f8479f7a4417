package model

// The resolver inputs accept either a numeric id or a human-readable
// name/code. A zero ref means "nothing supplied".

// AccountRef identifies an account by id or by name, optionally with
// creation data for find-or-create.
type AccountRef struct {
	ID   uint
	Name string
	Type AccountType
	IBAN string
}

// IsZero reports whether the ref carries no identifying data.
func (r AccountRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// CurrencyRef identifies a currency by id or by code, optionally with
// creation data.
type CurrencyRef struct {
	ID            uint
	Code          string
	Name          string
	Symbol        string
	DecimalPlaces int
}

// IsZero reports whether the ref carries no identifying data.
func (r CurrencyRef) IsZero() bool {
	return r.ID == 0 && r.Code == ""
}

// BudgetRef identifies a budget by id or by name.
type BudgetRef struct {
	ID   uint
	Name string
}

// IsZero reports whether the ref carries no identifying data.
func (r BudgetRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// CategoryRef identifies a category by id or by name.
type CategoryRef struct {
	ID   uint
	Name string
}

// IsZero reports whether the ref carries no identifying data.
func (r CategoryRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}
