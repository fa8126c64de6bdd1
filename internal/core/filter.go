package core

import "github.com/shopspring/decimal"

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// TransactionFilter narrows transaction listings and summaries. Zero values match everything.
type TransactionFilter struct {
	Type       TransactionType
	CategoryID int64
	AccountID  int64
	Start      *Date
	End        *Date
	Limit      int
	Offset     int
}

// Normalize validates the filter and applies the default and maximum page size.
func (f TransactionFilter) Normalize() (TransactionFilter, error) {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return f, err
		}
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return f, Validationf("end date before start date")
	}
	if f.Offset < 0 {
		return f, Validationf("offset cannot be negative")
	}
	switch {
	case f.Limit < 0:
		return f, Validationf("limit cannot be negative")
	case f.Limit == 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f, nil
}

// TransactionSummary totals the transactions matching a filter.
type TransactionSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int64           `json:"count"`
}
