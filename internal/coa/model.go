package coa

import "time"

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the account type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. ParentCode refers to another
// account's Code, or is empty for roots; RootCode names the top-level
// ancestor. DebitNormal marks which side carries the normal balance.
type Account struct {
	Code        string      `json:"code" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	ParentCode  string      `json:"parentCode"`
	RootCode    string      `json:"rootCode"`
	Type        AccountType `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	DebitNormal bool        `json:"debitNormal"`
	Liquidity   bool        `json:"liquidity"`
	ForUser     bool        `json:"forUser"`
	CreatedAt   time.Time   `json:"createdAt"`
}
