package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
)

// SheetType selects which financial statement to generate.
type SheetType string

const (
	SheetBalanceSheet    SheetType = "BALANCE_SHEET"
	SheetIncomeStatement SheetType = "INCOME_STATEMENT"
	SheetCashFlow        SheetType = "CASH_FLOW_STATEMENT"
)

// ErrUnsupportedSheetType indicates an unknown sheet type was requested.
// Caller error: no computation is attempted.
var ErrUnsupportedSheetType = errors.New("reports: unsupported sheet type")

// ParseSheetType validates a raw sheet type string.
func ParseSheetType(raw string) (SheetType, error) {
	switch SheetType(raw) {
	case SheetBalanceSheet, SheetIncomeStatement, SheetCashFlow:
		return SheetType(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSheetType, raw)
}

// ReportRow is one line of a statement section, with nested children for
// sub-accounts.
type ReportRow struct {
	AccountCode         string          `json:"accountCode"`
	AccountName         string          `json:"accountName"`
	CurPeriodAmount     decimal.Decimal `json:"curPeriodAmount"`
	CurPeriodPercentage decimal.Decimal `json:"curPeriodPercentage"`
	PrePeriodAmount     decimal.Decimal `json:"prePeriodAmount"`
	PrePeriodPercentage decimal.Decimal `json:"prePeriodPercentage"`
	Indent              int             `json:"indent"`
	Children            []ReportRow     `json:"children"`
}

// ReportContent is the assembled statement for one period.
type ReportContent struct {
	SheetType   SheetType   `json:"sheetType"`
	PeriodStart time.Time   `json:"periodStart"`
	PeriodEnd   time.Time   `json:"periodEnd"`
	Sections    []ReportRow `json:"sections"`
}

// GeneratorInput is the snapshot-derived material every generator
// consumes: the account forest, current and prior-period trial balances,
// and the raw line items (the cash-flow statement needs the full ledger,
// not just balances).
type GeneratorInput struct {
	Forest   *coa.Forest
	Current  []TrialBalanceItem
	Previous []TrialBalanceItem
	Items    []ledger.LineItem
	Period   Period
}

type generateFunc func(GeneratorInput) ReportContent

// generators is the strategy table: sheet type to pure layout function.
var generators = map[SheetType]generateFunc{
	SheetBalanceSheet:    buildBalanceSheet,
	SheetIncomeStatement: buildIncomeStatement,
	SheetCashFlow:        buildCashFlowStatement,
}

// Generate dispatches to the generator for the requested sheet type.
// An empty period yields a zero-valued, well-formed report; it is a
// valid business state, not an error.
func Generate(sheetType SheetType, in GeneratorInput) (ReportContent, error) {
	gen, ok := generators[sheetType]
	if !ok {
		return ReportContent{}, fmt.Errorf("%w: %q", ErrUnsupportedSheetType, sheetType)
	}
	return gen(in), nil
}

// amountFunc extracts a statement amount from a trial balance row.
type amountFunc func(TrialBalanceItem) decimal.Decimal

func endingNetDebit(item TrialBalanceItem) decimal.Decimal {
	return item.EndingDebit.Sub(item.EndingCredit)
}

func endingNetCredit(item TrialBalanceItem) decimal.Decimal {
	return item.EndingCredit.Sub(item.EndingDebit)
}

func midtermNetDebit(item TrialBalanceItem) decimal.Decimal {
	return item.MidtermDebit.Sub(item.MidtermCredit)
}

func midtermNetCredit(item TrialBalanceItem) decimal.Decimal {
	return item.MidtermCredit.Sub(item.MidtermDebit)
}

// indexByCode flattens a trial balance into a code-keyed lookup, used to
// pair current rows with their prior-period counterparts.
func indexByCode(items []TrialBalanceItem) map[string]TrialBalanceItem {
	index := make(map[string]TrialBalanceItem)
	var walk func(items []TrialBalanceItem)
	walk = func(items []TrialBalanceItem) {
		for _, item := range items {
			index[item.AccountCode] = item
			walk(item.SubAccounts)
		}
	}
	walk(items)
	return index
}

func rowFromItem(item TrialBalanceItem, previous map[string]TrialBalanceItem, amount amountFunc, indent int) ReportRow {
	row := ReportRow{
		AccountCode:     item.AccountCode,
		AccountName:     item.Title,
		CurPeriodAmount: amount(item),
		Indent:          indent,
		Children:        []ReportRow{},
	}
	if pre, ok := previous[item.AccountCode]; ok {
		row.PrePeriodAmount = amount(pre)
	}
	for _, sub := range item.SubAccounts {
		row.Children = append(row.Children, rowFromItem(sub, previous, amount, indent+1))
	}
	return row
}

// fillPercentages computes each row's share of the section total,
// rounded to two decimal places, recursively.
func fillPercentages(rows []ReportRow, curTotal, preTotal decimal.Decimal) {
	for i := range rows {
		rows[i].CurPeriodPercentage = percentage(rows[i].CurPeriodAmount, curTotal)
		rows[i].PrePeriodPercentage = percentage(rows[i].PrePeriodAmount, preTotal)
		fillPercentages(rows[i].Children, curTotal, preTotal)
	}
}

func percentage(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

func sumRows(rows []ReportRow) (cur, pre decimal.Decimal) {
	for _, row := range rows {
		cur = cur.Add(row.CurPeriodAmount)
		pre = pre.Add(row.PrePeriodAmount)
	}
	return cur, pre
}

// sectionFor collects the root trial balance rows of the wanted account
// types into a titled section with a trailing total row.
func sectionFor(in GeneratorInput, title string, amount amountFunc, types ...coa.AccountType) []ReportRow {
	wanted := make(map[coa.AccountType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	previous := indexByCode(in.Previous)
	rows := make([]ReportRow, 0)
	for _, item := range in.Current {
		acc, ok := in.Forest.Lookup(item.AccountCode)
		if !ok || !wanted[acc.Type] {
			continue
		}
		rows = append(rows, rowFromItem(item, previous, amount, 0))
	}
	curTotal, preTotal := sumRows(rows)
	fillPercentages(rows, curTotal, preTotal)
	total := ReportRow{
		AccountName:         title,
		CurPeriodAmount:     curTotal,
		PrePeriodAmount:     preTotal,
		CurPeriodPercentage: percentage(curTotal, curTotal),
		PrePeriodPercentage: percentage(preTotal, preTotal),
		Children:            []ReportRow{},
	}
	return append(rows, total)
}
