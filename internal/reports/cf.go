package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
)

// Cash-flow activity classes.
const (
	activityOperating = "Operating Activities"
	activityInvesting = "Investing Activities"
	activityFinancing = "Financing Activities"
)

// buildCashFlowStatement derives a direct-method cash-flow statement.
// It is a reclassification of the full ledger, not of balances: every
// voucher that touches a liquidity account contributes its counterpart
// lines, classified into operating, investing, or financing by the
// counterpart's account type. Because vouchers balance, the classified
// flows sum exactly to the period's cash movement.
func buildCashFlowStatement(in GeneratorInput) ReportContent {
	cur := classifyCashFlows(in.Forest, in.Items, in.Period)
	pre := classifyCashFlows(in.Forest, in.Items, in.Period.Previous())

	sections := make([]ReportRow, 0)
	var netCur, netPre decimal.Decimal
	for _, activity := range []string{activityOperating, activityInvesting, activityFinancing} {
		rows := flowRows(in.Forest, cur[activity], pre[activity])
		curTotal, preTotal := sumRows(rows)
		fillPercentages(rows, curTotal, preTotal)
		rows = append(rows, ReportRow{
			AccountName:         "Net Cash from " + activity,
			CurPeriodAmount:     curTotal,
			PrePeriodAmount:     preTotal,
			CurPeriodPercentage: percentage(curTotal, curTotal),
			PrePeriodPercentage: percentage(preTotal, preTotal),
			Children:            []ReportRow{},
		})
		sections = append(sections, rows...)
		netCur = netCur.Add(curTotal)
		netPre = netPre.Add(preTotal)
	}
	sections = append(sections, ReportRow{
		AccountName:     "Net Change in Cash",
		CurPeriodAmount: netCur,
		PrePeriodAmount: netPre,
		Children:        []ReportRow{},
	})
	return ReportContent{
		SheetType:   SheetCashFlow,
		PeriodStart: in.Period.BeginCutoff,
		PeriodEnd:   in.Period.InclusiveEnd(),
		Sections:    sections,
	}
}

// classifyCashFlows aggregates signed counterpart amounts per account,
// grouped by activity, for vouchers inside the window that move cash.
func classifyCashFlows(forest *coa.Forest, items []ledger.LineItem, period Period) map[string]map[string]decimal.Decimal {
	flows := map[string]map[string]decimal.Decimal{
		activityOperating: {},
		activityInvesting: {},
		activityFinancing: {},
	}
	for _, voucher := range ledger.GroupByVoucher(items) {
		if !period.Contains(voucher.Date) {
			continue
		}
		touchesCash := false
		for _, li := range voucher.LineItems {
			if acc, ok := forest.Lookup(li.AccountCode); ok && acc.Liquidity {
				touchesCash = true
				break
			}
		}
		if !touchesCash {
			continue
		}
		for _, li := range voucher.LineItems {
			acc, ok := forest.Lookup(li.AccountCode)
			if !ok || acc.Liquidity {
				continue
			}
			// A credited counterpart is a cash inflow, a debited one an
			// outflow; voucher balance makes the signed sum equal the
			// cash delta.
			signed := li.Amount
			if li.Debit {
				signed = signed.Neg()
			}
			activity := activityFor(acc.Type)
			flows[activity][acc.Code] = flows[activity][acc.Code].Add(signed)
		}
	}
	return flows
}

func activityFor(accountType coa.AccountType) string {
	switch accountType {
	case coa.AccountTypeRevenue, coa.AccountTypeExpense:
		return activityOperating
	case coa.AccountTypeAsset:
		return activityInvesting
	default:
		return activityFinancing
	}
}

func flowRows(forest *coa.Forest, cur, pre map[string]decimal.Decimal) []ReportRow {
	codes := make(map[string]struct{}, len(cur)+len(pre))
	for code := range cur {
		codes[code] = struct{}{}
	}
	for code := range pre {
		codes[code] = struct{}{}
	}
	ordered := make([]string, 0, len(codes))
	for code := range codes {
		ordered = append(ordered, code)
	}
	sort.Strings(ordered)

	rows := make([]ReportRow, 0, len(ordered))
	for _, code := range ordered {
		name := code
		if acc, ok := forest.Lookup(code); ok {
			name = acc.Name
		}
		rows = append(rows, ReportRow{
			AccountCode:     code,
			AccountName:     name,
			CurPeriodAmount: cur[code],
			PrePeriodAmount: pre[code],
			Children:        []ReportRow{},
		})
	}
	return rows
}
