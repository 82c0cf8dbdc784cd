package reports

import "github.com/meridian-books/meridian/internal/coa"

// buildIncomeStatement lays out period activity for revenue and expense
// accounts, closing with a net income line.
func buildIncomeStatement(in GeneratorInput) ReportContent {
	revenue := sectionFor(in, "Total Revenue", midtermNetCredit, coa.AccountTypeRevenue)
	expense := sectionFor(in, "Total Expenses", midtermNetDebit, coa.AccountTypeExpense)

	revTotal := revenue[len(revenue)-1]
	expTotal := expense[len(expense)-1]
	netIncome := ReportRow{
		AccountName:     "Net Income",
		CurPeriodAmount: revTotal.CurPeriodAmount.Sub(expTotal.CurPeriodAmount),
		PrePeriodAmount: revTotal.PrePeriodAmount.Sub(expTotal.PrePeriodAmount),
		Children:        []ReportRow{},
	}
	netIncome.CurPeriodPercentage = percentage(netIncome.CurPeriodAmount, revTotal.CurPeriodAmount)
	netIncome.PrePeriodPercentage = percentage(netIncome.PrePeriodAmount, revTotal.PrePeriodAmount)

	sections := make([]ReportRow, 0, len(revenue)+len(expense)+1)
	sections = append(sections, revenue...)
	sections = append(sections, expense...)
	sections = append(sections, netIncome)
	return ReportContent{
		SheetType:   SheetIncomeStatement,
		PeriodStart: in.Period.BeginCutoff,
		PeriodEnd:   in.Period.InclusiveEnd(),
		Sections:    sections,
	}
}
