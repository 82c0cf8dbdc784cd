package reports

import "github.com/meridian-books/meridian/internal/coa"

// buildBalanceSheet lays out asset, liability, and equity balances as of
// the period end. Assets are stated debit-positive, liabilities and
// equity credit-positive.
func buildBalanceSheet(in GeneratorInput) ReportContent {
	sections := make([]ReportRow, 0)
	sections = append(sections, sectionFor(in, "Total Assets", endingNetDebit, coa.AccountTypeAsset)...)
	sections = append(sections, sectionFor(in, "Total Liabilities", endingNetCredit, coa.AccountTypeLiability)...)
	sections = append(sections, sectionFor(in, "Total Equity", endingNetCredit, coa.AccountTypeEquity)...)
	return ReportContent{
		SheetType:   SheetBalanceSheet,
		PeriodStart: in.Period.BeginCutoff,
		PeriodEnd:   in.Period.InclusiveEnd(),
		Sections:    sections,
	}
}
