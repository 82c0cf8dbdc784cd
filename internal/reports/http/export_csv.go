package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meridian-books/meridian/internal/reports"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvField pairs an internal field name with its export header. The
// export is a pure projection: headers come from these dictionaries and
// values from the already-computed structures, nothing is recomputed.
type csvField struct {
	key    string
	header string
}

var trialBalanceCSVFields = []csvField{
	{key: "no", header: "科目編號"},
	{key: "accountingTitle", header: "會計科目"},
	{key: "beginningDebitAmount", header: "期初借方金額"},
	{key: "beginningCreditAmount", header: "期初貸方金額"},
	{key: "midtermDebitAmount", header: "期中借方金額"},
	{key: "midtermCreditAmount", header: "期中貸方金額"},
	{key: "endingDebitAmount", header: "期末借方金額"},
	{key: "endingCreditAmount", header: "期末貸方金額"},
}

var ledgerCSVFields = []csvField{
	{key: "no", header: "科目編號"},
	{key: "accountingTitle", header: "會計科目"},
	{key: "voucherDate", header: "傳票日期"},
	{key: "voucherNumber", header: "傳票編號"},
	{key: "particulars", header: "摘要"},
	{key: "debitAmount", header: "借方金額"},
	{key: "creditAmount", header: "貸方金額"},
	{key: "balance", header: "餘額"},
}

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	if _, err := s.buf.WriteString(line); err != nil {
		return err
	}
	return nil
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func projectRow(fields []csvField, values map[string]string) []string {
	row := make([]string, len(fields))
	for i, field := range fields {
		row[i] = values[field.key]
	}
	return row
}

func headerRow(fields []csvField) []string {
	row := make([]string, len(fields))
	for i, field := range fields {
		row[i] = field.header
	}
	return row
}

func writeTrialBalanceCSV(w io.Writer, items []reports.TrialBalanceItem, start, end time.Time) error {
	streamer := newCSVStreamer(w)
	if err := writeExportMetadata(streamer, "Trial Balance", start, end); err != nil {
		return err
	}
	if err := streamer.writeRow(headerRow(trialBalanceCSVFields)); err != nil {
		return err
	}
	var write func(items []reports.TrialBalanceItem) error
	write = func(items []reports.TrialBalanceItem) error {
		for _, item := range items {
			values := map[string]string{
				"no":                    item.AccountCode,
				"accountingTitle":       item.Title,
				"beginningDebitAmount":  item.BeginningDebit.String(),
				"beginningCreditAmount": item.BeginningCredit.String(),
				"midtermDebitAmount":    item.MidtermDebit.String(),
				"midtermCreditAmount":   item.MidtermCredit.String(),
				"endingDebitAmount":     item.EndingDebit.String(),
				"endingCreditAmount":    item.EndingCredit.String(),
			}
			if err := streamer.writeRow(projectRow(trialBalanceCSVFields, values)); err != nil {
				return err
			}
			if err := write(item.SubAccounts); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(items); err != nil {
		return err
	}
	return streamer.Close()
}

func writeLedgerCSV(w io.Writer, rows []reports.LedgerRow, start, end time.Time) error {
	streamer := newCSVStreamer(w)
	if err := writeExportMetadata(streamer, "Ledger", start, end); err != nil {
		return err
	}
	if err := streamer.writeRow(headerRow(ledgerCSVFields)); err != nil {
		return err
	}
	for _, row := range rows {
		values := map[string]string{
			"no":              row.AccountCode,
			"accountingTitle": row.AccountingTitle,
			"voucherDate":     row.VoucherDate.Format(dateLayout),
			"voucherNumber":   row.VoucherNumber,
			"particulars":     row.Particulars,
			"debitAmount":     row.DebitAmount.String(),
			"creditAmount":    row.CreditAmount.String(),
			"balance":         row.Balance.String(),
		}
		if err := streamer.writeRow(projectRow(ledgerCSVFields, values)); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeExportMetadata(streamer *csvStreamer, reportName string, start, end time.Time) error {
	if err := streamer.writeComment(fmt.Sprintf("# Report: %s", reportName)); err != nil {
		return err
	}
	return streamer.writeComment(fmt.Sprintf("# Period: %s ~ %s", start.Format(dateLayout), end.Format(dateLayout)))
}
