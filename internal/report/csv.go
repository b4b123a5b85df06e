// Package report reads and writes the CSV artifacts exchanged with the
// back office: bank statements in, compliance reports out.
package report

import (
	"io"

	"brokerkyc/internal/domain"
	pkgerrors "brokerkyc/pkg/errors"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

func init() {
	// A statement or trade log missing a tagged column is malformed, not a
	// zero value.
	gocsv.FailIfUnmatchedStructTags = true
}

type bankStatementRow struct {
	Balance decimal.Decimal `csv:"balance"`
}

// ParseBankStatement returns the closing balance from a bank statement
// export. The statement carries a single data row with a "balance" column;
// extra columns are ignored.
func ParseBankStatement(r io.Reader) (decimal.Decimal, error) {
	var rows []bankStatementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.ErrStatementMalformed, err.Error())
	}
	if len(rows) == 0 {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.ErrStatementMalformed, "statement has no data rows")
	}
	return rows[0].Balance, nil
}

// ReadTradeLog parses an exchange trade log export.
func ReadTradeLog(r io.Reader) ([]domain.Trade, error) {
	var trades []domain.Trade
	if err := gocsv.Unmarshal(r, &trades); err != nil {
		return nil, pkgerrors.Wrap(err, "parse trade log")
	}
	return trades, nil
}

// WriteMarginReport renders the daily margin report.
func WriteMarginReport(w io.Writer, rows []domain.MarginReportRow) error {
	return gocsv.Marshal(rows, w)
}

// WriteSurveillanceReport renders the suspicious-activity flag list.
func WriteSurveillanceReport(w io.Writer, flags []domain.SurveillanceFlag) error {
	return gocsv.Marshal(flags, w)
}

// WriteSettlementReport renders the idle-funds settlement list.
func WriteSettlementReport(w io.Writer, dues []domain.SettlementDue) error {
	return gocsv.Marshal(dues, w)
}
