package report

import (
	"bytes"
	"strings"
	"testing"

	"brokerkyc/internal/domain"
	pkgerrors "brokerkyc/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBankStatement(t *testing.T) {
	statement := "account,balance,as_of\nPOOL-001,4575000.50,2026-09-01\n"

	balance, err := ParseBankStatement(strings.NewReader(statement))

	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("4575000.50")))
}

func TestParseBankStatementMissingBalanceColumn(t *testing.T) {
	_, err := ParseBankStatement(strings.NewReader("account,amount\nPOOL-001,100\n"))

	assert.ErrorIs(t, err, pkgerrors.ErrStatementMalformed)
}

func TestParseBankStatementNoRows(t *testing.T) {
	_, err := ParseBankStatement(strings.NewReader("account,balance\n"))

	assert.ErrorIs(t, err, pkgerrors.ErrStatementMalformed)
}

func TestReadTradeLog(t *testing.T) {
	log := "trade_id,client_id,stock_symbol,trade_type,quantity,price_per_share\n" +
		"TRD10001,CL1007,INFY,SELL,300,1800\n" +
		"TRD10002,CL1015,SUZLON,BUY,150000,8.75\n"

	trades, err := ReadTradeLog(strings.NewReader(log))

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "CL1007", trades[0].ClientID)
	assert.Equal(t, domain.TradeSell, trades[0].TradeType)
	assert.True(t, trades[1].PricePerShare.Equal(decimal.RequireFromString("8.75")))
}

func TestWriteSurveillanceReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSurveillanceReport(&buf, []domain.SurveillanceFlag{
		{ClientID: "CL1007", StockSymbol: "INFY", Reason: "Large Trade Value"},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "client_id,stock_symbol,reason")
	assert.Contains(t, out, "CL1007,INFY,Large Trade Value")
}

func TestWriteMarginReportRoundTripColumns(t *testing.T) {
	row := domain.MarginReportRow{
		ClientID:        "CL1002",
		StockSymbol:     "YESBANK",
		TradeType:       domain.TradeBuy,
		Quantity:        1000,
		PricePerShare:   decimal.RequireFromString("15.50"),
		TotalTradeValue: decimal.RequireFromString("15500"),
		MarginRequired:  decimal.RequireFromString("3100"),
		MarginCollected: decimal.RequireFromString("3100"),
		MarginStatus:    domain.MarginOK,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarginReport(&buf, []domain.MarginReportRow{row}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "client_id,stock_symbol,trade_type,quantity,price_per_share,total_trade_value,margin_required,margin_collected,margin_status", lines[0])
	assert.Contains(t, lines[1], "CL1002,YESBANK,BUY,1000,15.5,15500,3100,3100,OK")
}
