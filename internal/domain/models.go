// Package domain holds the canonical data model shared across services.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of document submitted during onboarding.
type DocumentType string

const (
	DocumentSelfie  DocumentType = "SELFIE"
	DocumentPANCard DocumentType = "PAN_CARD"
	DocumentIDFront DocumentType = "ID_FRONT"
	DocumentIDBack  DocumentType = "ID_BACK"
)

// TradeType is the side of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// ExtractedFields carries the candidate fields recognized on a single
// document. Every field is optional; absence is propagated, not an error.
type ExtractedFields struct {
	Name        *string `json:"name,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PANNumber   *string `json:"pan_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// RejectReason classifies a terminal identity-verification rejection.
type RejectReason string

const (
	RejectFaceMismatch      RejectReason = "FACE_MISMATCH"
	RejectNameMismatch      RejectReason = "NAME_MISMATCH"
	RejectExtractionFailure RejectReason = "EXTRACTION_FAILURE"
)

// VerificationOutcome is the terminal result of identity verification.
// Rejections are expected business outcomes, not errors.
type VerificationOutcome struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	Detail   string       `json:"detail,omitempty"`
}

func Accepted() VerificationOutcome {
	return VerificationOutcome{Accepted: true}
}

func Rejected(reason RejectReason, detail string) VerificationOutcome {
	return VerificationOutcome{Accepted: false, Reason: reason, Detail: detail}
}

const (
	// KYCValidityDays is the fixed offset between kyc_last_updated and
	// kyc_expiry_date: 8 years at 365 days each. Deliberately not leap-aware.
	KYCValidityDays = 8 * 365

	// DefaultRiskCategory is assigned at onboarding; there is no risk-scoring
	// model in this system yet.
	DefaultRiskCategory = "Medium"

	panVisibleSuffix = 4
)

// MaskPAN keeps the final four characters of a PAN and replaces the rest
// with 'X'. The output always has the same length as the input; values of
// four characters or fewer are returned unchanged.
func MaskPAN(pan string) string {
	if len(pan) <= panVisibleSuffix {
		return pan
	}
	return strings.Repeat("X", len(pan)-panVisibleSuffix) + pan[len(pan)-panVisibleSuffix:]
}

// ClientProfile is the canonical client record created once per successful
// onboarding. Renewal events update the two KYC dates only.
type ClientProfile struct {
	ClientID        string    `db:"client_id" json:"client_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	PANNumber       string    `db:"pan_number" json:"pan_number"`
	PANNumberMasked string    `db:"pan_number_masked" json:"pan_number_masked"`
	DateOfBirth     string    `db:"dob" json:"dob"`
	Address         string    `db:"address" json:"address"`
	KYCLastUpdated  time.Time `db:"kyc_last_updated" json:"kyc_last_updated"`
	KYCExpiryDate   time.Time `db:"kyc_expiry_date" json:"kyc_expiry_date"`
	RiskCategory    string    `db:"risk_category" json:"risk_category"`
}

// Renew moves the KYC window forward from the given date by the given
// validity offset in days. KYCValidityDays is the standard offset.
func (p *ClientProfile) Renew(now time.Time, validityDays int) {
	p.KYCLastUpdated = now
	p.KYCExpiryDate = now.AddDate(0, 0, validityDays)
}

// Balance is a client's free cash balance; one row per client.
type Balance struct {
	ClientID    string          `db:"client_id" json:"client_id"`
	Amount      decimal.Decimal `db:"balance" json:"balance"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
}

// Trade is immutable once recorded.
type Trade struct {
	TradeID       string          `db:"trade_id" csv:"trade_id" json:"trade_id"`
	ClientID      string          `db:"client_id" csv:"client_id" json:"client_id"`
	StockSymbol   string          `db:"stock_symbol" csv:"stock_symbol" json:"stock_symbol"`
	TradeType     TradeType       `db:"trade_type" csv:"trade_type" json:"trade_type"`
	Quantity      int64           `db:"quantity" csv:"quantity" json:"quantity"`
	PricePerShare decimal.Decimal `db:"price_per_share" csv:"price_per_share" json:"price_per_share"`
	TradeDate     time.Time       `db:"trade_date" csv:"-" json:"trade_date"`
}

// Value is quantity times price per share.
func (t Trade) Value() decimal.Decimal {
	return t.PricePerShare.Mul(decimal.NewFromInt(t.Quantity))
}

// SurveillanceFlag marks one client/stock pair under one rule. Identical
// tuples collapse to a single flag.
type SurveillanceFlag struct {
	ClientID    string `csv:"client_id" json:"client_id"`
	StockSymbol string `csv:"stock_symbol" json:"stock_symbol"`
	Reason      string `csv:"reason" json:"reason"`
}

// ReconciliationStatus is the verdict of the funds reconciliation check.
type ReconciliationStatus string

const (
	ReconciliationPass  ReconciliationStatus = "PASS"
	ReconciliationFail  ReconciliationStatus = "FAIL"
	ReconciliationError ReconciliationStatus = "ERROR"
)

// FundsReconciliationResult compares pooled client funds against the bank
// statement. Surplus is set on PASS, Shortfall on FAIL, Reason on ERROR.
type FundsReconciliationResult struct {
	Status    ReconciliationStatus `json:"status"`
	Required  decimal.Decimal      `json:"required_funds"`
	BankTotal decimal.Decimal      `json:"bank_balance"`
	Surplus   decimal.Decimal      `json:"surplus,omitempty"`
	Shortfall decimal.Decimal      `json:"shortfall,omitempty"`
	Reason    string               `json:"reason,omitempty"`
}

// MarginStatus reports whether collected margin covers the requirement.
type MarginStatus string

const (
	MarginOK        MarginStatus = "OK"
	MarginShortfall MarginStatus = "SHORTFALL"
)

// MarginReportRow is one line of the daily margin report.
type MarginReportRow struct {
	ClientID        string          `csv:"client_id" json:"client_id"`
	StockSymbol     string          `csv:"stock_symbol" json:"stock_symbol"`
	TradeType       TradeType       `csv:"trade_type" json:"trade_type"`
	Quantity        int64           `csv:"quantity" json:"quantity"`
	PricePerShare   decimal.Decimal `csv:"price_per_share" json:"price_per_share"`
	TotalTradeValue decimal.Decimal `csv:"total_trade_value" json:"total_trade_value"`
	MarginRequired  decimal.Decimal `csv:"margin_required" json:"margin_required"`
	MarginCollected decimal.Decimal `csv:"margin_collected" json:"margin_collected"`
	MarginStatus    MarginStatus    `csv:"margin_status" json:"margin_status"`
}

// ExpiringClient is a client inside the KYC renewal notice window.
type ExpiringClient struct {
	ClientProfile
	DaysUntilExpiry int `json:"days_until_expiry"`
}

// SettlementDue is a client whose positive balance sat idle past the
// settlement threshold. DaysSinceLastTrade is -1 when no trade exists.
type SettlementDue struct {
	ClientID           string          `csv:"client_id" json:"client_id"`
	FullName           string          `csv:"full_name" json:"full_name"`
	Balance            decimal.Decimal `csv:"balance" json:"balance"`
	DaysSinceLastTrade int             `csv:"days_since_last_trade" json:"days_since_last_trade"`
}
