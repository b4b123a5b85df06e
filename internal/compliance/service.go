// Package compliance implements the scheduled back-office checks: client
// funds reconciliation, daily margin reporting, KYC expiry notices and
// idle-funds settlement detection.
package compliance

import (
	"context"
	"io"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/report"
	"brokerkyc/pkg/config"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"

	"github.com/shopspring/decimal"
)

// ClientStore is the client-profile lookup surface the checks need.
type ClientStore interface {
	FindByID(ctx context.Context, clientID string) (*domain.ClientProfile, error)
	// FindExpiringBetween returns clients whose KYC expiry falls in the
	// half-open range [from, to).
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.ClientProfile, error)
}

// BalanceStore lists client cash balances.
type BalanceStore interface {
	List(ctx context.Context) ([]domain.Balance, error)
}

// TradeStore serves trade history queries.
type TradeStore interface {
	FindByDate(ctx context.Context, day time.Time) ([]domain.Trade, error)
	// LastTradeTime returns ErrTradeNotFound for a client with no trades.
	LastTradeTime(ctx context.Context, clientID string) (time.Time, error)
}

// CollateralSource reports the margin actually collected from a client
// against a trade.
type CollateralSource interface {
	CollectedMargin(ctx context.Context, t domain.Trade) (decimal.Decimal, error)
}

type Service struct {
	clients    ClientStore
	balances   BalanceStore
	trades     TradeStore
	collateral CollateralSource
	logger     logger.Logger

	marginRate decimal.Decimal
	noticeDays int
	idleDays   int
	now        func() time.Time
}

func NewService(clients ClientStore, balances BalanceStore, trades TradeStore, collateral CollateralSource, cfg config.ComplianceConfig, log logger.Logger) (*Service, error) {
	rate, err := decimal.NewFromString(cfg.MarginRate)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid margin rate")
	}
	return &Service{
		clients:    clients,
		balances:   balances,
		trades:     trades,
		collateral: collateral,
		logger:     log,
		marginRate: rate,
		noticeDays: cfg.ExpiryNoticeDays,
		idleDays:   cfg.IdleThresholdDays,
		now:        time.Now,
	}, nil
}

// ReconcileFunds compares the sum of positive client balances against the
// closing balance on the bank statement. A malformed statement is reported
// as an ERROR verdict rather than a transport failure.
func (s *Service) ReconcileFunds(ctx context.Context, statement io.Reader) (*domain.FundsReconciliationResult, error) {
	balances, err := s.balances.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list client balances")
	}

	required := decimal.Zero
	for _, b := range balances {
		if b.Amount.IsPositive() {
			required = required.Add(b.Amount)
		}
	}

	bankTotal, err := report.ParseBankStatement(statement)
	if err != nil {
		s.logger.Warn("bank statement unreadable", map[string]interface{}{"error": err.Error()})
		return &domain.FundsReconciliationResult{
			Status: domain.ReconciliationError,
			Reason: err.Error(),
		}, nil
	}

	result := &domain.FundsReconciliationResult{
		Required:  required,
		BankTotal: bankTotal,
	}
	if bankTotal.GreaterThanOrEqual(required) {
		result.Status = domain.ReconciliationPass
		result.Surplus = bankTotal.Sub(required)
	} else {
		result.Status = domain.ReconciliationFail
		result.Shortfall = required.Sub(bankTotal)
	}

	s.logger.Info("funds reconciliation complete", map[string]interface{}{
		"status":       string(result.Status),
		"required":     required.String(),
		"bank_balance": bankTotal.String(),
	})
	return result, nil
}

// DailyMarginReport builds one report row per trade on the given day. The
// margin requirement is a flat fraction of trade value.
func (s *Service) DailyMarginReport(ctx context.Context, day time.Time) ([]domain.MarginReportRow, error) {
	trades, err := s.trades.FindByDate(ctx, day)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load trades for margin report")
	}
	if len(trades) == 0 {
		return nil, pkgerrors.ErrNoTradesForDay
	}

	rows := make([]domain.MarginReportRow, 0, len(trades))
	shortfalls := 0
	for _, t := range trades {
		total := t.Value()
		required := total.Mul(s.marginRate)
		collected, err := s.collateral.CollectedMargin(ctx, t)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "resolve collected margin")
		}

		status := domain.MarginOK
		if collected.LessThan(required) {
			status = domain.MarginShortfall
			shortfalls++
		}
		rows = append(rows, domain.MarginReportRow{
			ClientID:        t.ClientID,
			StockSymbol:     t.StockSymbol,
			TradeType:       t.TradeType,
			Quantity:        t.Quantity,
			PricePerShare:   t.PricePerShare,
			TotalTradeValue: total,
			MarginRequired:  required,
			MarginCollected: collected,
			MarginStatus:    status,
		})
	}

	s.logger.Info("margin report built", map[string]interface{}{
		"rows":       len(rows),
		"shortfalls": shortfalls,
	})
	return rows, nil
}

// ExpiringClients returns clients whose KYC expires within the notice
// window, today inclusive. The window covers whole calendar days: expiry
// timestamps carry a time-of-day, so the upper bound is midnight after the
// last notice day, exclusive.
func (s *Service) ExpiringClients(ctx context.Context) ([]domain.ExpiringClient, error) {
	today := truncateToDay(s.now())
	until := today.AddDate(0, 0, s.noticeDays+1)

	profiles, err := s.clients.FindExpiringBetween(ctx, today, until)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find expiring clients")
	}

	expiring := make([]domain.ExpiringClient, 0, len(profiles))
	for _, p := range profiles {
		days := int(truncateToDay(p.KYCExpiryDate).Sub(today).Hours() / 24)
		expiring = append(expiring, domain.ExpiringClient{ClientProfile: p, DaysUntilExpiry: days})
	}
	return expiring, nil
}

// SettlementDue returns clients holding a positive balance with no trade in
// the idle window. Clients who never traded are always due, with
// DaysSinceLastTrade reported as -1.
func (s *Service) SettlementDue(ctx context.Context) ([]domain.SettlementDue, error) {
	balances, err := s.balances.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list client balances")
	}

	now := s.now()
	var due []domain.SettlementDue
	for _, b := range balances {
		if !b.Amount.IsPositive() {
			continue
		}

		days := -1
		last, err := s.trades.LastTradeTime(ctx, b.ClientID)
		switch {
		case pkgerrors.Is(err, pkgerrors.ErrTradeNotFound):
			// never traded
		case err != nil:
			return nil, pkgerrors.Wrap(err, "resolve last trade time")
		default:
			days = int(now.Sub(last).Hours() / 24)
			if days <= s.idleDays {
				continue
			}
		}

		name := ""
		profile, err := s.clients.FindByID(ctx, b.ClientID)
		switch {
		case pkgerrors.Is(err, pkgerrors.ErrClientNotFound):
			s.logger.Warn("balance without client profile", map[string]interface{}{"client_id": b.ClientID})
		case err != nil:
			return nil, pkgerrors.Wrap(err, "load client profile")
		default:
			name = profile.FullName
		}

		due = append(due, domain.SettlementDue{
			ClientID:           b.ClientID,
			FullName:           name,
			Balance:            b.Amount,
			DaysSinceLastTrade: days,
		})
	}
	return due, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
