package surveillance

import (
	"brokerkyc/internal/domain"

	"github.com/shopspring/decimal"
)

// Flag reasons, as they appear in the suspicious-activity report.
const (
	ReasonLargeTradeValue  = "Large Trade Value"
	ReasonPennyStockVolume = "High Volume Penny Stock"
	ReasonHighFrequency    = "High Frequency Trading"
	ReasonWashTrading      = "Wash Trading"
	ReasonCircularTrading  = "Circular Trading"
	ReasonLossBooking      = "Loss Booking"
)

var (
	largeTradeThreshold    = decimal.NewFromInt(500000)
	pennyStockPriceCeiling = decimal.NewFromInt(10)
)

const (
	pennyStockVolumeFloor   = 100000
	highFrequencyTradeLimit = 50
	washTradePairFloor      = 10
	circularClientFloor     = 3
)

type clientStock struct {
	client string
	stock  string
}

// priceLevel identifies trades by client, stock, quantity and price.
type priceLevel struct {
	client string
	stock  string
	qty    int64
	price  string
}

// priceKey normalizes a price for map grouping. Equal decimals can arrive at
// different scales ("2.1" from a CSV, "2.1000" from the database); fixing the
// scale keeps them in one bucket.
func priceKey(p decimal.Decimal) string {
	return p.StringFixed(4)
}

// LargeTradeValueRule flags any single trade whose notional value exceeds
// the large-trade threshold.
type LargeTradeValueRule struct{}

func NewLargeTradeValueRule() *LargeTradeValueRule { return &LargeTradeValueRule{} }

func (r *LargeTradeValueRule) Name() string { return "large_trade_value" }

func (r *LargeTradeValueRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	var flags []domain.SurveillanceFlag
	for _, t := range trades {
		if t.Value().GreaterThan(largeTradeThreshold) {
			flags = append(flags, domain.SurveillanceFlag{
				ClientID:    t.ClientID,
				StockSymbol: t.StockSymbol,
				Reason:      ReasonLargeTradeValue,
			})
		}
	}
	return flags
}

// PennyStockVolumeRule flags outsized volume in low-priced stocks.
type PennyStockVolumeRule struct{}

func NewPennyStockVolumeRule() *PennyStockVolumeRule { return &PennyStockVolumeRule{} }

func (r *PennyStockVolumeRule) Name() string { return "penny_stock_volume" }

func (r *PennyStockVolumeRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	var flags []domain.SurveillanceFlag
	for _, t := range trades {
		if t.PricePerShare.LessThan(pennyStockPriceCeiling) && t.Quantity > pennyStockVolumeFloor {
			flags = append(flags, domain.SurveillanceFlag{
				ClientID:    t.ClientID,
				StockSymbol: t.StockSymbol,
				Reason:      ReasonPennyStockVolume,
			})
		}
	}
	return flags
}

// HighFrequencyRule flags a client trading one stock more than the per-day
// trade-count limit.
type HighFrequencyRule struct{}

func NewHighFrequencyRule() *HighFrequencyRule { return &HighFrequencyRule{} }

func (r *HighFrequencyRule) Name() string { return "high_frequency" }

func (r *HighFrequencyRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	counts := make(map[clientStock]int)
	for _, t := range trades {
		counts[clientStock{t.ClientID, t.StockSymbol}]++
	}

	var flags []domain.SurveillanceFlag
	for key, n := range counts {
		if n > highFrequencyTradeLimit {
			flags = append(flags, domain.SurveillanceFlag{
				ClientID:    key.client,
				StockSymbol: key.stock,
				Reason:      ReasonHighFrequency,
			})
		}
	}
	return flags
}

// WashTradingRule flags a client repeatedly buying and selling the same
// stock against itself. BUYs and SELLs at identical quantity and price form
// matched pairs; enough pairs in one day mean fabricated volume.
type WashTradingRule struct{}

func NewWashTradingRule() *WashTradingRule { return &WashTradingRule{} }

func (r *WashTradingRule) Name() string { return "wash_trading" }

func (r *WashTradingRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	buys := make(map[priceLevel]int)
	sells := make(map[priceLevel]int)
	for _, t := range trades {
		key := priceLevel{t.ClientID, t.StockSymbol, t.Quantity, priceKey(t.PricePerShare)}
		switch t.TradeType {
		case domain.TradeBuy:
			buys[key]++
		case domain.TradeSell:
			sells[key]++
		}
	}

	pairs := make(map[clientStock]int)
	for key, b := range buys {
		s := sells[key]
		matched := b
		if s < b {
			matched = s
		}
		if matched > 0 {
			pairs[clientStock{key.client, key.stock}] += matched
		}
	}

	var flags []domain.SurveillanceFlag
	for key, n := range pairs {
		if n >= washTradePairFloor {
			flags = append(flags, domain.SurveillanceFlag{
				ClientID:    key.client,
				StockSymbol: key.stock,
				Reason:      ReasonWashTrading,
			})
		}
	}
	return flags
}

// CircularTradingRule flags groups of three or more clients rotating the
// same stock among themselves. The trade log carries no counterparty
// linkage, so identical quantity and price across distinct clients within
// the window is the detection proxy.
type CircularTradingRule struct{}

func NewCircularTradingRule() *CircularTradingRule { return &CircularTradingRule{} }

func (r *CircularTradingRule) Name() string { return "circular_trading" }

func (r *CircularTradingRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	type level struct {
		stock string
		qty   int64
		price string
	}
	participants := make(map[level]map[string]struct{})
	for _, t := range trades {
		key := level{t.StockSymbol, t.Quantity, priceKey(t.PricePerShare)}
		if participants[key] == nil {
			participants[key] = make(map[string]struct{})
		}
		participants[key][t.ClientID] = struct{}{}
	}

	var flags []domain.SurveillanceFlag
	for key, clients := range participants {
		if len(clients) < circularClientFloor {
			continue
		}
		for clientID := range clients {
			flags = append(flags, domain.SurveillanceFlag{
				ClientID:    clientID,
				StockSymbol: key.stock,
				Reason:      ReasonCircularTrading,
			})
		}
	}
	return flags
}

// LossBookingRule flags a client who buys a stock and later sells it within
// the same window at a lower price, deliberately booking a loss.
type LossBookingRule struct{}

func NewLossBookingRule() *LossBookingRule { return &LossBookingRule{} }

func (r *LossBookingRule) Name() string { return "loss_booking" }

func (r *LossBookingRule) Evaluate(trades []domain.Trade) []domain.SurveillanceFlag {
	highestBuy := make(map[clientStock]decimal.Decimal)

	var flags []domain.SurveillanceFlag
	for _, t := range trades {
		key := clientStock{t.ClientID, t.StockSymbol}
		switch t.TradeType {
		case domain.TradeBuy:
			if best, ok := highestBuy[key]; !ok || t.PricePerShare.GreaterThan(best) {
				highestBuy[key] = t.PricePerShare
			}
		case domain.TradeSell:
			if buy, ok := highestBuy[key]; ok && t.PricePerShare.LessThan(buy) {
				flags = append(flags, domain.SurveillanceFlag{
					ClientID:    t.ClientID,
					StockSymbol: t.StockSymbol,
					Reason:      ReasonLossBooking,
				})
			}
		}
	}
	return flags
}
