// Package surveillance evaluates a day's trades against independent
// fraud-pattern rules and produces a deduplicated set of flags.
package surveillance

import (
	"context"
	"sort"
	"sync"

	"brokerkyc/internal/domain"
	"brokerkyc/pkg/logger"
)

// Rule is one detection pattern. Evaluate must treat the trade snapshot as
// read-only and may run concurrently with other rules over the same slice.
type Rule interface {
	Name() string
	Evaluate(trades []domain.Trade) []domain.SurveillanceFlag
}

// Engine runs every registered rule over a trade snapshot and merges the
// results. The merge is a set union keyed by the exact
// (client, stock, reason) tuple, so rule ordering never changes the output.
type Engine struct {
	rules  []Rule
	logger logger.Logger
}

func NewEngine(log logger.Logger, rules ...Rule) *Engine {
	return &Engine{rules: rules, logger: log}
}

// DefaultRules is the full production rule set.
func DefaultRules() []Rule {
	return []Rule{
		NewLargeTradeValueRule(),
		NewPennyStockVolumeRule(),
		NewHighFrequencyRule(),
		NewWashTradingRule(),
		NewCircularTradingRule(),
		NewLossBookingRule(),
	}
}

// Evaluate fans the rules out across goroutines, one per rule, and collects
// the union of their flags. Output order is deterministic: sorted by client,
// stock, then reason.
func (e *Engine) Evaluate(ctx context.Context, trades []domain.Trade) []domain.SurveillanceFlag {
	results := make(chan []domain.SurveillanceFlag, len(e.rules))

	var wg sync.WaitGroup
	for _, rule := range e.rules {
		wg.Add(1)
		go func(r Rule) {
			defer wg.Done()
			flags := r.Evaluate(trades)
			if len(flags) > 0 {
				e.logger.Info("surveillance rule matched", map[string]interface{}{
					"rule":  r.Name(),
					"flags": len(flags),
				})
			}
			results <- flags
		}(rule)
	}

	wg.Wait()
	close(results)

	seen := make(map[domain.SurveillanceFlag]struct{})
	var merged []domain.SurveillanceFlag
	for flags := range results {
		for _, f := range flags {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			merged = append(merged, f)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.ClientID != b.ClientID {
			return a.ClientID < b.ClientID
		}
		if a.StockSymbol != b.StockSymbol {
			return a.StockSymbol < b.StockSymbol
		}
		return a.Reason < b.Reason
	})

	return merged
}
