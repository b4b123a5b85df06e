package handler

import (
	"context"
	"net/http"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/report"
	"brokerkyc/internal/surveillance"
	"brokerkyc/pkg/logger"
)

// TradeSource serves the trade snapshot the surveillance run evaluates.
type TradeSource interface {
	FindByDate(ctx context.Context, day time.Time) ([]domain.Trade, error)
}

type SurveillanceHandler struct {
	engine *surveillance.Engine
	trades TradeSource
	logger logger.Logger
}

func NewSurveillanceHandler(engine *surveillance.Engine, trades TradeSource, log logger.Logger) *SurveillanceHandler {
	return &SurveillanceHandler{
		engine: engine,
		trades: trades,
		logger: log,
	}
}

// RunCheck evaluates the rule set over one day's trades. The snapshot comes
// from the trade store for the requested date, or from an uploaded
// "trade_log" CSV when one is attached.
func (h *SurveillanceHandler) RunCheck(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.tradeSnapshot(w, r)
	if !ok {
		return
	}

	flags := h.engine.Evaluate(r.Context(), trades)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="surveillance_flags.csv"`)
		if err := report.WriteSurveillanceReport(w, flags); err != nil {
			h.logger.Error("Failed to render surveillance csv", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"trades_evaluated": len(trades),
		"flag_count":       len(flags),
		"flags":            flags,
	})
}

func (h *SurveillanceHandler) tradeSnapshot(w http.ResponseWriter, r *http.Request) ([]domain.Trade, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		if file, _, err := r.FormFile("trade_log"); err == nil {
			defer file.Close()
			trades, err := report.ReadTradeLog(file)
			if err != nil {
				respondError(h.logger, w, http.StatusBadRequest, "Malformed trade log")
				return nil, false
			}
			return trades, true
		}
	}

	raw := r.URL.Query().Get("date")
	day := time.Now()
	if raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(h.logger, w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return nil, false
		}
		day = parsed
	}

	trades, err := h.trades.FindByDate(r.Context(), day)
	if err != nil {
		h.logger.Error("Trade snapshot load failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Trades could not be loaded")
		return nil, false
	}
	return trades, true
}
