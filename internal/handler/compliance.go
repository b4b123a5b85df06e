package handler

import (
	"io"
	"net/http"
	"time"

	"brokerkyc/internal/compliance"
	"brokerkyc/internal/notification"
	"brokerkyc/internal/report"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"
)

type ComplianceHandler struct {
	service  *compliance.Service
	notifier *notification.Service
	logger   logger.Logger
}

func NewComplianceHandler(service *compliance.Service, notifier *notification.Service, log logger.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		service:  service,
		notifier: notifier,
		logger:   log,
	}
}

// CheckFunds reconciles pooled client funds against an uploaded bank
// statement. The statement arrives either as a multipart "statement" file or
// as the raw request body.
func (h *ComplianceHandler) CheckFunds(w http.ResponseWriter, r *http.Request) {
	statement, err := h.statementBody(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Missing bank statement")
		return
	}
	defer statement.Close()

	result, err := h.service.ReconcileFunds(r.Context(), statement)
	if err != nil {
		h.logger.Error("Funds reconciliation failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Reconciliation could not be completed")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, result)
}

// MarginReport serves the daily margin report, JSON by default or CSV with
// ?format=csv. The date parameter defaults to today.
func (h *ComplianceHandler) MarginReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r)
	if !ok {
		return
	}

	rows, err := h.service.DailyMarginReport(r.Context(), day)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNoTradesForDay) {
			respondError(h.logger, w, http.StatusNotFound, "No trades recorded for the requested day")
			return
		}
		h.logger.Error("Margin report failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Margin report could not be built")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="margin_report.csv"`)
		if err := report.WriteMarginReport(w, rows); err != nil {
			h.logger.Error("Failed to render margin report csv", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"date": day.Format("2006-01-02"),
		"rows": rows,
	})
}

// Expiring lists clients inside the KYC renewal notice window.
func (h *ComplianceHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	expiring, err := h.service.ExpiringClients(r.Context())
	if err != nil {
		h.logger.Error("Expiring clients lookup failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Expiring clients could not be listed")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"count":   len(expiring),
		"clients": expiring,
	})
}

// SettlementDue lists clients whose positive balances sat idle past the
// settlement threshold, JSON by default or CSV with ?format=csv.
func (h *ComplianceHandler) SettlementDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.service.SettlementDue(r.Context())
	if err != nil {
		h.logger.Error("Settlement check failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Settlement check could not be completed")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="settlement_due.csv"`)
		if err := report.WriteSettlementReport(w, due); err != nil {
			h.logger.Error("Failed to render settlement csv", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"count":   len(due),
		"clients": due,
	})
}

// Notify sends the renewal and settlement digests to the compliance inbox.
func (h *ComplianceHandler) Notify(w http.ResponseWriter, r *http.Request) {
	expiring, err := h.service.ExpiringClients(r.Context())
	if err != nil {
		h.logger.Error("Expiring clients lookup failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Notices could not be prepared")
		return
	}
	due, err := h.service.SettlementDue(r.Context())
	if err != nil {
		h.logger.Error("Settlement check failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusInternalServerError, "Notices could not be prepared")
		return
	}

	if err := h.notifier.SendRenewalNotices(r.Context(), expiring); err != nil {
		h.logger.Error("Renewal notice delivery failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusBadGateway, "Renewal notices could not be delivered")
		return
	}
	if err := h.notifier.SendSettlementNotices(r.Context(), due); err != nil {
		h.logger.Error("Settlement notice delivery failed", map[string]interface{}{"error": err.Error()})
		respondError(h.logger, w, http.StatusBadGateway, "Settlement notices could not be delivered")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"renewals_notified":    len(expiring),
		"settlements_notified": len(due),
	})
}

func (h *ComplianceHandler) statementBody(r *http.Request) (io.ReadCloser, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		if file, _, err := r.FormFile("statement"); err == nil {
			return file, nil
		}
	}
	if r.Body == nil {
		return nil, pkgerrors.ErrStatementMalformed
	}
	return r.Body, nil
}

func (h *ComplianceHandler) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}
