// Package notification delivers compliance notices to the back office.
package notification

import (
	"context"
	"fmt"
	"strings"

	"brokerkyc/internal/domain"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"
	"brokerkyc/pkg/mailer"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// Service formats and sends renewal and settlement notices to the
// compliance inbox.
type Service struct {
	sender Sender
	inbox  string
	logger logger.Logger
}

func NewService(sender Sender, inbox string, log logger.Logger) *Service {
	return &Service{sender: sender, inbox: inbox, logger: log}
}

// NewSMTPSender wraps the shared mailer as a Sender.
func NewSMTPSender(cfg mailer.Config) Sender {
	return mailer.New(cfg)
}

// SendRenewalNotices sends one digest listing every client whose KYC is
// inside the renewal window. An empty list sends nothing.
func (s *Service) SendRenewalNotices(ctx context.Context, expiring []domain.ExpiringClient) error {
	if len(expiring) == 0 {
		s.logger.Info("no kyc renewals due", nil)
		return nil
	}

	var b strings.Builder
	b.WriteString("The following clients require KYC renewal:\n\n")
	for _, c := range expiring {
		fmt.Fprintf(&b, "%s  %s  expires %s (%d days)\n",
			c.ClientID, c.FullName, c.KYCExpiryDate.Format("02/01/2006"), c.DaysUntilExpiry)
	}

	subject := fmt.Sprintf("KYC renewal due for %d client(s)", len(expiring))
	if err := s.sender.Send(s.inbox, subject, b.String()); err != nil {
		return pkgerrors.Wrap(err, "send renewal notice")
	}
	s.logger.Info("renewal notice sent", map[string]interface{}{
		"recipients": s.inbox,
		"clients":    len(expiring),
	})
	return nil
}

// SendSettlementNotices sends one digest listing every client whose funds
// sat idle past the settlement threshold.
func (s *Service) SendSettlementNotices(ctx context.Context, due []domain.SettlementDue) error {
	if len(due) == 0 {
		s.logger.Info("no settlements due", nil)
		return nil
	}

	var b strings.Builder
	b.WriteString("The following client balances are due for settlement:\n\n")
	for _, d := range due {
		idle := fmt.Sprintf("%d days idle", d.DaysSinceLastTrade)
		if d.DaysSinceLastTrade < 0 {
			idle = "no trades on record"
		}
		fmt.Fprintf(&b, "%s  %s  balance %s  (%s)\n", d.ClientID, d.FullName, d.Balance.StringFixed(2), idle)
	}

	subject := fmt.Sprintf("Settlement due for %d client(s)", len(due))
	if err := s.sender.Send(s.inbox, subject, b.String()); err != nil {
		return pkgerrors.Wrap(err, "send settlement notice")
	}
	s.logger.Info("settlement notice sent", map[string]interface{}{
		"recipients": s.inbox,
		"clients":    len(due),
	})
	return nil
}

// LogSender writes notices to the log instead of SMTP. Used when no mail
// credentials are configured.
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (l *LogSender) Send(to, subject, body string) error {
	l.logger.Info("notice (mail disabled)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
