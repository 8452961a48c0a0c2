package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sione-id/backoffice-backend/pkg/config"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

// EmailSender delivers via SMTP. With DryRun set (the default outside
// production) it only logs the delivery, which keeps local and test
// environments from needing a mail relay.
type EmailSender struct {
	cfg  config.NotifyConfig
	logg *logger.Logger
}

// NewEmailSender builds the email channel sender.
func NewEmailSender(cfg config.NotifyConfig, logg *logger.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, logg: logg}
}

func (e *EmailSender) Channel() enums.DeliveryChannel {
	return enums.ChannelEmail
}

func (e *EmailSender) Send(ctx context.Context, out Outbound) error {
	if e.cfg.EmailDryRun {
		if e.logg != nil {
			e.logg.Info(e.logg.WithField(ctx, "to", out.Address), "email delivery skipped (dry run)")
		}
		return nil
	}
	if e.cfg.EmailSMTP == "" {
		return fmt.Errorf("smtp address not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", out.Address)
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n", out.Title)
	msg.WriteString(out.Body)
	if e.cfg.PortalURL != "" {
		fmt.Fprintf(&msg, "\r\n\r\n%s", e.cfg.PortalURL)
	}

	return smtp.SendMail(e.cfg.EmailSMTP, nil, e.cfg.FromEmail, []string{out.Address}, []byte(msg.String()))
}

// WhatsAppSender hands messages to the WA gateway. Only the dry-run path is
// wired; the gateway integration keys live outside this repo.
type WhatsAppSender struct {
	cfg  config.NotifyConfig
	logg *logger.Logger
}

// NewWhatsAppSender builds the WhatsApp channel sender.
func NewWhatsAppSender(cfg config.NotifyConfig, logg *logger.Logger) *WhatsAppSender {
	return &WhatsAppSender{cfg: cfg, logg: logg}
}

func (w *WhatsAppSender) Channel() enums.DeliveryChannel {
	return enums.ChannelWhatsApp
}

func (w *WhatsAppSender) Send(ctx context.Context, out Outbound) error {
	if w.cfg.WADryRun {
		if w.logg != nil {
			w.logg.Info(w.logg.WithField(ctx, "to", out.Address), "whatsapp delivery skipped (dry run)")
		}
		return nil
	}
	return fmt.Errorf("whatsapp gateway not configured")
}
