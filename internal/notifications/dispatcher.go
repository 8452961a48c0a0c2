package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/sione-id/backoffice-backend/pkg/db/models"
	"github.com/sione-id/backoffice-backend/pkg/enums"
	"github.com/sione-id/backoffice-backend/pkg/logger"
	"github.com/sione-id/backoffice-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Outbound is one delivery handed to a channel sender. The dispatcher never
// talks to SMTP or WhatsApp itself.
type Outbound struct {
	Channel enums.DeliveryChannel
	Address string
	Title   string
	Body    string
}

// Sender delivers outbound notifications on one channel.
type Sender interface {
	Channel() enums.DeliveryChannel
	Send(ctx context.Context, out Outbound) error
}

// RecipientSource lists the users a notification fans out to.
type RecipientSource interface {
	FindRecipients(ctx context.Context) ([]models.User, error)
}

// Dispatcher fans a persisted notification out to every recipient contact
// point. Failures are logged and counted, never propagated.
type Dispatcher struct {
	recipients RecipientSource
	senders    map[enums.DeliveryChannel]Sender
	logg       *logger.Logger
	metrics    *metrics.DispatchMetrics
}

// NewDispatcher wires the dispatcher with its channel senders.
func NewDispatcher(recipients RecipientSource, senders []Sender, logg *logger.Logger, m *metrics.DispatchMetrics) (*Dispatcher, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient source required")
	}
	byChannel := make(map[enums.DeliveryChannel]Sender, len(senders))
	for _, sender := range senders {
		if sender == nil {
			continue
		}
		byChannel[sender.Channel()] = sender
	}
	return &Dispatcher{
		recipients: recipients,
		senders:    byChannel,
		logg:       logg,
		metrics:    m,
	}, nil
}

// Dispatch delivers the notification to every contact point of every
// recipient. The returned error aggregates per-delivery failures for the
// caller to log; partial failure never aborts the remaining deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, notification *models.Notification) error {
	recipients, err := d.recipients.FindRecipients(ctx)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}

	var errs error
	for _, recipient := range recipients {
		for _, out := range outboundsFor(recipient, notification) {
			sender, ok := d.senders[out.Channel]
			if !ok {
				continue
			}
			start := time.Now()
			if sendErr := sender.Send(ctx, out); sendErr != nil {
				d.metrics.IncFailure(string(out.Channel))
				if d.logg != nil {
					d.logg.Error(ctx, "notification delivery failed", sendErr)
				}
				errs = multierr.Append(errs, fmt.Errorf("%s to %s: %w", out.Channel, out.Address, sendErr))
				continue
			}
			d.metrics.IncSuccess(string(out.Channel))
			d.metrics.ObserveDuration(string(out.Channel), time.Since(start))
		}
	}
	return errs
}

func outboundsFor(recipient models.User, notification *models.Notification) []Outbound {
	var outbounds []Outbound
	if recipient.Email != nil && *recipient.Email != "" {
		outbounds = append(outbounds, Outbound{
			Channel: enums.ChannelEmail,
			Address: *recipient.Email,
			Title:   notification.Title,
			Body:    notification.Message,
		})
	}
	if recipient.WhatsAppPhone != nil && *recipient.WhatsAppPhone != "" {
		outbounds = append(outbounds, Outbound{
			Channel: enums.ChannelWhatsApp,
			Address: *recipient.WhatsAppPhone,
			Title:   notification.Title,
			Body:    notification.Message,
		})
	}
	return outbounds
}
