package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/email"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/email/templates"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
)

const (
	TagWebhookDisabled = "webhook-disabled"
	TagShipmentStarved = "shipment-starved"
)

// ContactLookup resolves a tenant's contact address.
type ContactLookup interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*balance.Company, error)
}

// Notifier reports operational events by structured log and, when a sender
// is configured, by e-mail to the operations address and the affected tenant.
type Notifier struct {
	sender   email.EmailSender
	contacts ContactLookup
	opsEmail string
	logger   *slog.Logger
}

var (
	_ delivery.Notifier          = (*Notifier)(nil)
	_ balance.StarvationNotifier = (*Notifier)(nil)
)

// Option configures a Notifier.
type Option func(*Notifier)

// WithEmail sends alerts through sender to opsEmail.
func WithEmail(sender email.EmailSender, opsEmail string) Option {
	return func(n *Notifier) {
		n.sender = sender
		n.opsEmail = opsEmail
	}
}

// WithContacts also mails the affected tenant's contact address.
func WithContacts(c ContactLookup) Option {
	return func(n *Notifier) {
		n.contacts = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a notifier. Without WithEmail it only logs.
func New(opts ...Option) *Notifier {
	n := &Notifier{logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("alert"))
	return n
}

// SubscriptionDisabled implements delivery.Notifier.
func (n *Notifier) SubscriptionDisabled(ctx context.Context, d delivery.Disablement) error {
	n.logger.WarnContext(ctx, "webhook subscription disabled",
		logger.TenantID(d.Subscription.TenantID),
		logger.SubscriptionID(d.Subscription.ID),
		logger.Event(d.Event.String()),
		logger.Attempt(d.Attempts),
		logger.StatusCode(d.LastStatus),
		slog.String("url", d.Subscription.URL),
		slog.String("last_error", d.LastError))

	if n.sender == nil {
		return nil
	}

	body, err := templates.Render(ctx, webhookDisabledEmail(disabledView{
		TenantID:   d.Subscription.TenantID,
		WebhookID:  d.Subscription.ID,
		URL:        d.Subscription.URL,
		Event:      d.Event.String(),
		Attempts:   d.Attempts,
		LastStatus: d.LastStatus,
		LastError:  d.LastError,
		DisabledAt: d.DisabledAt.UTC().Format(time.RFC1123),
	}))
	if err != nil {
		return fmt.Errorf("render webhook disabled alert: %w", err)
	}

	subject := fmt.Sprintf("Webhook disabled: %s", d.Subscription.URL)
	return n.send(ctx, d.Subscription.TenantID, subject, body, TagWebhookDisabled)
}

// ShipmentStarved implements balance.StarvationNotifier.
func (n *Notifier) ShipmentStarved(ctx context.Context, s balance.Shipment, cycles int) error {
	n.logger.WarnContext(ctx, "shipment has no eligible tenant",
		logger.ShipmentID(s.ID),
		logger.TenantID(s.OwnerTenantID),
		slog.String("tracking_number", s.TrackingNumber),
		slog.Int("cycles", cycles))

	if n.sender == nil {
		return nil
	}

	body, err := templates.Render(ctx, shipmentStarvedEmail(starvedView{
		ShipmentID:     s.ID,
		TrackingNumber: s.TrackingNumber,
		Cycles:         cycles,
		Since:          s.CreatedAt.UTC().Format(time.RFC1123),
	}))
	if err != nil {
		return fmt.Errorf("render shipment starved alert: %w", err)
	}

	subject := fmt.Sprintf("Shipment %s could not be assigned", s.TrackingNumber)
	return n.send(ctx, s.OwnerTenantID, subject, body, TagShipmentStarved)
}

func (n *Notifier) send(ctx context.Context, tenantID uuid.UUID, subject, body, tag string) error {
	recipients := make([]string, 0, 2)
	if n.opsEmail != "" {
		recipients = append(recipients, n.opsEmail)
	}
	if addr := n.contactEmail(ctx, tenantID); addr != "" && addr != n.opsEmail {
		recipients = append(recipients, addr)
	}

	var errs []error
	for _, to := range recipients {
		err := n.sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   to,
			Subject:  subject,
			BodyHTML: body,
			Tag:      tag,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) contactEmail(ctx context.Context, tenantID uuid.UUID) string {
	if n.contacts == nil || tenantID == uuid.Nil {
		return ""
	}
	c, err := n.contacts.GetCompany(ctx, tenantID)
	if err != nil {
		n.logger.DebugContext(ctx, "no contact for alert", logger.TenantID(tenantID), logger.Error(err))
		return ""
	}
	if !email.ValidAddress(c.ContactEmail) {
		return ""
	}
	return c.ContactEmail
}
