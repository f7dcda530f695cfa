package alert_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/alert"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/email"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func disablement(tenantID uuid.UUID) delivery.Disablement {
	return delivery.Disablement{
		Subscription: delivery.Subscription{
			ID:       uuid.New(),
			TenantID: tenantID,
			URL:      "https://partner.example.com/hooks",
		},
		JobID:      uuid.New(),
		EventID:    uuid.New(),
		Event:      webhook.EventShipmentDelivered,
		Attempts:   6,
		LastStatus: 503,
		LastError:  "unexpected status",
		DisabledAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_LogOnly(t *testing.T) {
	t.Parallel()

	n := alert.New()
	require.NoError(t, n.SubscriptionDisabled(context.Background(), disablement(uuid.New())))
	require.NoError(t, n.ShipmentStarved(context.Background(), balance.Shipment{ID: uuid.New()}, 4))
}

func TestNotifier_SubscriptionDisabled(t *testing.T) {
	t.Parallel()

	contacts := balance.NewMemoryStorage()
	tenant := balance.Company{ID: uuid.New(), Name: "acme", ContactEmail: "dev@acme.example.com", Status: balance.CompanyActive}
	contacts.PutCompany(tenant)

	sender := &MockEmailSender{}
	isAlert := func(to string) any {
		return mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == to &&
				p.Tag == alert.TagWebhookDisabled &&
				p.Subject == "Webhook disabled: https://partner.example.com/hooks"
		})
	}
	sender.On("SendEmail", mock.Anything, isAlert("ops@fastforward.example.com")).Return(nil).Once()
	sender.On("SendEmail", mock.Anything, isAlert("dev@acme.example.com")).Return(nil).Once()

	n := alert.New(alert.WithEmail(sender, "ops@fastforward.example.com"), alert.WithContacts(contacts))
	require.NoError(t, n.SubscriptionDisabled(context.Background(), disablement(tenant.ID)))

	sender.AssertExpectations(t)

	body := sender.Calls[0].Arguments.Get(1).(email.SendEmailParams).BodyHTML
	assert.Contains(t, body, "https://partner.example.com/hooks")
	assert.Contains(t, body, "shipment.delivered")
	assert.Contains(t, body, "503")
}

func TestNotifier_ShipmentStarved(t *testing.T) {
	t.Parallel()

	sender := &MockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
		return p.SendTo == "ops@fastforward.example.com" && p.Tag == alert.TagShipmentStarved
	})).Return(errors.New("smtp down")).Once()

	n := alert.New(alert.WithEmail(sender, "ops@fastforward.example.com"))
	err := n.ShipmentStarved(context.Background(), balance.Shipment{
		ID:             uuid.New(),
		TrackingNumber: "FF-0042",
		CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	sender.AssertExpectations(t)
	body := sender.Calls[0].Arguments.Get(1).(email.SendEmailParams).BodyHTML
	assert.Contains(t, body, "FF-0042")
	assert.Contains(t, body, "4 balancing cycles")
}

func TestNotifier_UnknownTenantContact(t *testing.T) {
	t.Parallel()

	sender := &MockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(nil).Once()

	n := alert.New(alert.WithEmail(sender, "ops@fastforward.example.com"), alert.WithContacts(balance.NewMemoryStorage()))
	require.NoError(t, n.SubscriptionDisabled(context.Background(), disablement(uuid.New())))
	sender.AssertNumberOfCalls(t, "SendEmail", 1)
}
