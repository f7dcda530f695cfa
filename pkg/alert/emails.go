package alert

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/google/uuid"
)

type disabledView struct {
	TenantID   uuid.UUID
	WebhookID  uuid.UUID
	URL        string
	Event      string
	Attempts   int
	LastStatus int
	LastError  string
	DisabledAt string
}

type starvedView struct {
	ShipmentID     uuid.UUID
	TrackingNumber string
	Cycles         int
	Since          string
}

// htmlWriter writes literal markup and escaped values, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func webhookDisabledEmail(v disabledView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<h2>Webhook endpoint disabled</h2>\n<p>The endpoint <code>")
		h.text(v.URL)
		h.raw("</code> failed ")
		h.text(strconv.Itoa(v.Attempts))
		h.raw(" consecutive delivery attempts for <code>")
		h.text(v.Event)
		h.raw("</code> and has been deactivated.</p>\n<ul>\n<li>Webhook: ")
		h.text(v.WebhookID.String())
		h.raw("</li>\n<li>Tenant: ")
		h.text(v.TenantID.String())
		h.raw("</li>\n<li>Last status: ")
		if v.LastStatus != 0 {
			h.text(strconv.Itoa(v.LastStatus))
		} else {
			h.raw("no response")
		}
		h.raw("</li>")
		if v.LastError != "" {
			h.raw("\n<li>Last error: ")
			h.text(v.LastError)
			h.raw("</li>")
		}
		h.raw("\n<li>Disabled at: ")
		h.text(v.DisabledAt)
		h.raw("</li>\n</ul>\n<p>Fix the endpoint and re-enable the webhook to resume deliveries.</p>")
		return h.err
	})
}

func shipmentStarvedEmail(v starvedView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<h2>Shipment waiting for a carrier</h2>\n<p>Shipment <strong>")
		h.text(v.TrackingNumber)
		h.raw("</strong> (")
		h.text(v.ShipmentID.String())
		h.raw(") has gone ")
		h.text(strconv.Itoa(v.Cycles))
		h.raw(" balancing cycles without an eligible tenant.</p>\n<p>Pending since ")
		h.text(v.Since)
		h.raw(". Every active tenant is at or above its capacity limit.</p>")
		return h.err
	})
}
