package webhook

import (
	"fmt"
	"slices"
	"strings"
)

// Event is the name of a notification a tenant can subscribe to.
type Event string

const (
	EventShipmentCreated       Event = "shipment.created"
	EventShipmentUpdated       Event = "shipment.updated"
	EventShipmentDelivered     Event = "shipment.delivered"
	EventShipmentFailed        Event = "shipment.failed"
	EventShipmentStatusUpdated Event = "shipment.status_updated"
	EventPackagePickedUp       Event = "package.picked_up"
	EventPackageInTransit      Event = "package.in_transit"
	EventPackageDelivered      Event = "package.delivered"
	EventBalanceLow            Event = "balance.low"
	EventRateLimitWarning      Event = "rate_limit.warning"
)

var knownEvents = []Event{
	EventShipmentCreated,
	EventShipmentUpdated,
	EventShipmentDelivered,
	EventShipmentFailed,
	EventShipmentStatusUpdated,
	EventPackagePickedUp,
	EventPackageInTransit,
	EventPackageDelivered,
	EventBalanceLow,
	EventRateLimitWarning,
}

// Events returns every event name subscribers may register for.
func Events() []Event {
	return slices.Clone(knownEvents)
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e)
}

// Valid reports whether e is one of the known event names.
func (e Event) Valid() bool {
	return slices.Contains(knownEvents, e)
}

// ParseEvent converts a raw name into an Event.
func ParseEvent(name string) (Event, error) {
	e := Event(strings.TrimSpace(name))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return e, nil
}

// ParseEvents converts and deduplicates a list of raw names, keeping input order.
// An empty list is rejected.
func ParseEvents(names []string) ([]Event, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one event is required", ErrUnknownEvent)
	}
	out := make([]Event, 0, len(names))
	for _, name := range names {
		e, err := ParseEvent(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out, nil
}
