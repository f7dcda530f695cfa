package balance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// CompanyRepository reads tenants taking part in balancing.
type CompanyRepository interface {
	// ListActiveCompanies returns active tenants in a stable order.
	ListActiveCompanies(ctx context.Context) ([]Company, error)
	// GetCompany returns ErrCompanyNotFound when the tenant does not exist.
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
}

// ShipmentRepository reads shipment aggregates and records assignments.
type ShipmentRepository interface {
	// CountActiveShipments counts shipments fulfilled by tenantID whose status
	// is one of ActiveShipmentStatuses.
	CountActiveShipments(ctx context.Context, tenantID uuid.UUID) (int, error)
	// DeliveryStats returns the number of delivered shipments fulfilled by
	// tenantID and how many of those have at least one tracking event.
	DeliveryStats(ctx context.Context, tenantID uuid.UUID) (delivered, tracked int, err error)
	// ListUnassignedShipments returns up to limit pending shipments with no
	// assigned tenant, oldest first.
	ListUnassignedShipments(ctx context.Context, limit int) ([]Shipment, error)
	// AssignShipment sets the assigned tenant and the assigned status only if
	// the shipment is still unassigned. It reports whether the row changed.
	AssignShipment(ctx context.Context, shipmentID, tenantID uuid.UUID, at time.Time) (bool, error)
	// IncrementUnassignedCycles bumps and returns the shipment's unassigned
	// cycle counter.
	IncrementUnassignedCycles(ctx context.Context, shipmentID uuid.UUID) (int, error)
}

// ActivityLog stores audit entries.
type ActivityLog interface {
	RecordActivity(ctx context.Context, entry ActivityEntry) error
}

// Store is the full persistence surface of the balancing engine.
type Store interface {
	CompanyRepository
	ShipmentRepository
	ActivityLog
}

// EventDispatcher queues webhook events for a tenant.
type EventDispatcher interface {
	DispatchEvent(ctx context.Context, tenantID uuid.UUID, event webhook.Event, data any) error
}

// StarvationNotifier is told about shipments no tenant could take for
// several consecutive cycles.
type StarvationNotifier interface {
	ShipmentStarved(ctx context.Context, shipment Shipment, cycles int) error
}

// StarvationNotifierFunc adapts a function to StarvationNotifier.
type StarvationNotifierFunc func(ctx context.Context, shipment Shipment, cycles int) error

// ShipmentStarved calls f.
func (f StarvationNotifierFunc) ShipmentStarved(ctx context.Context, shipment Shipment, cycles int) error {
	return f(ctx, shipment, cycles)
}

// Locker provides a cluster-wide mutual exclusion for rebalancing cycles.
// TryLock must not block; acquired is false when another holder owns key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}
