package balance

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier is a tenant's service level. It determines shipment capacity.
type Tier string

const (
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// ParseTier maps a stored tier name to a Tier. Unknown or empty names fall
// back to TierStarter.
func ParseTier(s string) Tier {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierProfessional, TierEnterprise:
		return t
	default:
		return TierStarter
	}
}

// CompanyStatus gates participation in balancing.
type CompanyStatus string

const (
	CompanyActive    CompanyStatus = "active"
	CompanySuspended CompanyStatus = "suspended"
)

// Company is a tenant as seen by the balancing engine.
type Company struct {
	ID                 uuid.UUID
	Name               string
	Tier               Tier
	Status             CompanyStatus
	Balance            float64
	GeographicCoverage []string
	ContactEmail       string
}

// ShipmentStatus is the lifecycle status of a shipment.
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentAssigned  ShipmentStatus = "assigned"
	ShipmentPickedUp  ShipmentStatus = "picked_up"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentFailed    ShipmentStatus = "failed"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

// ActiveShipmentStatuses count toward a tenant's current load.
var ActiveShipmentStatuses = []ShipmentStatus{
	ShipmentPending,
	ShipmentAssigned,
	ShipmentPickedUp,
	ShipmentInTransit,
}

// Shipment is a shipment awaiting or holding an assignment.
type Shipment struct {
	ID             uuid.UUID
	TrackingNumber string
	OwnerTenantID  uuid.UUID
	Status         ShipmentStatus
	// AssignedTenantID is set once by the engine and never changed afterwards.
	AssignedTenantID *uuid.UUID
	Destination      string
	// TrackingEvents is the number of tracking events recorded for the shipment.
	TrackingEvents int
	// UnassignedCycles counts rebalancing cycles that found no candidate.
	UnassignedCycles int
	CreatedAt        time.Time
	AssignedAt       *time.Time
}

// FulfillerID is the tenant responsible for the shipment: the assigned tenant
// when set, the owner otherwise.
func (s Shipment) FulfillerID() uuid.UUID {
	if s.AssignedTenantID != nil {
		return *s.AssignedTenantID
	}
	return s.OwnerTenantID
}

// Snapshot is the point-in-time metrics view of a tenant. It is never persisted.
type Snapshot struct {
	TenantID           uuid.UUID `json:"tenant_id"`
	Name               string    `json:"name"`
	Tier               Tier      `json:"tier"`
	CurrentLoad        int       `json:"current_load"`
	Capacity           int       `json:"capacity"`
	UtilizationRate    float64   `json:"utilization_rate"`
	OnTimeDeliveryRate float64   `json:"on_time_delivery_rate"`
	Balance            float64   `json:"balance"`
	BalanceHealth      float64   `json:"balance_health"`
	GeographicCoverage []string  `json:"geographic_coverage,omitempty"`
	PerformanceScore   float64   `json:"performance_score"`
}

// Assignment records one shipment placed with a tenant.
type Assignment struct {
	ShipmentID       uuid.UUID `json:"shipment_id"`
	TrackingNumber   string    `json:"tracking_number"`
	TenantID         uuid.UUID `json:"tenant_id"`
	Score            float64   `json:"score"`
	PerformanceScore float64   `json:"performance_score"`
	UtilizationRate  float64   `json:"utilization_rate"`
	AssignedAt       time.Time `json:"assigned_at"`
}

// ActivityEntry is an audit log row written for every automated assignment.
type ActivityEntry struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Action      string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// ActionShipmentAssigned is the activity action for engine assignments.
const ActionShipmentAssigned = "shipment_assigned"

// Report summarizes one rebalancing cycle.
type Report struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Tenants        int           `json:"tenants"`
	SkippedTenants []uuid.UUID   `json:"skipped_tenants,omitempty"`
	Shipments      int           `json:"shipments"`
	Assigned       []Assignment  `json:"assigned"`
	Unassigned     []uuid.UUID   `json:"unassigned,omitempty"`
	Starved        []uuid.UUID   `json:"starved,omitempty"`
	Failed         []uuid.UUID   `json:"failed,omitempty"`
}
