package balance

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Calculator derives metrics snapshots from live shipment data.
type Calculator struct {
	companies CompanyRepository
	shipments ShipmentRepository
	policy    Policy
}

// NewCalculator creates a calculator using policy for capacities and weights.
func NewCalculator(companies CompanyRepository, shipments ShipmentRepository, policy Policy) (*Calculator, error) {
	if companies == nil || shipments == nil {
		return nil, ErrRepositoryNil
	}
	return &Calculator{companies: companies, shipments: shipments, policy: policy}, nil
}

// Compute loads the tenant and its shipment aggregates and returns a fresh
// snapshot. Unknown tenants yield ErrCompanyNotFound.
func (c *Calculator) Compute(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error) {
	company, err := c.companies.GetCompany(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return c.ComputeFor(ctx, *company)
}

// ComputeFor is Compute for a company that has already been loaded.
func (c *Calculator) ComputeFor(ctx context.Context, company Company) (*Snapshot, error) {
	load, err := c.shipments.CountActiveShipments(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("count active shipments: %w", err)
	}

	delivered, tracked, err := c.shipments.DeliveryStats(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("delivery stats: %w", err)
	}

	s := c.policy.Snapshot(company, load, delivered, tracked)
	return &s, nil
}

// Snapshot applies the policy formulas to raw tenant figures.
func (p Policy) Snapshot(company Company, load, delivered, tracked int) Snapshot {
	capacity := p.Capacity(company.Tier)

	utilization := float64(load) / float64(capacity) * 100

	onTime := 100.0
	if delivered > 0 {
		onTime = float64(tracked) / float64(delivered) * 100
	}

	// Only capped above: a negative balance pulls the performance score down.
	health := math.Min(100, company.Balance/p.BalanceHealthUnit*100)

	w := p.Performance
	performance := (utilization*w.Utilization + onTime*w.OnTime + health*w.BalanceHealth) / w.Divisor

	return Snapshot{
		TenantID:           company.ID,
		Name:               company.Name,
		Tier:               company.Tier,
		CurrentLoad:        load,
		Capacity:           capacity,
		UtilizationRate:    utilization,
		OnTimeDeliveryRate: onTime,
		Balance:            company.Balance,
		BalanceHealth:      health,
		GeographicCoverage: company.GeographicCoverage,
		PerformanceScore:   clamp(performance, 0, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
