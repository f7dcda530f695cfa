package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

// ProximityFunc returns the geographic term of a candidate's score for a
// shipment.
type ProximityFunc func(candidate Snapshot, shipment Shipment) float64

// CoverageProximity awards bonus to every tenant that declares any coverage
// at all. It does not look at the shipment destination.
func CoverageProximity(bonus float64) ProximityFunc {
	return func(candidate Snapshot, _ Shipment) float64 {
		if len(candidate.GeographicCoverage) > 0 {
			return bonus
		}
		return 0
	}
}

// StatusUpdate is the webhook payload sent when the engine assigns a shipment.
type StatusUpdate struct {
	ShipmentID       uuid.UUID      `json:"shipmentId"`
	TrackingNumber   string         `json:"trackingNumber"`
	Status           ShipmentStatus `json:"status"`
	AssignedTenantID uuid.UUID      `json:"assignedCompanyId"`
	AssignedAt       time.Time      `json:"assignedAt"`
}

// Engine assigns pending shipments to the best-scoring eligible tenant.
type Engine struct {
	store      Store
	calc       *Calculator
	policy     Policy
	proximity  ProximityFunc
	events     EventDispatcher
	starvation StarvationNotifier
	now        Clock
	logger     *slog.Logger
}

// NewEngine creates an engine. The policy is validated up front.
func NewEngine(store Store, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, ErrRepositoryNil
	}

	o := &engineOptions{
		policy: DefaultPolicy(),
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.policy.Validate(); err != nil {
		return nil, err
	}
	if o.proximity == nil {
		o.proximity = CoverageProximity(o.policy.Score.Coverage)
	}

	calc, err := NewCalculator(store, store, o.policy)
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:      store,
		calc:       calc,
		policy:     o.policy,
		proximity:  o.proximity,
		events:     o.events,
		starvation: o.starvation,
		now:        o.clock,
		logger:     o.logger.With(logger.Component("balance.engine")),
	}, nil
}

// Calculator returns the metrics calculator used by the engine.
func (e *Engine) Calculator() *Calculator {
	return e.calc
}

// Eligible reports whether the tenant is below the soft capacity cap.
// Integer arithmetic keeps the boundary exact.
func (e *Engine) Eligible(s Snapshot) bool {
	return s.CurrentLoad*100 < s.Capacity*e.policy.SoftCapPercent
}

// Score returns the assignment score of candidate for shipment.
func (e *Engine) Score(candidate Snapshot, shipment Shipment) float64 {
	w := e.policy.Score
	availability := max(0, 100-candidate.UtilizationRate) / 100 * w.Availability
	health := candidate.BalanceHealth / 100 * w.BalanceHealth

	return candidate.PerformanceScore*w.Performance +
		availability +
		health +
		w.TierBonus[candidate.Tier] +
		e.proximity(candidate, shipment)
}

// SelectBest returns the index of the highest-scoring eligible candidate.
// Ties go to the earliest candidate. ok is false when none is eligible.
func (e *Engine) SelectBest(candidates []Snapshot, shipment Shipment) (idx int, score float64, ok bool) {
	idx = -1
	for i, c := range candidates {
		if !e.Eligible(c) {
			continue
		}
		s := e.Score(c, shipment)
		if idx < 0 || s > score {
			idx, score = i, s
		}
	}
	return idx, score, idx >= 0
}

// AssignPending runs one balancing pass over the oldest pending unassigned
// shipments. Tenants whose metrics cannot be computed are skipped for the
// pass. Shipments with no eligible tenant stay pending.
//
// Only listing tenants or shipments aborts the pass; every other failure is
// logged and reflected in the report.
func (e *Engine) AssignPending(ctx context.Context) (*Report, error) {
	started := e.now()
	report := &Report{StartedAt: started.UTC()}

	companies, err := e.store.ListActiveCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}
	report.Tenants = len(companies)

	candidates := make([]Snapshot, 0, len(companies))
	byID := make(map[uuid.UUID]Company, len(companies))
	for _, c := range companies {
		s, err := e.calc.ComputeFor(ctx, c)
		if err != nil {
			e.logger.WarnContext(ctx, "skipping tenant with unavailable metrics",
				logger.TenantID(c.ID), logger.Error(err))
			metrics.TenantsSkippedTotal.Inc()
			report.SkippedTenants = append(report.SkippedTenants, c.ID)
			continue
		}
		candidates = append(candidates, *s)
		byID[c.ID] = c
	}

	shipments, err := e.store.ListUnassignedShipments(ctx, e.policy.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unassigned shipments: %w", err)
	}
	report.Shipments = len(shipments)

	for _, sh := range shipments {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		idx, score, ok := e.SelectBest(candidates, sh)
		if !ok {
			e.leaveUnassigned(ctx, sh, report)
			continue
		}

		chosen := candidates[idx]
		at := e.now().UTC()
		changed, err := e.store.AssignShipment(ctx, sh.ID, chosen.TenantID, at)
		if err != nil {
			e.logger.ErrorContext(ctx, "failed to assign shipment",
				logger.ShipmentID(sh.ID), logger.TenantID(chosen.TenantID), logger.Error(err))
			report.Failed = append(report.Failed, sh.ID)
			continue
		}
		if !changed {
			// Assigned elsewhere since it was listed.
			continue
		}

		a := Assignment{
			ShipmentID:       sh.ID,
			TrackingNumber:   sh.TrackingNumber,
			TenantID:         chosen.TenantID,
			Score:            score,
			PerformanceScore: chosen.PerformanceScore,
			UtilizationRate:  chosen.UtilizationRate,
			AssignedAt:       at,
		}
		report.Assigned = append(report.Assigned, a)
		metrics.ShipmentsAssignedTotal.WithLabelValues(string(chosen.Tier)).Inc()

		e.logger.InfoContext(ctx, "shipment assigned",
			logger.ShipmentID(sh.ID),
			logger.TenantID(chosen.TenantID),
			slog.Float64("score", score))

		e.recordActivity(ctx, a)
		e.emitStatusUpdate(ctx, sh, a)

		// Later shipments in the batch must see the new load.
		fresh, err := e.calc.ComputeFor(ctx, byID[chosen.TenantID])
		if err != nil {
			e.logger.WarnContext(ctx, "dropping tenant after metrics refresh failed",
				logger.TenantID(chosen.TenantID), logger.Error(err))
			candidates = append(candidates[:idx], candidates[idx+1:]...)
			continue
		}
		candidates[idx] = *fresh
	}

	report.Duration = e.now().Sub(started)
	return report, nil
}

func (e *Engine) leaveUnassigned(ctx context.Context, sh Shipment, report *Report) {
	report.Unassigned = append(report.Unassigned, sh.ID)
	metrics.ShipmentsUnassignedTotal.Inc()

	cycles, err := e.store.IncrementUnassignedCycles(ctx, sh.ID)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to count unassigned cycle",
			logger.ShipmentID(sh.ID), logger.Error(err))
		return
	}

	threshold := e.policy.StarvationThreshold
	if threshold == 0 || cycles != threshold {
		return
	}

	sh.UnassignedCycles = cycles
	report.Starved = append(report.Starved, sh.ID)
	metrics.ShipmentsStarvedTotal.Inc()
	e.logger.WarnContext(ctx, "shipment starved of eligible tenants",
		logger.ShipmentID(sh.ID), slog.Int("cycles", cycles))

	if e.starvation == nil {
		return
	}
	if err := e.starvation.ShipmentStarved(ctx, sh, cycles); err != nil {
		e.logger.ErrorContext(ctx, "starvation notification failed",
			logger.ShipmentID(sh.ID), logger.Error(err))
	}
}

func (e *Engine) recordActivity(ctx context.Context, a Assignment) {
	entry := ActivityEntry{
		ID:          uuid.New(),
		TenantID:    a.TenantID,
		Action:      ActionShipmentAssigned,
		Description: fmt.Sprintf("Shipment %s assigned by AI balance system", a.TrackingNumber),
		Metadata: map[string]any{
			"shipmentId":       a.ShipmentID.String(),
			"performanceScore": a.PerformanceScore,
			"utilizationRate":  a.UtilizationRate,
		},
		CreatedAt: a.AssignedAt,
	}
	if err := e.store.RecordActivity(ctx, entry); err != nil {
		e.logger.WarnContext(ctx, "failed to record assignment activity",
			logger.ShipmentID(a.ShipmentID), logger.Error(err))
	}
}

// emitStatusUpdate notifies the fulfilling tenant and, when different, the
// owner.
func (e *Engine) emitStatusUpdate(ctx context.Context, sh Shipment, a Assignment) {
	if e.events == nil {
		return
	}

	payload := StatusUpdate{
		ShipmentID:       a.ShipmentID,
		TrackingNumber:   a.TrackingNumber,
		Status:           ShipmentAssigned,
		AssignedTenantID: a.TenantID,
		AssignedAt:       a.AssignedAt,
	}

	recipients := []uuid.UUID{a.TenantID}
	if sh.OwnerTenantID != uuid.Nil && sh.OwnerTenantID != a.TenantID {
		recipients = append(recipients, sh.OwnerTenantID)
	}

	for _, tenantID := range recipients {
		if err := e.events.DispatchEvent(ctx, tenantID, webhook.EventShipmentStatusUpdated, payload); err != nil {
			e.logger.WarnContext(ctx, "failed to queue shipment status webhook",
				logger.ShipmentID(a.ShipmentID), logger.TenantID(tenantID), logger.Error(err))
		}
	}
}
