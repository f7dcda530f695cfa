package balance

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Store for tests and single-process setups.
type MemoryStorage struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]Company
	order     []uuid.UUID
	shipments map[uuid.UUID]Shipment
	activity  []ActivityEntry
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		companies: make(map[uuid.UUID]Company),
		shipments: make(map[uuid.UUID]Shipment),
	}
}

// PutCompany inserts or replaces a company. Insertion order is the listing order.
func (m *MemoryStorage) PutCompany(c Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	c.GeographicCoverage = slices.Clone(c.GeographicCoverage)
	m.companies[c.ID] = c
}

// PutShipment inserts or replaces a shipment.
func (m *MemoryStorage) PutShipment(s Shipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipments[s.ID] = cloneShipment(s)
}

// Shipment returns a copy of the stored shipment.
func (m *MemoryStorage) Shipment(id uuid.UUID) (Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shipments[id]
	if !ok {
		return Shipment{}, ErrShipmentNotFound
	}
	return cloneShipment(s), nil
}

// Activity returns a copy of the recorded activity entries.
func (m *MemoryStorage) Activity() []ActivityEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.activity)
}

func (m *MemoryStorage) ListActiveCompanies(_ context.Context) ([]Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Company, 0, len(m.order))
	for _, id := range m.order {
		c := m.companies[id]
		if c.Status == CompanyActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStorage) GetCompany(_ context.Context, id uuid.UUID) (*Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return &c, nil
}

func (m *MemoryStorage) CountActiveShipments(_ context.Context, tenantID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.shipments {
		if s.FulfillerID() == tenantID && slices.Contains(ActiveShipmentStatuses, s.Status) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStorage) DeliveryStats(_ context.Context, tenantID uuid.UUID) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var delivered, tracked int
	for _, s := range m.shipments {
		if s.FulfillerID() != tenantID || s.Status != ShipmentDelivered {
			continue
		}
		delivered++
		if s.TrackingEvents > 0 {
			tracked++
		}
	}
	return delivered, tracked, nil
}

func (m *MemoryStorage) ListUnassignedShipments(_ context.Context, limit int) ([]Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Shipment, 0)
	for _, s := range m.shipments {
		if s.Status == ShipmentPending && s.AssignedTenantID == nil {
			out = append(out, cloneShipment(s))
		}
	}
	slices.SortFunc(out, func(a, b Shipment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) AssignShipment(_ context.Context, shipmentID, tenantID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[shipmentID]
	if !ok {
		return false, ErrShipmentNotFound
	}
	if s.AssignedTenantID != nil || s.Status != ShipmentPending {
		return false, nil
	}
	s.AssignedTenantID = &tenantID
	s.AssignedAt = &at
	s.Status = ShipmentAssigned
	m.shipments[shipmentID] = s
	return true, nil
}

func (m *MemoryStorage) IncrementUnassignedCycles(_ context.Context, shipmentID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[shipmentID]
	if !ok {
		return 0, ErrShipmentNotFound
	}
	s.UnassignedCycles++
	m.shipments[shipmentID] = s
	return s.UnassignedCycles, nil
}

func (m *MemoryStorage) RecordActivity(_ context.Context, entry ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, entry)
	return nil
}

func cloneShipment(s Shipment) Shipment {
	if s.AssignedTenantID != nil {
		id := *s.AssignedTenantID
		s.AssignedTenantID = &id
	}
	if s.AssignedAt != nil {
		at := *s.AssignedAt
		s.AssignedAt = &at
	}
	return s
}
