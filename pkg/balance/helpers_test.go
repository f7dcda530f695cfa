package balance_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func company(name string, tier balance.Tier, bal float64) balance.Company {
	return balance.Company{
		ID:      uuid.New(),
		Name:    name,
		Tier:    tier,
		Status:  balance.CompanyActive,
		Balance: bal,
	}
}

// addLoad stores n in-transit shipments fulfilled by tenantID.
func addLoad(store *balance.MemoryStorage, tenantID uuid.UUID, n int) {
	for i := range n {
		store.PutShipment(balance.Shipment{
			ID:             uuid.New(),
			TrackingNumber: fmt.Sprintf("LOAD-%d", i),
			OwnerTenantID:  tenantID,
			Status:         balance.ShipmentInTransit,
			CreatedAt:      baseTime.Add(-time.Hour),
		})
	}
}

// addPending stores n pending unassigned shipments, one minute apart.
func addPending(store *balance.MemoryStorage, owner uuid.UUID, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := range n {
		id := uuid.New()
		store.PutShipment(balance.Shipment{
			ID:             id,
			TrackingNumber: fmt.Sprintf("FF-%04d", i),
			OwnerTenantID:  owner,
			Status:         balance.ShipmentPending,
			CreatedAt:      baseTime.Add(time.Duration(i) * time.Minute),
		})
		ids = append(ids, id)
	}
	return ids
}

func newEngine(t *testing.T, store balance.Store, opts ...balance.EngineOption) *balance.Engine {
	t.Helper()
	opts = append([]balance.EngineOption{balance.WithEngineClock(func() time.Time { return baseTime })}, opts...)
	engine, err := balance.NewEngine(store, opts...)
	require.NoError(t, err)
	return engine
}

type dispatchCall struct {
	TenantID uuid.UUID
	Event    webhook.Event
	Data     any
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *recordingDispatcher) DispatchEvent(_ context.Context, tenantID uuid.UUID, event webhook.Event, data any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{TenantID: tenantID, Event: event, Data: data})
	return nil
}

// brokenMetricsStore fails shipment counts for one tenant.
type brokenMetricsStore struct {
	*balance.MemoryStorage
	broken uuid.UUID
}

func (s brokenMetricsStore) CountActiveShipments(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if tenantID == s.broken {
		return 0, errors.New("aggregate query failed")
	}
	return s.MemoryStorage.CountActiveShipments(ctx, tenantID)
}
