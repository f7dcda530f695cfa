package delivery_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

type failingSubscriptions struct {
	*delivery.MemoryStorage
}

func (failingSubscriptions) ListActiveSubscriptions(context.Context, uuid.UUID, webhook.Event) ([]delivery.Subscription, error) {
	return nil, errors.New("connection reset by peer")
}

func TestOrchestrator_Dispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no subscribers", func(t *testing.T) {
		t.Parallel()
		p := newPipeline(t)

		res, err := p.orch.Dispatch(ctx, uuid.New(), webhook.EventBalanceLow, nil)
		require.NoError(t, err)
		assert.Empty(t, res.JobIDs)
		assert.Empty(t, p.store.Jobs())
	})

	t.Run("fans out to matching active subscriptions", func(t *testing.T) {
		t.Parallel()
		p := newPipeline(t)
		tenant := uuid.New()

		a := p.subscribe(t, tenant, "https://a.example.com/hook", "shipment.delivered")
		b := p.subscribe(t, tenant, "https://b.example.com/hook", "shipment.delivered", "shipment.created")
		p.subscribe(t, tenant, "https://c.example.com/hook", "shipment.created")
		inactive := p.subscribe(t, tenant, "https://d.example.com/hook", "shipment.delivered")
		off := false
		_, err := p.registry.Update(ctx, tenant, inactive.ID, delivery.UpdateParams{Active: &off})
		require.NoError(t, err)
		p.subscribe(t, uuid.New(), "https://other-tenant.example.com/hook", "shipment.delivered")

		res, err := p.orch.Dispatch(ctx, tenant, webhook.EventShipmentDelivered, json.RawMessage(`{"tracking":"FF123"}`))
		require.NoError(t, err)
		require.Len(t, res.JobIDs, 2)
		assert.Equal(t, p.clock.Now(), res.OccurredAt)

		jobs := p.store.Jobs()
		require.Len(t, jobs, 2)
		got := []uuid.UUID{jobs[0].SubscriptionID, jobs[1].SubscriptionID}
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, got)
		for _, j := range jobs {
			assert.Equal(t, res.EventID, j.EventID)
			assert.Equal(t, delivery.JobPending, j.State)
			assert.Equal(t, 1, j.Attempt)
			assert.Equal(t, res.OccurredAt, j.OccurredAt)
			assert.JSONEq(t, `{"tracking":"FF123"}`, string(j.Payload))
		}
	})

	t.Run("rejects unknown events", func(t *testing.T) {
		t.Parallel()
		p := newPipeline(t)
		_, err := p.orch.Dispatch(ctx, uuid.New(), webhook.Event("shipment.teleported"), nil)
		assert.ErrorIs(t, err, webhook.ErrUnknownEvent)
	})

	t.Run("rejects invalid raw payload", func(t *testing.T) {
		t.Parallel()
		p := newPipeline(t)
		_, err := p.orch.Dispatch(ctx, uuid.New(), webhook.EventBalanceLow, []byte(`{not json`))
		assert.ErrorIs(t, err, delivery.ErrInvalidPayload)
	})

	t.Run("resolution failure aborts dispatch", func(t *testing.T) {
		t.Parallel()
		store := delivery.NewMemoryStorage()
		orch, err := delivery.NewOrchestrator(failingSubscriptions{store}, store, delivery.WithOrchestratorLogger(discard))
		require.NoError(t, err)

		_, err = orch.Dispatch(ctx, uuid.New(), webhook.EventBalanceLow, nil)
		assert.ErrorIs(t, err, delivery.ErrResolveFailed)
		assert.Empty(t, store.Jobs())
	})
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newPipeline(t)
	tenant := uuid.New()

	s1 := p.subscribe(t, tenant, "https://a.example.com/hook", "package.picked_up")
	p.subscribe(t, tenant, "https://b.example.com/hook", "package.delivered")

	subs, err := delivery.NewResolver(p.store).Resolve(ctx, tenant, webhook.EventPackagePickedUp)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, s1.ID, subs[0].ID)

	subs, err = delivery.NewResolver(p.store).Resolve(ctx, tenant, webhook.EventRateLimitWarning)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
