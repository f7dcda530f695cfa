// Package balance assigns pending shipments across tenants.
//
// A Calculator turns a tenant's live shipment figures into a Snapshot:
// utilization against the tier capacity, the share of delivered shipments
// with tracking, a balance health derived from the account balance and a
// combined performance score. The Engine scores every tenant below the soft
// capacity cap for each of the oldest pending shipments and assigns the
// shipment to the highest score, refreshing the winner's snapshot before the
// next shipment is considered.
//
// The Rebalancer runs the engine every 15 minutes and on demand. A Locker
// guarantees that at most one cycle runs at a time; MemoryLocker covers a
// single process and a Redis-backed implementation covers a fleet.
//
// All formula constants live in Policy, which can be loaded from YAML:
//
//	policy, err := balance.LoadPolicy("balance.yaml")
//	engine, err := balance.NewEngine(store, balance.WithPolicy(policy))
//	rebalancer, err := balance.NewRebalancer(engine)
//	g.Go(rebalancer.Run(ctx))
package balance
