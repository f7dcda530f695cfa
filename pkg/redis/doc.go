// Package redis connects to Redis with go-redis and provides the distributed
// lock that keeps rebalancing single-flight across dispatcher replicas.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	locker := redis.NewLocker(client, cfg.KeyPrefix)
//	rebalancer, err := balance.NewRebalancer(engine, balance.WithLocker(locker))
//
// Locks expire after their TTL, so a crashed holder blocks other replicas for
// at most one TTL. Release is compare-and-delete and never removes a lock that
// has since been taken by someone else.
package redis
