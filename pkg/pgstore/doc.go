// Package pgstore implements the delivery and balance repositories on
// PostgreSQL with pgx/v5.
//
// Delivery jobs are claimed with FOR UPDATE SKIP LOCKED and a lease, so any
// number of dispatcher replicas can poll the same table. Subscription signing
// secrets are sealed before they are written when a SecretSealer is
// configured. The schema ships as goose migrations in Migrations:
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool, pgstore.WithSealer(sealer))
package pgstore
