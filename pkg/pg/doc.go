// Package pg bootstraps PostgreSQL access for the dispatcher on top of the
// pgx/v5 driver. It wraps connection pooling, schema migrations, health checks
// and driver error classification behind a handful of functions so the
// repositories in pgstore only deal with SQL.
//
// The package keeps a small API surface and leans on upstream libraries
// (pgx/v5 for connectivity and goose/v3 for migrations); callers still get a
// plain *pgxpool.Pool back and can use it directly.
//
// # Architecture
//
// Three building blocks cooperate:
//
//   - Config is populated from environment variables via
//     github.com/caarlos0/env. It controls pool limits, health-check cadence,
//     connection retries and the goose version table.
//
//   - Connect opens a *pgxpool.Pool from Config and pings it, retrying with a
//     linearly growing delay while the database is still starting.
//
//   - Migrate runs goose migrations from an fs.FS against the same pool,
//     normally the embed.FS shipped by the repository package that owns the
//     schema, so the schema is current before the HTTP API and the delivery
//     worker start.
//
// Healthcheck adapts the pool to the readiness check signature used by
// httpserver.HealthCheckHandler.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
//	check := httpserver.Check{Name: "postgres", Func: pg.Healthcheck(pool)}
//
// # Configuration
//
// Every value comes from an environment variable so it can be tuned per
// deployment without code changes. Refer to the field tags in Config for the
// exact variable names and defaults. DATABASE_URL is the only required one.
//
// # Error Handling
//
// Failures from Connect, Migrate and Healthcheck wrap the sentinel errors in
// this package, so callers can match them with errors.Is. Helpers such as
// [IsDuplicateKeyError] and [IsForeignKeyViolationError] unwrap
// *pgconn.PgError values returned by pgx, letting repositories translate
// constraint violations into domain errors.
package pg
