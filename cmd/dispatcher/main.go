// Command dispatcher runs the webhook delivery workers, the shipment
// rebalancer and the operational HTTP API in one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/alert"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/config"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/email"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/httpapi"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/httpserver"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/logger"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/metrics"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/pg"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/pgstore"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/redis"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/secrets"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	ServiceName   string `env:"SERVICE_NAME" envDefault:"fastforward-dispatcher"`
	LogLevel      string `env:"LOG_LEVEL"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	SecretsKey    string `env:"SECRETS_KEY"`
	AlertEmail    string `env:"ALERT_EMAIL"`
}

func (c *appConfig) Validate() error {
	if c.StorageDriver != driverPostgres && c.StorageDriver != driverMemory {
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", driverPostgres, driverMemory, c.StorageDriver)
	}
	return nil
}

// store is everything the pipeline and the balancing engine persist.
type store interface {
	delivery.Store
	balance.Store
}

// Aliases give the two embedded MemoryStorage types distinct field names.
type (
	deliveryMemoryStorage = delivery.MemoryStorage
	balanceMemoryStorage  = balance.MemoryStorage
)

// memoryStore backs both sides with the in-process storages.
type memoryStore struct {
	*deliveryMemoryStorage
	*balanceMemoryStorage
}

func main() {
	if err := run(); err != nil {
		slog.Error("dispatcher stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.ServiceName),
		logger.WithLevelName(app.LogLevel),
		logger.WithContextExtractors(httpapi.RequestIDExtractor),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		deliveryCfg delivery.Config
		balanceCfg  balance.Config
		httpCfg     httpserver.Config
		redisCfg    redis.Config
		emailCfg    email.Config
	)
	if err := errors.Join(
		config.Load(&deliveryCfg),
		config.Load(&balanceCfg),
		config.Load(&httpCfg),
		config.Load(&redisCfg),
		config.Load(&emailCfg),
	); err != nil {
		return err
	}

	metrics.Register()

	var (
		st     store
		checks []httpserver.Check
	)
	switch app.StorageDriver {
	case driverMemory:
		log.WarnContext(ctx, "using in-memory storage; state is lost on restart")
		st = memoryStore{delivery.NewMemoryStorage(), balance.NewMemoryStorage()}
	default:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, pgCfg, log); err != nil {
			return err
		}

		var opts []pgstore.Option
		if app.SecretsKey != "" {
			key, err := secrets.ParseKey(app.SecretsKey)
			if err != nil {
				return err
			}
			sealer, err := secrets.NewSealer(key)
			if err != nil {
				return err
			}
			opts = append(opts, pgstore.WithSealer(sealer))
		} else {
			log.WarnContext(ctx, "SECRETS_KEY is not set; webhook signing secrets are stored unencrypted")
		}
		st = pgstore.New(pool, opts...)
		checks = append(checks, httpserver.Check{Name: "postgres", Func: pg.Healthcheck(pool)})
	}

	locker := balance.Locker(balance.NewMemoryLocker())
	if redisCfg.ConnectionURL != "" {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		locker = redis.NewLocker(client, redisCfg.KeyPrefix)
		checks = append(checks, httpserver.Check{Name: "redis", Func: redis.Healthcheck(client)})
	}

	alertOpts := []alert.Option{alert.WithLogger(log), alert.WithContacts(st)}
	if app.AlertEmail != "" {
		sender, err := email.NewSender(emailCfg)
		if err != nil {
			return err
		}
		alertOpts = append(alertOpts, alert.WithEmail(sender, app.AlertEmail))
	}
	notifier := alert.New(alertOpts...)

	executor := webhook.NewExecutor(deliveryCfg.ExecutorOptions()...)
	scheduler, err := delivery.NewScheduler(st, st, append(deliveryCfg.SchedulerOptions(),
		delivery.WithNotifier(notifier),
		delivery.WithSchedulerLogger(log),
	)...)
	if err != nil {
		return err
	}
	worker, err := delivery.NewWorker(st, executor, scheduler, append(deliveryCfg.WorkerOptions(),
		delivery.WithWorkerLogger(log),
	)...)
	if err != nil {
		return err
	}
	orchestrator, err := delivery.NewOrchestrator(st, st,
		delivery.WithWaker(worker),
		delivery.WithOrchestratorLogger(log),
	)
	if err != nil {
		return err
	}
	registry, err := delivery.NewRegistry(st, st, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log),
		httpapi.WithReadinessChecks(httpCfg.CheckTimeout, checks...),
	}
	if balanceCfg.Enabled {
		policy, err := balanceCfg.Policy()
		if err != nil {
			return err
		}
		engine, err := balance.NewEngine(st,
			balance.WithPolicy(policy),
			balance.WithEventDispatcher(orchestrator),
			balance.WithStarvationNotifier(notifier),
			balance.WithEngineLogger(log),
		)
		if err != nil {
			return err
		}
		rebalancer, err := balance.NewRebalancer(engine, append(balanceCfg.RebalancerOptions(),
			balance.WithLocker(locker),
			balance.WithRebalancerLogger(log),
		)...)
		if err != nil {
			return err
		}
		g.Go(rebalancer.Run(ctx))
		apiOpts = append(apiOpts, httpapi.WithRebalancer(rebalancer))
	} else {
		log.InfoContext(ctx, "shipment balancing disabled")
	}

	api, err := httpapi.New(orchestrator, registry, apiOpts...)
	if err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	g.Go(srv.RunFunc(ctx, api.Routes()))

	log.InfoContext(ctx, "dispatcher started",
		slog.String("storage", app.StorageDriver),
		slog.Bool("balancing", balanceCfg.Enabled),
		slog.Bool("redis_lock", redisCfg.ConnectionURL != ""))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("dispatcher shut down")
	return nil
}
