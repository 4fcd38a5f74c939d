// Command barker drives a population of bots against the sharded Postgres timeline store
// and reports read and write latencies on the console and over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/caffinitas/barker/loadgen"
	"github.com/caffinitas/barker/shell/config"
	"github.com/caffinitas/barker/shell/logging"
	"github.com/caffinitas/barker/shell/report"
	"github.com/caffinitas/barker/timeline"
	"github.com/caffinitas/barker/timeline/oteladapters"
	"github.com/caffinitas/barker/timeline/postgresengine"
	"github.com/caffinitas/barker/timeline/promadapters"
)

const instrumentationName = "github.com/caffinitas/barker"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "barker: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	logger := logging.NewStderrLogger(cli.debug)

	settings, err := config.LoadSettings(cli.configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := timeline.NewRegistry()
	defer registry.Stop()

	promRegistry := prometheus.NewRegistry()
	options := []postgresengine.Option{
		postgresengine.WithSchema(settings.Postgres.Schema),
		postgresengine.WithRegistry(registry),
		postgresengine.WithLogger(logger),
		postgresengine.WithContextualLogger(logger),
	}

	collectors := []timeline.MetricsCollector{promadapters.NewMetricsCollector(promRegistry)}

	if cli.otel {
		providers, otelErr := config.NewObservabilityProviders(ctx, settings.OTel)
		if otelErr != nil {
			return otelErr
		}
		defer func() {
			if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
				logger.Warn("shutting down observability providers failed", "error", shutdownErr)
			}
		}()

		collectors = append(collectors, oteladapters.NewMetricsCollector(otel.Meter(instrumentationName)))
		options = append(options,
			postgresengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))),
			postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger(instrumentationName)),
		)
		logger.Info("otel export enabled", "traces", settings.OTel.TraceEndpoint, "metrics", settings.OTel.MetricEndpoint)
	}

	options = append(options, postgresengine.WithMetrics(fanoutCollector(collectors)))

	store, closeConnections, err := openStore(ctx, settings.Postgres, cli.contactPoints, options)
	if err != nil {
		return err
	}
	defer closeConnections()
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("closing store failed", "error", closeErr)
		}
	}()

	logger.Info("connected", "driver", settings.Postgres.Driver, "shards", len(cli.contactPoints))

	if err = store.Migrate(ctx); err != nil {
		return err
	}

	if err = store.Prepare(ctx); err != nil {
		return err
	}

	controller, err := loadgen.NewController(ctx, store, cli.load,
		loadgen.WithLogger(logger),
		loadgen.WithTextSource(loadgen.NewTextSource(time.Now().UnixNano())),
	)
	if err != nil {
		return err
	}
	defer controller.Close()

	server, err := report.Listen(settings.HTTP.Address, report.NewHandler(registry, controller, promRegistry))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := server.Close(context.Background()); closeErr != nil {
			logger.Warn("closing http listener failed", "error", closeErr)
		}
	}()

	logger.Info("load generator started",
		"threads", cli.load.Threads, "bots", cli.load.Bots,
		"min_delay", cli.load.DelayMin, "max_delay", cli.load.DelayMax, "url", server.URL())

	return runConsole(ctx, os.Stdin, os.Stdout, report.Banner(server.URL(), time.Now()), registry)
}

// openStore connects to every contact point with the configured driver and builds the Store on these connections.
// The returned func closes the connections.
func openStore(
	ctx context.Context,
	settings config.PostgresSettings,
	contactPoints []string,
	options []postgresengine.Option,
) (*postgresengine.Store, func(), error) {

	switch settings.Driver {
	case config.DriverPGX:
		pools, err := config.NewPGXPools(ctx, settings, contactPoints)
		if err != nil {
			return nil, nil, err
		}
		closeAll := func() {
			for _, pool := range pools {
				pool.Close()
			}
		}
		store, err := postgresengine.NewStoreFromPGXPools(pools, options...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return store, closeAll, nil

	case config.DriverSQL:
		dbs, err := config.NewSQLDBs(ctx, settings, contactPoints)
		if err != nil {
			return nil, nil, err
		}
		closeAll := func() {
			for _, db := range dbs {
				_ = db.Close()
			}
		}
		store, err := postgresengine.NewStoreFromSQLDBs(dbs, options...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return store, closeAll, nil

	case config.DriverSQLX:
		dbs, err := config.NewSQLXs(ctx, settings, contactPoints)
		if err != nil {
			return nil, nil, err
		}
		closeAll := func() {
			for _, db := range dbs {
				_ = db.Close()
			}
		}
		store, err := postgresengine.NewStoreFromSQLXs(dbs, options...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return store, closeAll, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, settings.Driver)
	}
}
