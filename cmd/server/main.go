package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/mes/modules"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/eventbus"
	"github.com/iota-uz/mes/pkg/metrics"
	"github.com/iota-uz/mes/pkg/middleware"
	"github.com/iota-uz/mes/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if err := app.Migrations().Apply(context.Background()); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	app.RegisterMiddleware(
		middleware.WithPool(pool),
		middleware.RequestID(conf.RequestIDHeader, logger),
		middleware.RequestLogger(),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	bgCtx := composables.WithPool(context.Background(), pool)
	bgCtx = composables.WithLogger(bgCtx, logger.WithField("component", "background"))
	go func() {
		svc := app.Service(services.PartitionService{}).(*services.PartitionService)
		if err := svc.Run(bgCtx); err != nil && bgCtx.Err() == nil {
			logger.WithError(err).Error("partition provisioner stopped")
		}
	}()
	go func() {
		svc := app.Service(services.CycleService{}).(*services.CycleService)
		if err := svc.Run(bgCtx); err != nil && bgCtx.Err() == nil {
			logger.WithError(err).Error("cycle scheduler stopped")
		}
	}()

	srv := server.NewHTTPServer(app)
	log.Printf("listening on %s\n", conf.SocketAddress)
	if err := srv.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
