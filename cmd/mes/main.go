package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/mes/modules"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/composables"
	"github.com/iota-uz/mes/pkg/configuration"
	"github.com/iota-uz/mes/pkg/eventbus"
)

func buildApp(ctx context.Context) (application.Application, context.Context, error) {
	conf := configuration.Use()
	logger := conf.Logger()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, err
	}
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		return nil, nil, err
	}

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithLogger(ctx, logger.WithField("component", "cli"))
	return app, ctx, nil
}

func main() {
	root := &cobra.Command{
		Use:   "mes",
		Short: "Manufacturing analytics operational commands",
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return app.Migrations().Apply(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Install the reason catalog and demo hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return app.Seeder().Seed(ctx, app)
		},
	})

	cycleCmd := &cobra.Command{Use: "cycle", Short: "Aggregation cycle operations"}
	var periodFlag string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one aggregation cycle and publish its snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			period := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)
			if periodFlag != "" {
				period, err = time.Parse("2006-01-02", periodFlag)
				if err != nil {
					return fmt.Errorf("invalid --period: %w", err)
				}
			}
			svc := app.Service(services.CycleService{}).(*services.CycleService)
			return svc.RunCycle(ctx, period)
		},
	}
	runCmd.Flags().StringVar(&periodFlag, "period", "", "calendar day to compute (YYYY-MM-DD, default: yesterday)")
	cycleCmd.AddCommand(runCmd)
	root.AddCommand(cycleCmd)

	partitionsCmd := &cobra.Command{Use: "partitions", Short: "Sensor partition operations"}
	partitionsCmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Provision the configured partition window",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			svc := app.Service(services.PartitionService{}).(*services.PartitionService)
			return svc.EnsureDefaultWindow(ctx)
		},
	})
	root.AddCommand(partitionsCmd)

	root.AddCommand(&cobra.Command{
		Use:   "retention",
		Short: "Run one retention enforcement pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			svc := app.Service(services.RetentionService{}).(*services.RetentionService)
			report, err := svc.Enforce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("audit deleted: %d, partitions dropped: %d, snapshot rows pruned: %d\n",
				report.AuditRecordsDeleted, report.PartitionsDropped, report.SnapshotRowsPruned)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
