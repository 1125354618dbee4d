package mes

import (
	"embed"

	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/mes/modules/mes/handlers"
	"github.com/iota-uz/mes/modules/mes/infrastructure/persistence"
	"github.com/iota-uz/mes/modules/mes/presentation/controllers"
	"github.com/iota-uz/mes/modules/mes/seed"
	"github.com/iota-uz/mes/modules/mes/services"
	"github.com/iota-uz/mes/pkg/application"
	"github.com/iota-uz/mes/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "mes"
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	clock := clockwork.NewRealClock()

	hierarchyRepo := persistence.NewHierarchyRepository()
	productionRepo := persistence.NewProductionRepository()
	downtimeRepo := persistence.NewDowntimeRepository()
	qualityRepo := persistence.NewQualityRepository()
	sensorRepo := persistence.NewSensorRepository()
	partitionRepo := persistence.NewPartitionRepository()
	auditRepo := persistence.NewAuditRepository()
	oeeRepo := persistence.NewOEERepository()
	reliabilityRepo := persistence.NewReliabilityRepository()
	kpiRepo := persistence.NewKPIRepository()
	snapshotRepo := persistence.NewSnapshotRepository()
	dataQualityRepo := persistence.NewDataQualityRepository()

	oeeService := services.NewOEEService(productionRepo, downtimeRepo, oeeRepo, conf.Cycle.RollupWorkers)
	reliabilityService := services.NewReliabilityService(productionRepo, downtimeRepo, reliabilityRepo)
	rollupService := services.NewRollupService(kpiRepo, conf.Cycle.RollupWorkers)
	partitionService := services.NewPartitionService(partitionRepo, clock, conf.Partitions)

	app.RegisterServices(
		services.NewHierarchyService(hierarchyRepo, app.EventPublisher()),
		services.NewIngestionService(
			productionRepo, downtimeRepo, qualityRepo, sensorRepo,
			hierarchyRepo, partitionRepo, auditRepo,
		),
		oeeService,
		reliabilityService,
		rollupService,
		partitionService,
		services.NewCycleService(
			hierarchyRepo, productionRepo, snapshotRepo,
			oeeService, reliabilityService, rollupService,
			app.EventPublisher(), clock, conf.Cycle,
		),
		services.NewDataQualityService(dataQualityRepo, clock),
		services.NewKPIQueryService(
			kpiRepo, oeeRepo, reliabilityRepo,
			downtimeRepo, productionRepo, qualityRepo,
		),
		services.NewAuditService(auditRepo),
		services.NewRetentionService(auditRepo, partitionService, snapshotRepo, clock, conf.Retention),
	)

	app.RegisterControllers(
		controllers.NewIngestController(app),
		controllers.NewKPIController(app, conf),
		controllers.NewAuditController(app, conf),
		controllers.NewAdminController(app),
	)

	handlers.RegisterCycleEventHandler(app)

	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")
	app.Seeder().Register(seed.DowntimeReasons, seed.DemoPlant)
	return nil
}
