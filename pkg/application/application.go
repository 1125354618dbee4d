package application

import (
	"context"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mes/pkg/eventbus"
)

// Controller is a routable unit registered on the root router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module is a bounded context that wires its services, controllers,
// migrations and event handlers into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type SeedFunc func(ctx context.Context, app Application) error

type Seeder interface {
	Register(seedFuncs ...SeedFunc)
	Seed(ctx context.Context, app Application) error
}

type Application interface {
	Pool() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus
	Migrations() MigrationManager
	Seeder() Seeder

	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}

	RegisterControllers(controllers ...Controller)
	Controllers() []Controller

	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Middleware() []mux.MiddlewareFunc
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:           opts.Pool,
		logger:         opts.Logger,
		eventPublisher: opts.EventBus,
		services:       make(map[reflect.Type]interface{}),
		controllers:    make(map[string]Controller),
		migrations:     NewMigrationManager(opts.Pool),
		seeder:         &seeder{},
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool           *pgxpool.Pool
	logger         *logrus.Logger
	eventPublisher eventbus.EventBus
	services       map[reflect.Type]interface{}
	controllers    map[string]Controller
	controllerKeys []string
	middleware     []mux.MiddlewareFunc
	migrations     MigrationManager
	seeder         Seeder
}

func (a *application) Pool() *pgxpool.Pool               { return a.pool }
func (a *application) Logger() *logrus.Logger            { return a.logger }
func (a *application) EventPublisher() eventbus.EventBus { return a.eventPublisher }
func (a *application) Migrations() MigrationManager      { return a.migrations }
func (a *application) Seeder() Seeder                    { return a.seeder }
func (a *application) Middleware() []mux.MiddlewareFunc  { return a.middleware }

func (a *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		a.services[serviceType] = service
	}
}

// Service looks a service up by example value, e.g.
// app.Service(services.CycleService{}).(*services.CycleService).
func (a *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, ok := a.services[serviceType]
	if !ok {
		panic("service not found: " + serviceType.String())
	}
	return svc
}

func (a *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		if _, exists := a.controllers[c.Key()]; !exists {
			a.controllerKeys = append(a.controllerKeys, c.Key())
		}
		a.controllers[c.Key()] = c
	}
}

func (a *application) Controllers() []Controller {
	out := make([]Controller, 0, len(a.controllerKeys))
	for _, key := range a.controllerKeys {
		out = append(out, a.controllers[key])
	}
	return out
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

// ---- Seeder implementation ----

type seeder struct {
	seedFuncs []SeedFunc
}

func (s *seeder) Register(seedFuncs ...SeedFunc) {
	s.seedFuncs = append(s.seedFuncs, seedFuncs...)
}

func (s *seeder) Seed(ctx context.Context, app Application) error {
	for _, seedFunc := range s.seedFuncs {
		app.Logger().Infof("seeding %s", reflect.TypeOf(seedFunc).String())
		if err := seedFunc(ctx, app); err != nil {
			return err
		}
	}
	return nil
}
