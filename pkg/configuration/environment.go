package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mes/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"mes"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type PartitionOptions struct {
	// Provisioned window relative to now, in months.
	LookbackMonths int `env:"PARTITION_LOOKBACK_MONTHS" envDefault:"1"`
	HorizonMonths  int `env:"PARTITION_HORIZON_MONTHS" envDefault:"12"`

	EnsureInterval time.Duration `env:"PARTITION_ENSURE_INTERVAL" envDefault:"720h"`
}

func (p *PartitionOptions) Validate() error {
	if p.LookbackMonths < 0 {
		return fmt.Errorf("partition LookbackMonths must be non-negative, got %d", p.LookbackMonths)
	}
	if p.HorizonMonths < 1 {
		return fmt.Errorf("partition HorizonMonths must be at least 1, got %d", p.HorizonMonths)
	}
	return nil
}

type CycleOptions struct {
	Interval       time.Duration `env:"CYCLE_INTERVAL" envDefault:"24h"`
	RollupWorkers  int           `env:"CYCLE_ROLLUP_WORKERS" envDefault:"8"`
	RetryMaxElapse time.Duration `env:"CYCLE_RETRY_MAX_ELAPSED" envDefault:"10m"`

	// Trailing window for MTBF/MTTR.
	ReliabilityWindowDays int `env:"RELIABILITY_WINDOW_DAYS" envDefault:"30"`
}

func (c *CycleOptions) Validate() error {
	if c.RollupWorkers < 1 {
		return fmt.Errorf("cycle RollupWorkers must be at least 1, got %d", c.RollupWorkers)
	}
	switch c.ReliabilityWindowDays {
	case 30, 90:
		return nil
	default:
		if c.ReliabilityWindowDays < 1 {
			return fmt.Errorf("reliability window must be at least 1 day, got %d", c.ReliabilityWindowDays)
		}
	}
	return nil
}

type RetentionOptions struct {
	AuditYears         int `env:"RETENTION_AUDIT_YEARS" envDefault:"7"`
	SensorMonths       int `env:"RETENTION_SENSOR_MONTHS" envDefault:"13"`
	DiscardedSnapshots int `env:"RETENTION_DISCARDED_SNAPSHOTS" envDefault:"3"`
}

type Configuration struct {
	Database   DatabaseOptions
	Prometheus PrometheusOptions
	Partitions PartitionOptions
	Cycle      CycleOptions
	Retention  RetentionOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	RequestIDHeader  string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int    `env:"MAX_PAGE_SIZE" envDefault:"500"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Partitions.Validate(); err != nil {
		return fmt.Errorf("partition configuration error: %w", err)
	}
	if err := c.Cycle.Validate(); err != nil {
		return fmt.Errorf("cycle configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) Unload() {
	if c.logFile != nil {
		_ = c.logFile.Close()
	}
}
