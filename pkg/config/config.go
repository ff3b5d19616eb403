package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Pickup       PickupConfig
	Sales        SalesConfig
	Scheduler    SchedulerConfig
	Metrics      MetricsConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pickup.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EASYBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"EASYBUY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EASYBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EASYBUY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EASYBUY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EASYBUY_DB_DSN"`
	Driver string `envconfig:"EASYBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EASYBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"EASYBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EASYBUY_DB_USER"`
	LegacyPassword string `envconfig:"EASYBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"EASYBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"EASYBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EASYBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EASYBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EASYBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EASYBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"EASYBUY_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EASYBUY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EASYBUY_REDIS_ADDR"`
	Password     string        `envconfig:"EASYBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"EASYBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EASYBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EASYBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EASYBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EASYBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EASYBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EASYBUY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EASYBUY_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"EASYBUY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EASYBUY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"EASYBUY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EASYBUY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"EASYBUY_PUBSUB_ORDERS_TOPIC" default:"easybuy-order-events"`
	SalesTopic               string `envconfig:"EASYBUY_PUBSUB_SALES_TOPIC" default:"easybuy-sale-events"`
	SalesSubscription        string `envconfig:"EASYBUY_PUBSUB_SALES_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"EASYBUY_PUBSUB_NOTIFICATION_TOPIC" default:"easybuy-notification-events"`
	NotificationSubscription string `envconfig:"EASYBUY_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize        int           `envconfig:"EASYBUY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int           `envconfig:"EASYBUY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int           `envconfig:"EASYBUY_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishedMaxAge  time.Duration `envconfig:"EASYBUY_OUTBOX_PUBLISHED_RETENTION" default:"168h"`
	DeadLetterMaxAge time.Duration `envconfig:"EASYBUY_OUTBOX_DLQ_RETENTION" default:"720h"`
}

// PickupConfig drives the slot catalog and the pickup sweeps.
type PickupConfig struct {
	Timezone          string        `envconfig:"EASYBUY_PICKUP_TIMEZONE" default:"Africa/Nairobi"`
	AutoCancelGrace   time.Duration `envconfig:"EASYBUY_PICKUP_AUTO_CANCEL_GRACE" default:"12h"`
	ReminderLookahead time.Duration `envconfig:"EASYBUY_PICKUP_REMINDER_LOOKAHEAD" default:"1h"`
	// Slots overrides the built-in catalog, formatted as "15:30=10,16:30=10".
	Slots string `envconfig:"EASYBUY_PICKUP_SLOTS"`
}

// Location resolves the configured business time zone.
func (p PickupConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading pickup timezone %q: %w", name, err)
	}
	return loc, nil
}

func (p PickupConfig) validate() error {
	if p.AutoCancelGrace <= 0 {
		return fmt.Errorf("%s must be positive", EnvPickupAutoCancelGrace)
	}
	if p.ReminderLookahead <= 0 {
		return fmt.Errorf("%s must be positive", EnvPickupReminderLookahead)
	}
	return nil
}

type SalesConfig struct {
	DebtTermDays    int    `envconfig:"EASYBUY_SALES_DEBT_TERM_DAYS" default:"7"`
	DebtWarningDays int    `envconfig:"EASYBUY_SALES_DEBT_WARNING_DAYS" default:"2"`
	Currency        string `envconfig:"EASYBUY_SALES_CURRENCY" default:"KES"`
}

// SchedulerConfig holds the tick of the cron loop and the cadence of each job.
// A zero cadence disables the job.
type SchedulerConfig struct {
	Tick                      time.Duration `envconfig:"EASYBUY_SCHEDULER_TICK" default:"1m"`
	LockTTL                   time.Duration `envconfig:"EASYBUY_SCHEDULER_LOCK_TTL" default:"10m"`
	JobTimeout                time.Duration `envconfig:"EASYBUY_SCHEDULER_JOB_TIMEOUT" default:"5m"`
	OverdueSalesEvery         time.Duration `envconfig:"EASYBUY_SCHEDULER_OVERDUE_SALES_EVERY" default:"24h"`
	DebtWarningsEvery         time.Duration `envconfig:"EASYBUY_SCHEDULER_DEBT_WARNINGS_EVERY" default:"24h"`
	OverdueRemindersEvery     time.Duration `envconfig:"EASYBUY_SCHEDULER_OVERDUE_REMINDERS_EVERY" default:"24h"`
	MissedPickupsEvery        time.Duration `envconfig:"EASYBUY_SCHEDULER_MISSED_PICKUPS_EVERY" default:"30m"`
	PickupRemindersEvery      time.Duration `envconfig:"EASYBUY_SCHEDULER_PICKUP_REMINDERS_EVERY" default:"30m"`
	NotificationCleanupEvery  time.Duration `envconfig:"EASYBUY_SCHEDULER_NOTIFICATION_CLEANUP_EVERY" default:"24h"`
	OutboxRetentionEvery      time.Duration `envconfig:"EASYBUY_SCHEDULER_OUTBOX_RETENTION_EVERY" default:"24h"`
	NotificationRetentionDays int           `envconfig:"EASYBUY_NOTIFICATION_RETENTION_DAYS" default:"30"`
	BatchSize                 int           `envconfig:"EASYBUY_SCHEDULER_BATCH_SIZE" default:"200"`
}

type MetricsConfig struct {
	Addr string `envconfig:"EASYBUY_METRICS_ADDR" default:":9090"`
}

type HTTPConfig struct {
	IdempotencyTTL time.Duration `envconfig:"EASYBUY_HTTP_IDEMPOTENCY_TTL" default:"24h"`
	CORSOrigins    []string      `envconfig:"EASYBUY_HTTP_CORS_ORIGINS" default:"*"`
	// RateLimit caps commands per caller within RateLimitWindow. Zero disables it.
	RateLimit       int           `envconfig:"EASYBUY_HTTP_RATE_LIMIT" default:"60"`
	RateLimitWindow time.Duration `envconfig:"EASYBUY_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
