package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Store       StoreConfig       `yaml:"store"`
	Advisor     AdvisorConfig     `yaml:"advisor"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Cache       CacheConfig       `yaml:"cache"`
	Recurring   RecurringConfig   `yaml:"recurring"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Firebase    FirebaseConfig    `yaml:"firebase"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8111"`
	AllowedOrigins  []string      `yaml:"allowed_origins"  env:"CORS_ALLOWED_ORIGINS"    env-default:"http://localhost:1234,http://127.0.0.1:1234"`
	SkipAuth        bool          `yaml:"skip_auth"        env:"SKIP_AUTH"               env-default:"false"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Store drivers.
const (
	DriverMemory    = "memory"
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver            string        `yaml:"driver"              env:"STORE_DRIVER"          env-default:"memory"`
	FirestoreProject  string        `yaml:"firestore_project"   env:"GOOGLE_CLOUD_PROJECT"`
	PostgresDSN       string        `yaml:"postgres_dsn"        env:"DATABASE_DSN"`
	MaxConns          int32         `yaml:"max_conns"           env:"DATABASE_MAX_CONNS"    env-default:"10"`
	MinConns          int32         `yaml:"min_conns"           env:"DATABASE_MIN_CONNS"    env-default:"2"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime"   env:"DATABASE_MAX_CONN_LIFETIME" env-default:"1h"`
	SeedMemoryOnStart bool          `yaml:"seed_memory_on_start" env:"SEED_MEMORY_ON_START" env-default:"true"`
}

// AdvisorConfig configures the chat-completion provider.
type AdvisorConfig struct {
	BaseURL     string        `yaml:"base_url"    env:"OPENAI_BASE_URL"    env-default:"https://api.openai.com/v1"`
	APIKey      string        `yaml:"api_key"     env:"OPENAI_API_KEY"`
	Model       string        `yaml:"model"       env:"OPENAI_MODEL"       env-default:"gpt-4o"`
	Temperature float64       `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.7"`
	Timeout     time.Duration `yaml:"timeout"     env:"OPENAI_TIMEOUT"     env-default:"30s"`
}

// BreakerConfig configures every circuit breaker in the registry.
type BreakerConfig struct {
	FailureThreshold    int           `yaml:"failure_threshold"      env:"BREAKER_FAILURE_THRESHOLD"      env-default:"3"`
	ResetTimeout        time.Duration `yaml:"reset_timeout"          env:"BREAKER_RESET_TIMEOUT"          env-default:"5m"`
	HalfOpenMaxAttempts int           `yaml:"half_open_max_attempts" env:"BREAKER_HALF_OPEN_MAX_ATTEMPTS" env-default:"3"`
}

// CacheConfig sizes the namespaced TTL cache.
type CacheConfig struct {
	Size                 int           `yaml:"size"                   env:"CACHE_SIZE"                   env-default:"10000"`
	TransactionsTTL      time.Duration `yaml:"transactions_ttl"       env:"CACHE_TRANSACTIONS_TTL"       env-default:"6m"`
	CategoryRecommendTTL time.Duration `yaml:"category_recommend_ttl" env:"CACHE_CATEGORY_RECOMMEND_TTL" env-default:"720h"`
	OffersRecommendTTL   time.Duration `yaml:"offers_recommend_ttl"   env:"CACHE_OFFERS_RECOMMEND_TTL"   env-default:"168h"`
	QuickInsightsTTL     time.Duration `yaml:"quick_insights_ttl"     env:"CACHE_QUICK_INSIGHTS_TTL"     env-default:"24h"`
}

// RecurringConfig holds the recurring-payment detector defaults.
type RecurringConfig struct {
	MonthsBack    int     `yaml:"months_back"    env:"RECURRING_MONTHS_BACK"    env-default:"6"`
	AmountBand    int     `yaml:"amount_band"    env:"RECURRING_AMOUNT_BAND"    env-default:"10"`
	MinMonths     int     `yaml:"min_months"     env:"RECURRING_MIN_MONTHS"     env-default:"2"`
	MinTxCount    int     `yaml:"min_tx_count"   env:"RECURRING_MIN_TX_COUNT"   env-default:"3"`
	MinConfidence float64 `yaml:"min_confidence" env:"RECURRING_MIN_CONFIDENCE" env-default:"0.6"`
}

// MaintenanceConfig drives the schedule cleanup job.
type MaintenanceConfig struct {
	Retention      time.Duration `yaml:"retention"       env:"MAINTENANCE_RETENTION"       env-default:"2160h"`
	UpcomingWindow time.Duration `yaml:"upcoming_window" env:"MAINTENANCE_UPCOMING_WINDOW" env-default:"1h"`
}

// FirebaseConfig enables Firebase auth and push.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file" env:"FIREBASE_SERVICE_ACCOUNT_KEY"`
	PushEnabled     bool   `yaml:"push_enabled"     env:"PUSH_ENABLED" env-default:"false"`

	// CheckRevoked also rejects ID tokens of revoked sessions, at the cost of
	// a Firebase round trip per request.
	CheckRevoked bool `yaml:"check_revoked" env:"FIREBASE_CHECK_REVOKED" env-default:"false"`
}
