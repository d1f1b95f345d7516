package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tracking_system"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// TrackingConfig exposes the core cadences and thresholds. The read-back
// verification knobs are tunable by design, not a compatibility contract.
type TrackingConfig struct {
	ReportInterval     time.Duration `env:"REPORT_INTERVAL,      default=30s"`
	ReportInitialDelay time.Duration `env:"REPORT_INITIAL_DELAY, default=2s"`
	VerifyEvery        int           `env:"VERIFY_EVERY,         default=5"`
	VerifyEpsilonDeg   float64       `env:"VERIFY_EPSILON_DEG,   default=0.0001"`

	AcquirePollInterval time.Duration `env:"ACQUIRE_POLL_INTERVAL, default=10s"`

	ProximityEnabled bool    `env:"PROXIMITY_ENABLED, default=true"`
	DebounceMeters   float64 `env:"DEBOUNCE_METERS,   default=10"`

	NotificationPollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL, default=30s"`
	FeedCapacity             int           `env:"FEED_CAPACITY,              default=50"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
