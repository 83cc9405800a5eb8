package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RentalBee/service-rental/internal/common/config"
)

// Notification inbox backends.
const (
	NotificationStorePostgres = "postgres"
	NotificationStoreMongo    = "mongo"
)

// RedisConfig holds the catalogue cache settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// MongoConfig holds the document store used by the mongo notification inbox.
type MongoConfig struct {
	URI      string
	Database string
}

// DispatcherConfig sizes the background notification workers.
type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	MaxRetries uint64
}

// PolicyConfig holds the booking time rules.
type PolicyConfig struct {
	MinAdvance       time.Duration
	FreeCancelWindow time.Duration
	OneWayFeeCents   int64
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	CORSOrigins       []string
	SecureCookies     bool
	DBConfig          config.DatabaseConfig
	JWTConfig         config.JWTConfig
	KafkaConfig       config.KafkaConfig
	RedisConfig       RedisConfig
	MongoConfig       MongoConfig
	NotificationStore string
	Dispatcher        DispatcherConfig
	Policy            PolicyConfig
}

// IsDevelopment reports whether the service runs on a developer machine.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		CORSOrigins:   config.SplitList(v.GetString("CORS_ORIGINS")),
		SecureCookies: v.GetBool("SECURE_COOKIES"),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		RedisConfig: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		MongoConfig: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		NotificationStore: strings.ToLower(v.GetString("NOTIFICATION_STORE")),
		Dispatcher: DispatcherConfig{
			Workers:    v.GetInt("DISPATCHER_WORKERS"),
			QueueSize:  v.GetInt("DISPATCHER_QUEUE_SIZE"),
			MaxRetries: v.GetUint64("DISPATCHER_MAX_RETRIES"),
		},
		Policy: PolicyConfig{
			MinAdvance:       v.GetDuration("POLICY_MIN_ADVANCE"),
			FreeCancelWindow: v.GetDuration("POLICY_FREE_CANCEL_WINDOW"),
			OneWayFeeCents:   v.GetInt64("POLICY_ONE_WAY_FEE_CENTS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "10m")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "rental")
	v.SetDefault("NOTIFICATION_STORE", NotificationStorePostgres)
	v.SetDefault("DISPATCHER_WORKERS", 4)
	v.SetDefault("DISPATCHER_QUEUE_SIZE", 256)
	v.SetDefault("DISPATCHER_MAX_RETRIES", 3)
	v.SetDefault("POLICY_MIN_ADVANCE", "24h")
	v.SetDefault("POLICY_FREE_CANCEL_WINDOW", "12h")
	v.SetDefault("POLICY_ONE_WAY_FEE_CENTS", 2500)
}

func (c *ServiceConfig) validate() error {
	switch c.NotificationStore {
	case NotificationStorePostgres, NotificationStoreMongo:
	default:
		return fmt.Errorf("unknown notification store %q", c.NotificationStore)
	}
	if c.Dispatcher.Workers < 1 || c.Dispatcher.QueueSize < 1 {
		return fmt.Errorf("dispatcher needs at least one worker and a queue")
	}
	if c.Policy.MinAdvance < 0 || c.Policy.FreeCancelWindow < 0 {
		return fmt.Errorf("booking policy durations must not be negative")
	}
	if !c.IsDevelopment() && c.JWTConfig.Secret == "change-me" {
		return fmt.Errorf("RENTAL_JWT_SECRET must be set outside development")
	}
	return nil
}
