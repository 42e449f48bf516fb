package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production
const DefaultJWTSecret = "smartspace-development-secret-change-me"

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Processor  ProcessorConfig
	Analytics  AnalyticsConfig
	MQTT       MQTTConfig
	ClickHouse ClickHouseConfig
	Storage    StorageConfig
	Export     ExportConfig
	Telemetry  TelemetryConfig
	Swagger    SwaggerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	SeedDemo bool // create the demo company on startup when it is missing
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Path            string // sqlite file path, ":memory:" for tests
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SwaggerConfig controls the /swagger documentation endpoint
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string // addresses or CIDR ranges; empty allows all
}

// ProcessorConfig controls the background analytics cycle
type ProcessorConfig struct {
	Enabled           bool
	Interval          time.Duration // time between cycles
	RetryDelay        time.Duration // wait before retrying a failed cycle
	MaxRetries        int
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
}

// AnalyticsConfig sizes the synthetic training runs
type AnalyticsConfig struct {
	Seed                uint64
	SpaceSamples        int
	SpaceEstimators     int
	EnergySamples       int
	EnergyGBEstimators  int
	EnergyRFEstimators  int
	TrainingWorkers     int
	TrainingStartOffset time.Duration // training data begins this long before startup
}

// MQTTConfig holds sensor broker settings
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	KeepAlive   time.Duration
}

// ClickHouseConfig holds the time-series archive settings
type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	Username string
	Password string
}

// StorageConfig holds S3-compatible report archive settings
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
}

// ExportConfig controls report rendering
type ExportConfig struct {
	PDFEnabled    bool
	ChromePath    string
	RenderTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry, Prometheus and profiling configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	PrometheusEnabled bool
	ProfilingEnabled  bool
	PyroscopeAddress  string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SMARTSPACE_ prefix (e.g., SMARTSPACE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SMARTSPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setBoolDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			SeedDemo: v.GetBool("app.seed_demo"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Processor: ProcessorConfig{
			Enabled:           v.GetBool("processor.enabled"),
			Interval:          v.GetDuration("processor.interval"),
			RetryDelay:        v.GetDuration("processor.retry_delay"),
			MaxRetries:        v.GetInt("processor.max_retries"),
			MaxConcurrentJobs: v.GetInt("processor.max_concurrent_jobs"),
			QueueSize:         v.GetInt("processor.queue_size"),
			JobTimeout:        v.GetDuration("processor.job_timeout"),
		},
		Analytics: AnalyticsConfig{
			Seed:                v.GetUint64("analytics.seed"),
			SpaceSamples:        v.GetInt("analytics.space_samples"),
			SpaceEstimators:     v.GetInt("analytics.space_estimators"),
			EnergySamples:       v.GetInt("analytics.energy_samples"),
			EnergyGBEstimators:  v.GetInt("analytics.energy_gb_estimators"),
			EnergyRFEstimators:  v.GetInt("analytics.energy_rf_estimators"),
			TrainingWorkers:     v.GetInt("analytics.training_workers"),
			TrainingStartOffset: v.GetDuration("analytics.training_start_offset"),
		},
		MQTT: MQTTConfig{
			Enabled:     v.GetBool("mqtt.enabled"),
			Broker:      v.GetString("mqtt.broker"),
			ClientID:    v.GetString("mqtt.client_id"),
			Username:    v.GetString("mqtt.username"),
			Password:    v.GetString("mqtt.password"),
			TopicPrefix: v.GetString("mqtt.topic_prefix"),
			QoS:         byte(v.GetUint("mqtt.qos")),
			KeepAlive:   v.GetDuration("mqtt.keep_alive"),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  v.GetBool("clickhouse.enabled"),
			Addr:     v.GetString("clickhouse.addr"),
			Database: v.GetString("clickhouse.database"),
			Username: v.GetString("clickhouse.username"),
			Password: v.GetString("clickhouse.password"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
		},
		Export: ExportConfig{
			PDFEnabled:    v.GetBool("export.pdf_enabled"),
			ChromePath:    v.GetString("export.chrome_path"),
			RenderTimeout: v.GetDuration("export.render_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			PrometheusEnabled: v.GetBool("telemetry.prometheus_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setBoolDefaults registers switches that are on unless explicitly disabled
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("app.seed_demo", true)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("processor.enabled", true)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("telemetry.prometheus_enabled", true)
	v.SetDefault("storage.use_path_style", true)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "smartspace-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "smartspace.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "smartspace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = 30 * time.Second
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = DefaultJWTSecret
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 7 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "smartspace-backend"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Processor.Interval == 0 {
		cfg.Processor.Interval = 30 * time.Second
	}
	if cfg.Processor.RetryDelay == 0 {
		cfg.Processor.RetryDelay = 60 * time.Second
	}
	if cfg.Processor.MaxRetries == 0 {
		cfg.Processor.MaxRetries = 3
	}
	if cfg.Processor.MaxConcurrentJobs == 0 {
		cfg.Processor.MaxConcurrentJobs = 2
	}
	if cfg.Processor.QueueSize == 0 {
		cfg.Processor.QueueSize = 32
	}
	if cfg.Processor.JobTimeout == 0 {
		cfg.Processor.JobTimeout = 25 * time.Second
	}

	if cfg.Analytics.Seed == 0 {
		cfg.Analytics.Seed = 42
	}
	if cfg.Analytics.SpaceSamples == 0 {
		cfg.Analytics.SpaceSamples = 6000
	}
	if cfg.Analytics.SpaceEstimators == 0 {
		cfg.Analytics.SpaceEstimators = 120
	}
	if cfg.Analytics.EnergySamples == 0 {
		cfg.Analytics.EnergySamples = 8000
	}
	if cfg.Analytics.EnergyGBEstimators == 0 {
		cfg.Analytics.EnergyGBEstimators = 150
	}
	if cfg.Analytics.EnergyRFEstimators == 0 {
		cfg.Analytics.EnergyRFEstimators = 60
	}
	if cfg.Analytics.TrainingStartOffset == 0 {
		cfg.Analytics.TrainingStartOffset = 365 * 24 * time.Hour
	}

	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://localhost:1883"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "smartspace-backend"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "smartspace"
	}
	if cfg.MQTT.QoS == 0 {
		cfg.MQTT.QoS = 1
	}
	if cfg.MQTT.KeepAlive == 0 {
		cfg.MQTT.KeepAlive = 60 * time.Second
	}

	if cfg.ClickHouse.Addr == "" {
		cfg.ClickHouse.Addr = "localhost:9000"
	}
	if cfg.ClickHouse.Database == "" {
		cfg.ClickHouse.Database = "default"
	}
	if cfg.ClickHouse.Username == "" {
		cfg.ClickHouse.Username = "default"
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "smartspace-reports"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}

	if cfg.Export.RenderTimeout == 0 {
		cfg.Export.RenderTimeout = 30 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.PyroscopeAddress == "" {
		cfg.Telemetry.PyroscopeAddress = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Processor.Interval <= 0 || c.Processor.RetryDelay <= 0 {
		return fmt.Errorf("processor.interval and processor.retry_delay must be positive")
	}
	if c.Processor.MaxRetries < 0 {
		return fmt.Errorf("processor.max_retries cannot be negative")
	}
	if c.Analytics.SpaceSamples < 50 || c.Analytics.EnergySamples < 50 {
		return fmt.Errorf("analytics sample counts must be at least 50")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == DefaultJWTSecret {
			return fmt.Errorf("jwt.secret must be set in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have an IP restriction in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsSQLite reports whether the embedded driver is selected
func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}
