package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	EarthEngine EarthEngineConfig `mapstructure:"earthengine"`
	Sampling    SamplingConfig    `mapstructure:"sampling"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// EarthEngineConfig selects the remote project and how to authenticate.
// CredentialsFile wins over AccessToken when both are set.
type EarthEngineConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Project         string `mapstructure:"project"`
	AccessToken     string `mapstructure:"access_token"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Timeout         int    `mapstructure:"timeout"`
}

func (e EarthEngineConfig) TimeoutDuration() time.Duration {
	return time.Duration(e.Timeout) * time.Second
}

type SamplingConfig struct {
	Scale     float64 `mapstructure:"scale"`
	NumPixels int     `mapstructure:"num_pixels"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SITESCOUT_EARTHENGINE_PROJECT → earthengine.project
	v.SetEnvPrefix("SITESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 75)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sitescout")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sitescout")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("earthengine.base_url", "https://earthengine.googleapis.com")
	v.SetDefault("earthengine.project", "")
	v.SetDefault("earthengine.access_token", "")
	v.SetDefault("earthengine.credentials_file", "")
	v.SetDefault("earthengine.timeout", 45)
	v.SetDefault("sampling.scale", 5000)
	v.SetDefault("sampling.num_pixels", 500)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "site-analysis")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.EarthEngine.BaseURL == "" {
		errs = append(errs, "earthengine.base_url is required")
	}
	if c.EarthEngine.Timeout <= 0 {
		errs = append(errs, "earthengine.timeout must be positive")
	}
	if c.Sampling.Scale <= 0 {
		errs = append(errs, "sampling.scale must be positive")
	}
	if c.Sampling.NumPixels <= 0 {
		errs = append(errs, "sampling.num_pixels must be positive")
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, "cache.ttl_seconds must not be negative")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireEarthEngine reports whether enough is set to call the remote API.
// Only the processes that run analyses need it. A credentials file may
// supply the project itself.
func (c *Config) RequireEarthEngine() error {
	if c.EarthEngine.AccessToken == "" && c.EarthEngine.CredentialsFile == "" {
		return fmt.Errorf("earthengine.access_token or earthengine.credentials_file is required")
	}
	if c.EarthEngine.Project == "" && c.EarthEngine.CredentialsFile == "" {
		return fmt.Errorf("earthengine.project is required")
	}
	return nil
}
