package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Bootstrap is read from the environment before the config file.
type Bootstrap struct {
	ConfigFile string `envconfig:"CONFIG_FILE"`
	Env        string `envconfig:"ENV" default:"development"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Grid     GridConfig     `mapstructure:"grid"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`

	RateLimit struct {
		Enabled           bool    `mapstructure:"enabled"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
	Monitoring struct {
		PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
		MetricsPath       string `mapstructure:"metrics_path"`
	} `mapstructure:"monitoring"`

	Env string `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StoreConfig picks the collaborator backend: "http" or "postgres".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// Origin names this process on the event bus.
	Origin string `mapstructure:"origin"`
}

type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CatalogPath string        `mapstructure:"catalog_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type CatalogConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type ScheduleConfig struct {
	BusinessOpenHour  int           `mapstructure:"business_open_hour"`
	BusinessCloseHour int           `mapstructure:"business_close_hour"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	Timezone          string        `mapstructure:"timezone"`
}

type GridConfig struct {
	DayStartHour    int     `mapstructure:"day_start_hour"`
	DayEndHour      int     `mapstructure:"day_end_hour"`
	PixelsPerMinute float64 `mapstructure:"pixels_per_minute"`
	TopOffset       float64 `mapstructure:"top_offset"`
	MinHeight       float64 `mapstructure:"min_height"`
	MonthCellCap    int     `mapstructure:"month_cell_cap"`
	WeekStart       string  `mapstructure:"week_start"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type MailConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	FrontDesk string `mapstructure:"front_desk"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Location resolves the configured timezone, defaulting to local time.
func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Weekday parses the configured week start, defaulting to Monday.
func (c GridConfig) Weekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(c.WeekStart, d.String()) {
			return d
		}
	}
	return time.Monday
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("store.driver", "http")
	v.SetDefault("store.origin", "scheduler")

	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.catalog_path", "/service-table")
	v.SetDefault("api.token", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("catalog.cache_ttl", 5*time.Minute)

	v.SetDefault("schedule.business_open_hour", 8)
	v.SetDefault("schedule.business_close_hour", 17)
	v.SetDefault("schedule.refresh_interval", time.Minute)
	v.SetDefault("schedule.fetch_timeout", 10*time.Second)
	v.SetDefault("schedule.timezone", "Local")

	v.SetDefault("grid.day_start_hour", 8)
	v.SetDefault("grid.day_end_hour", 18)
	v.SetDefault("grid.pixels_per_minute", 1.0)
	v.SetDefault("grid.top_offset", 0.0)
	v.SetDefault("grid.min_height", 20.0)
	v.SetDefault("grid.month_cell_cap", 3)
	v.SetDefault("grid.week_start", "Monday")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", "scheduler.appointments")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.front_desk", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// LoadConfig loads .env, the bootstrap environment and then the config
// file. A missing config file is not an error; defaults and SCHEDULER_*
// environment variables still apply.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var boot Bootstrap
	if err := envconfig.Process("scheduler", &boot); err != nil {
		return nil, fmt.Errorf("failed to read bootstrap environment: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("scheduler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if boot.ConfigFile != "" {
		v.SetConfigFile(boot.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/clinic-scheduler")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = boot.Env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Schedule.BusinessOpenHour < 0 || c.Schedule.BusinessCloseHour > 24 ||
		c.Schedule.BusinessOpenHour >= c.Schedule.BusinessCloseHour {
		return fmt.Errorf("invalid business hours %d-%d", c.Schedule.BusinessOpenHour, c.Schedule.BusinessCloseHour)
	}
	if c.Grid.DayStartHour < 0 || c.Grid.DayEndHour > 24 || c.Grid.DayStartHour >= c.Grid.DayEndHour {
		return fmt.Errorf("invalid grid hours %d-%d", c.Grid.DayStartHour, c.Grid.DayEndHour)
	}
	switch c.Store.Driver {
	case "http", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis is enabled")
	}
	return nil
}
