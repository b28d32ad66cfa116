package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration
type Config struct {
	App struct {
		Name        string `mapstructure:"name"`
		Environment string `mapstructure:"environment"`
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	HTTP struct {
		Port           string        `mapstructure:"port"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
	} `mapstructure:"http"`

	GRPC struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"grpc"`

	Postgres struct {
		Host        string `mapstructure:"host"`
		Port        string `mapstructure:"port"`
		User        string `mapstructure:"user"`
		Password    string `mapstructure:"password"`
		DBName      string `mapstructure:"dbname"`
		SSLMode     string `mapstructure:"sslmode"`
		MaxOpen     int    `mapstructure:"max_open_conns"`
		MaxIdle     int    `mapstructure:"max_idle_conns"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"postgres"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		Required  bool   `mapstructure:"required"`
	} `mapstructure:"auth"`

	Tracing struct {
		Enabled        bool    `mapstructure:"enabled"`
		JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
		SampleRatio    float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"tracing"`

	Orders struct {
		ConfirmLockTTL time.Duration `mapstructure:"confirm_lock_ttl"`
		Sequence       string        `mapstructure:"sequence"`
	} `mapstructure:"orders"`
}

// EnvPrefix is prepended to every environment override, e.g. WAREHOUSE_POSTGRES_HOST
const EnvPrefix = "WAREHOUSE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "warehouse-service")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", 30*time.Second)
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("grpc.port", "9090")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "warehouse")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.auto_migrate", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.group_id", "ledger-audit")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.required", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("orders.confirm_lock_ttl", 30*time.Second)
	v.SetDefault("orders.sequence", "database")
}

// Load reads an optional config file and environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return c, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}

	c.Kafka.Brokers = splitList(c.Kafka.Brokers)
	c.HTTP.AllowedOrigins = splitList(c.HTTP.AllowedOrigins)

	return c, c.Validate()
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.Orders.Sequence {
	case "database":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("orders.sequence=redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown orders.sequence %q", c.Orders.Sequence)
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("auth.required needs auth.jwt_secret")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode
func (c Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// env values arrive as a single comma separated string
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
