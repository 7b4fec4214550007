package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // display timezones resolve in minimal images

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string    `yaml:"environment" default:"development" validate:"required"`
	Server      Server    `yaml:"server"`
	Database    Database  `yaml:"database"`
	Cache       Cache     `yaml:"cache"`
	Log         Log       `yaml:"log"`
	Metrics     Metrics   `yaml:"metrics"`
	Analytics   Analytics `yaml:"analytics"`
}

type Server struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"5s" validate:"gt=0"`
	AllowOrigins    string        `yaml:"allow_origins" default:"*"`
}

type Database struct {
	URL            string        `yaml:"url"`
	MaxConns       int32         `yaml:"max_conns" default:"10" validate:"gt=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s" validate:"gt=0"`
	RetryAttempts  int           `yaml:"retry_attempts" default:"3" validate:"gte=1,lte=10"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" default:"100ms" validate:"gte=0"`
}

type Cache struct {
	Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered none"`
	TTL           time.Duration `yaml:"ttl" default:"30s" validate:"gte=0"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000" validate:"gt=0"`
	CleanupEvery  time.Duration `yaml:"cleanup_interval" default:"1m" validate:"gt=0"`
	Redis         Redis         `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" default:"nutricycle"`
	PoolSize int    `yaml:"pool_size" default:"10" validate:"gt=0"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type Analytics struct {
	EquivalenceVersion string  `yaml:"equivalence_version" default:"v2" validate:"oneof=v1 v2"`
	DisplayTimezone    string  `yaml:"display_timezone" default:"UTC" validate:"timezone"`
	DefaultTankVolume  float64 `yaml:"default_tank_volume" default:"50" validate:"gt=0"`
	DefaultSoilVolume  float64 `yaml:"default_soil_volume" default:"20" validate:"gte=0"`
	FleetConcurrency   int     `yaml:"fleet_concurrency" default:"8" validate:"gte=1,lte=64"`
	RecentLogsLimit    int     `yaml:"recent_logs_limit" default:"10" validate:"gte=1,lte=100"`
}

// Location resolves the display timezone.
func (a Analytics) Location() (*time.Location, error) {
	return time.LoadLocation(a.DisplayTimezone)
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	return c
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	// .env is optional; the process environment is enough
	_ = godotenv.Load()

	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("GO_ENV", c.Environment)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Server.AllowOrigins = getEnv("ALLOW_ORIGINS", c.Server.AllowOrigins)
	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Redis.Addr = getEnv("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Analytics.EquivalenceVersion = getEnv("EQUIVALENCE_VERSION", c.Analytics.EquivalenceVersion)
	c.Analytics.DisplayTimezone = getEnv("DISPLAY_TIMEZONE", c.Analytics.DisplayTimezone)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = ttl
	}
	return nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return errors.New("cache.redis.addr is required for the redis backend")
	}
	if c.Analytics.DefaultSoilVolume*0.21 >= c.Analytics.DefaultTankVolume {
		return errors.New("analytics: default soil volume leaves no headspace in the default tank")
	}
	return nil
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
