package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cartstore/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type PsqlConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Sslmode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Env           string        `mapstructure:"env"`
	Port          int           `mapstructure:"port"`
	StaticDir     string        `mapstructure:"static_dir"`
	CheckoutURL   string        `mapstructure:"checkout_url"`
	SessionCookie string        `mapstructure:"session_cookie"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
}

type PricingConfig struct {
	TaxRate          string `mapstructure:"tax_rate"`
	FreeShippingOver string `mapstructure:"free_shipping_over"`
	FlatShipping     string `mapstructure:"flat_shipping"`
}

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Psql    PsqlConfig    `mapstructure:"psql_conn"`
	Pricing PricingConfig `mapstructure:"pricing"`
}

// Load reads .env, then config.yaml from CONFIG_PATH or the working
// directory, then environment overrides such as HTTP_PORT or STORAGE_DRIVER.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error reading .env file, %s\n", err)
		return nil, err
	}

	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom reads the config file at path. An empty path searches for
// config.yaml in the working directory and tolerates its absence.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			log.Printf("Error reading config file, %s\n", err)
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Unable to decode into struct, %v\n", err)
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.env", EnvLocal)
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.static_dir", "")
	v.SetDefault("http.checkout_url", "checkout.html")
	v.SetDefault("http.session_cookie", "cart_session")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.key", "cart")

	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.ttl", 0)

	v.SetDefault("psql_conn.user", "postgres")
	v.SetDefault("psql_conn.password", "")
	v.SetDefault("psql_conn.host", "localhost")
	v.SetDefault("psql_conn.port", 5432)
	v.SetDefault("psql_conn.database", "cartstore")
	v.SetDefault("psql_conn.sslmode", "disable")

	v.SetDefault("pricing.tax_rate", "0.10")
	v.SetDefault("pricing.free_shipping_over", "100")
	v.SetDefault("pricing.flat_shipping", "15")
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("config: storage.key must not be empty")
	}

	if _, err := c.PricingRules(); err != nil {
		return err
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Psql.User, c.Psql.Password, c.Psql.Host, c.Psql.Port, c.Psql.Database, c.Psql.Sslmode)
}

// PricingRules converts the pricing section into summary rules.
func (c *Config) PricingRules() (models.Pricing, error) {
	taxRate, err := decimal.NewFromString(c.Pricing.TaxRate)
	if err != nil {
		return models.Pricing{}, fmt.Errorf("config: pricing.tax_rate: %w", err)
	}
	freeOver, err := decimal.NewFromString(c.Pricing.FreeShippingOver)
	if err != nil {
		return models.Pricing{}, fmt.Errorf("config: pricing.free_shipping_over: %w", err)
	}
	flat, err := decimal.NewFromString(c.Pricing.FlatShipping)
	if err != nil {
		return models.Pricing{}, fmt.Errorf("config: pricing.flat_shipping: %w", err)
	}

	if taxRate.IsNegative() || freeOver.IsNegative() || flat.IsNegative() {
		return models.Pricing{}, errors.New("config: pricing values must not be negative")
	}

	return models.Pricing{
		TaxRate:          taxRate,
		FreeShippingOver: freeOver,
		FlatShipping:     flat,
	}, nil
}
