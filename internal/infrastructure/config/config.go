package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendDynamoDB Backend = "dynamodb"
	BackendRedis    Backend = "redis"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Port              string        `yaml:"port"`
	Region            string        `yaml:"region"`
	TableName         string        `yaml:"table_name"`
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	BcryptCost        int           `yaml:"bcrypt_cost"`
	StoreBackend      Backend       `yaml:"store_backend"`
	RevocationBackend Backend       `yaml:"revocation_backend"`
	Redis             RedisConfig   `yaml:"redis"`
	LogLevel          string        `yaml:"log_level"`
	AdminEmail        string        `yaml:"admin_email"`
	AdminPassword     string        `yaml:"admin_password"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		TokenTTL:          24 * time.Hour,
		BcryptCost:        10,
		StoreBackend:      BackendMemory,
		RevocationBackend: BackendMemory,
		Redis:             RedisConfig{Addr: "127.0.0.1:6379"},
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any), then environment variables, in that order.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Region, "AWS_REGION")
	setString(&cfg.TableName, "TABLE_NAME")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.AdminEmail, "BOOTSTRAP_ADMIN_EMAIL")
	setString(&cfg.AdminPassword, "BOOTSTRAP_ADMIN_PASSWORD")

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = Backend(v)
	}
	if v := os.Getenv("REVOCATION_BACKEND"); v != "" {
		cfg.RevocationBackend = Backend(v)
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = cost
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("invalid store backend %q", c.StoreBackend)
	}
	switch c.RevocationBackend {
	case BackendMemory, BackendDynamoDB, BackendRedis:
	default:
		return fmt.Errorf("invalid revocation backend %q", c.RevocationBackend)
	}
	if c.NeedsDynamoDB() && (c.TableName == "" || c.Region == "") {
		return errors.New("TABLE_NAME and AWS_REGION are required for the dynamodb backend")
	}
	if c.RevocationBackend == BackendRedis && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required for the redis revocation backend")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// NeedsDynamoDB reports whether any backend requires a DynamoDB client.
func (c Config) NeedsDynamoDB() bool {
	return c.StoreBackend == BackendDynamoDB || c.RevocationBackend == BackendDynamoDB
}
