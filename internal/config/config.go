package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Persistence backends the server can run against. Memory keeps everything in
// process and is the default for local development and tests.
const (
	PersistenceMemory = "memory"
	PersistenceMySQL  = "mysql"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	Env         string `yaml:"env"`
	Addr        string `yaml:"addr"`

	Persistence string `yaml:"persistence"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	RedisAddr   string `yaml:"redis_addr"`

	JWTSecret  string        `yaml:"jwt_secret"`
	JWTTTL     time.Duration `yaml:"jwt_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`

	Seed SeedConfig `yaml:"seed"`
}

// SeedConfig bounds the admin mock-data endpoints.
type SeedConfig struct {
	MaxUsers    int `yaml:"max_users"`
	MaxProducts int `yaml:"max_products"`
}

func Default() Config {
	return Config{
		ServiceName: "shopapi",
		Env:         "dev",
		Addr:        ":8080",
		Persistence: PersistenceMemory,
		RedisAddr:   "",
		JWTSecret:   "",
		JWTTTL:      24 * time.Hour,
		BcryptCost:  10,
		Seed: SeedConfig{
			MaxUsers:    500,
			MaxProducts: 500,
		},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides on top. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ServiceName, "SERVICE_NAME")
	setString(&c.Env, "ENV")
	setString(&c.Addr, "ADDR")
	setString(&c.Persistence, "PERSISTENCE")
	setString(&c.MySQLDSN, "MYSQL_DSN")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.JWTTTL = d
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BcryptCost = n
		}
	}
}

func (c *Config) validate() error {
	switch c.Persistence {
	case PersistenceMemory, PersistenceMySQL:
	default:
		return fmt.Errorf("config: unknown persistence backend %q", c.Persistence)
	}
	if c.Persistence == PersistenceMySQL && c.MySQLDSN == "" {
		return fmt.Errorf("config: mysql persistence requires mysql_dsn")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt_secret is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
