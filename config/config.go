// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const minSecretLength = 16

// DatabaseConfig describes one relational store. Users and movies each get
// their own section and therefore their own connection pool.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // "postgres" (lib/pq), "pgx" or "memory"
	URL             string `yaml:"url"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	SSLMode         string `yaml:"sslmode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
	TimeoutMS       int    `yaml:"timeout_ms"`
}

// DSN returns the connection URL, preferring an explicit one. Both lib/pq
// and pgx accept the postgres:// form.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.DBName,
	}
	switch {
	case d.Password != "":
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	q := u.Query()
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Timeout is the per-query deadline.
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

type Config struct {
	Server struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	API struct {
		BasePath    string `yaml:"base_path"`
		SwaggerHost string `yaml:"swagger_host"`
	} `yaml:"api"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Log struct {
		Verbosity int `yaml:"verbosity"`
	} `yaml:"log"`

	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		Issuer     string `yaml:"issuer"`
		TokenTTL   int    `yaml:"token_ttl"` // seconds
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	Redis struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		DB         int    `yaml:"db"`
		Password   string `yaml:"password"`
		KeyPrefix  string `yaml:"key_prefix"`
		SessionTTL int    `yaml:"session_ttl"` // seconds
		TimeoutMS  int    `yaml:"timeout_ms"`
	} `yaml:"redis"`

	Database struct {
		AutoMigrate bool           `yaml:"auto_migrate"`
		Users       DatabaseConfig `yaml:"users"`
		Movies      DatabaseConfig `yaml:"movies"`
	} `yaml:"database"`
}

// TokenTTL is the validity window of issued tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Second
}

// SessionTTL is the lifetime of a session marker in Redis.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Redis.SessionTTL) * time.Second
}

// RedisTimeout bounds every session store call.
func (c *Config) RedisTimeout() time.Duration {
	return time.Duration(c.Redis.TimeoutMS) * time.Millisecond
}

// RedisAddr is host:port of the session store.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return config, nil
}

// Default returns a configuration with only defaults and environment
// overrides applied, for running without a config file.
func Default() (*Config, error) {
	config := &Config{}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "movieapi"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 600
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "session:"
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = 600
	}
	if c.Redis.TimeoutMS == 0 {
		c.Redis.TimeoutMS = 2000
	}
	setDatabaseDefaults(&c.Database.Users, "users")
	setDatabaseDefaults(&c.Database.Movies, "movies")
}

func setDatabaseDefaults(d *DatabaseConfig, name string) {
	if d.Driver == "" {
		d.Driver = "postgres"
	}
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.DBName == "" {
		d.DBName = name
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = 20
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = 10
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = 1800
	}
	if d.TimeoutMS == 0 {
		d.TimeoutMS = 5000
	}
}

// applyEnv lets the deployment environment supply the secrets and
// connection strings instead of the config file.
func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("BCRYPT_ROUNDS")); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_ROUNDS %q: %v", v, err)
		}
		c.Auth.BcryptCost = cost
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		opts, err := redis.ParseURL(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		host, port, err := splitHostPort(opts.Addr)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		c.Redis.Host = host
		c.Redis.Port = port
		c.Redis.DB = opts.DB
		c.Redis.Password = opts.Password
	}
	if v := strings.TrimSpace(os.Getenv("USERS_DATABASE_URL")); v != "" {
		c.Database.Users.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVIES_DATABASE_URL")); v != "" {
		c.Database.Movies.URL = v
	}
	return nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("bad port in %q", addr)
	}
	return host, port, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLength)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.TokenTTL <= 0 || c.Redis.SessionTTL <= 0 {
		return errors.New("token_ttl and session_ttl must be positive")
	}
	for _, d := range []DatabaseConfig{c.Database.Users, c.Database.Movies} {
		switch d.Driver {
		case "postgres", "pgx", "memory":
		default:
			return fmt.Errorf("unsupported database driver %q", d.Driver)
		}
	}
	return nil
}
