package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moodsync/server/internal/pg"
	"github.com/moodsync/server/internal/security"
	"github.com/moodsync/server/pkg/logger"
)

const DefaultPath = "./config/config.yaml"

type HTTP struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes      int64         `yaml:"maxBodyBytes"`
}

// GRPC is optional: an empty addr disables the health server.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // moodsync
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

func (l Logging) ToLoggerConfig() logger.Config {
	return logger.Config{
		Service:   l.Service,
		Version:   l.Version,
		Env:       logger.ParseEnv(l.Env),
		Backend:   logger.Backend(l.Backend),
		Debug:     l.Debug,
		AddSource: l.AddSource,
	}
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
	AutoMigrate       bool          `yaml:"autoMigrate"`
	LogQueries        bool          `yaml:"logQueries"`
}

func (p Postgres) Validate() error {
	if p.DSN == "" {
		return errors.New("postgres.dsn is required")
	}

	return nil
}

func (p Postgres) ToPGConfig() pg.Config {
	return pg.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
		LogQueries:        p.LogQueries,
	}
}

type Password struct {
	MinLength        int           `yaml:"minLength"`
	BcryptCost       int           `yaml:"bcryptCost"`
	LockoutThreshold int           `yaml:"lockoutThreshold"`
	LockoutDuration  time.Duration `yaml:"lockoutDuration"`
}

func (p Password) Validate() error {
	if p.MinLength < 6 {
		return errors.New("security.password.minLength must be >= 6")
	}
	if p.BcryptCost != 0 && (p.BcryptCost < 4 || p.BcryptCost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}
	if p.LockoutThreshold < 0 {
		return errors.New("security.password.lockoutThreshold must be >= 0")
	}
	if p.LockoutThreshold > 0 && p.LockoutDuration <= 0 {
		return errors.New("security.password.lockoutDuration must be > 0 when lockout is enabled")
	}

	return nil
}

func (p Password) ToBcryptConfig() *security.BcryptConfig {
	return &security.BcryptConfig{Cost: p.BcryptCost, MinLength: p.MinLength}
}

type JWT struct {
	Alg            string        `yaml:"alg"`
	PrivateKeyPath string        `yaml:"privateKeyPath"`
	PublicKeyPath  string        `yaml:"publicKeyPath"`
	Issuer         string        `yaml:"issuer"`
	Audience       string        `yaml:"audience"`
	AccessTTL      time.Duration `yaml:"accessTTL"`
	RefreshTTL     time.Duration `yaml:"refreshTTL"`
	ClockSkew      time.Duration `yaml:"clockSkew"`
}

func (j JWT) Validate() error {
	if j.Alg != "RS256" {
		return errors.New("security.jwt.alg must be RS256")
	}
	if j.PrivateKeyPath == "" {
		return errors.New("security.jwt.privateKeyPath is required")
	}
	if j.PublicKeyPath == "" {
		return errors.New("security.jwt.publicKeyPath is required")
	}
	if j.Issuer == "" {
		return errors.New("security.jwt.issuer is required")
	}
	if j.AccessTTL <= 0 {
		return errors.New("security.jwt.accessTTL must be > 0")
	}
	if j.RefreshTTL <= j.AccessTTL {
		return errors.New("security.jwt.refreshTTL must be > accessTTL")
	}
	if j.ClockSkew < 0 || j.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}

	return nil
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
}

func (s Security) Validate() error {
	if err := s.Password.Validate(); err != nil {
		return err
	}
	if err := s.JWT.Validate(); err != nil {
		return err
	}

	return nil
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Uploads struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"maxBytes"`
}

// Classifier is optional: without an artifact the predict endpoints answer 503.
type Classifier struct {
	ArtifactPath string `yaml:"artifactPath"`
}

type Relay struct {
	PingInterval time.Duration `yaml:"pingInterval"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	ReadLimit    int64         `yaml:"readLimit"`
}

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	GRPC       GRPC       `yaml:"grpc"`
	Logging    Logging    `yaml:"logging"`
	Postgres   Postgres   `yaml:"postgres"`
	Security   Security   `yaml:"security"`
	CORS       CORS       `yaml:"cors"`
	Uploads    Uploads    `yaml:"uploads"`
	Classifier Classifier `yaml:"classifier"`
	Relay      Relay      `yaml:"relay"`
}

// LoadConfig reads CONFIG_PATH (or DefaultPath), applies env overrides, defaults and validation.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_PRIVATE_KEY_PATH")); v != "" {
		c.Security.JWT.PrivateKeyPath = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_PUBLIC_KEY_PATH")); v != "" {
		c.Security.JWT.PublicKeyPath = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_ENV")); v != "" && c.Logging.Env == "" {
		c.Logging.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 5 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "moodsync"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Security.Password.MinLength == 0 {
		c.Security.Password.MinLength = 8
	}
	if c.Security.Password.LockoutThreshold == 0 {
		c.Security.Password.LockoutThreshold = 5
	}
	if c.Security.Password.LockoutDuration == 0 {
		c.Security.Password.LockoutDuration = 30 * time.Minute
	}
	if c.Security.JWT.Alg == "" {
		c.Security.JWT.Alg = "RS256"
	}
	if c.Security.JWT.AccessTTL == 0 {
		c.Security.JWT.AccessTTL = 15 * time.Minute
	}
	if c.Security.JWT.RefreshTTL == 0 {
		c.Security.JWT.RefreshTTL = 7 * 24 * time.Hour
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = 10 << 20
	}

	if c.Relay.PingInterval == 0 {
		c.Relay.PingInterval = 15 * time.Second
	}
	if c.Relay.WriteTimeout == 0 {
		c.Relay.WriteTimeout = 5 * time.Second
	}
	if c.Relay.ReadLimit == 0 {
		c.Relay.ReadLimit = 1 << 20
	}
}

func (c *Config) Validate() error {
	if err := c.Postgres.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	switch c.Logging.Backend {
	case string(logger.BackendStd), string(logger.BackendZap):
	default:
		return fmt.Errorf("logging.backend must be std or zap, got %q", c.Logging.Backend)
	}
	if c.Relay.PingInterval < time.Second {
		return errors.New("relay.pingInterval must be >= 1s")
	}
	return nil
}
