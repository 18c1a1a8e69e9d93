// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers      = []string{"sqlite", "postgres"}
	validCacheTypes   = []string{"memory", "redis"}
	validStorageTypes = []string{"none", "s3"}
)

// Every key that can be overridden from the environment. The variable name is
// the key uppercased with dots replaced by underscores (smtp.host -> SMTP_HOST).
var keys = []string{
	"app.log_level",

	"host.port",
	"host.cors_origins",

	"database.driver",
	"database.dsn",

	"jwt.secret",
	"jwt.access_ttl",

	"register_jwt.private_key",
	"register_jwt.private_key_file",
	"register_jwt.issuer",
	"register_jwt.audience",

	"smtp.host",
	"smtp.port",
	"smtp.user",
	"smtp.password",
	"smtp.from",
	"smtp.timeout",

	"identity.url",
	"identity.timeout",

	"generation.url",
	"generation.timeout",

	"registration.ttl",
	"registration.cleanup_interval",

	"audit.body_limit",

	"cache.type",
	"cache.redis_addr",
	"cache.ttl",

	"storage.type",
	"storage.s3.region",
	"storage.s3.bucket",
	"storage.s3.access_key_id",
	"storage.s3.secret_access_key",
	"storage.s3.endpoint",
	"storage.s3.public_url",

	"security.rate_limit",
	"security.max_body_size",
}

type Config struct {
	LogLevel string

	Port        int
	CORSOrigins []string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret      string
	AccessTokenTTL time.Duration

	// PEM encoded RSA private key used to sign register assertions
	RegisterKeyPEM   []byte
	RegisterIssuer   string
	RegisterAudience string

	SMTP SMTP

	IdentityURL     string
	IdentityTimeout time.Duration

	GenerationURL     string
	GenerationTimeout time.Duration

	RegistrationTTL time.Duration
	CleanupInterval time.Duration

	AuditBodyLimit int

	CacheType      string
	CacheRedisAddr string
	CacheTTL       time.Duration

	StorageType string
	S3          S3

	RateLimit   int
	MaxBodySize int64
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Enabled reports whether enough is configured to actually deliver mail
func (s SMTP) Enabled() bool {
	return s.Host != "" && s.Port > 0
}

type S3 struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Custom endpoint for S3 compatible providers such as R2 or MinIO
	Endpoint string
	// Base URL objects are served from. Defaults to the bucket URL.
	PublicURL string
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup parses args, reads the optional config.toml file and the environment
// and returns the validated configuration. An error means the application
// can't run with what was provided.
func Setup(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("cv-back", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a toml config file (default ./config.toml)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("toml")

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	for _, k := range keys {
		v.BindEnv(k, strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return load(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.access_ttl", time.Hour)

	v.SetDefault("register_jwt.issuer", "cv-back")
	v.SetDefault("register_jwt.audience", "cv-generator")

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout", 20*time.Second)

	v.SetDefault("identity.timeout", 15*time.Second)
	v.SetDefault("generation.timeout", 120*time.Second)

	v.SetDefault("registration.ttl", 15*time.Minute)
	v.SetDefault("registration.cleanup_interval", time.Hour)

	v.SetDefault("audit.body_limit", 8000)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 10*time.Second)

	v.SetDefault("storage.type", "none")

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.max_body_size", 1<<20)
}

func load(v *viper.Viper) (*Config, error) {
	c := &Config{
		LogLevel: v.GetString("app.log_level"),

		Port:        v.GetInt("host.port"),
		CORSOrigins: splitList(v.GetStringSlice("host.cors_origins")),

		DatabaseDriver: v.GetString("database.driver"),
		DatabaseDSN:    v.GetString("database.dsn"),

		JWTSecret:      v.GetString("jwt.secret"),
		AccessTokenTTL: v.GetDuration("jwt.access_ttl"),

		RegisterIssuer:   v.GetString("register_jwt.issuer"),
		RegisterAudience: v.GetString("register_jwt.audience"),

		SMTP: SMTP{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
			Timeout:  v.GetDuration("smtp.timeout"),
		},

		IdentityURL:     strings.TrimRight(v.GetString("identity.url"), "/"),
		IdentityTimeout: v.GetDuration("identity.timeout"),

		GenerationURL:     strings.TrimRight(v.GetString("generation.url"), "/"),
		GenerationTimeout: v.GetDuration("generation.timeout"),

		RegistrationTTL: v.GetDuration("registration.ttl"),
		CleanupInterval: v.GetDuration("registration.cleanup_interval"),

		AuditBodyLimit: v.GetInt("audit.body_limit"),

		CacheType:      v.GetString("cache.type"),
		CacheRedisAddr: v.GetString("cache.redis_addr"),
		CacheTTL:       v.GetDuration("cache.ttl"),

		StorageType: v.GetString("storage.type"),
		S3: S3{
			Region:          v.GetString("storage.s3.region"),
			Bucket:          v.GetString("storage.s3.bucket"),
			AccessKeyID:     v.GetString("storage.s3.access_key_id"),
			SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
			Endpoint:        v.GetString("storage.s3.endpoint"),
			PublicURL:       strings.TrimRight(v.GetString("storage.s3.public_url"), "/"),
		},

		RateLimit:   v.GetInt("security.rate_limit"),
		MaxBodySize: v.GetInt64("security.max_body_size"),
	}

	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.User
	}

	if pem := v.GetString("register_jwt.private_key"); pem != "" {
		c.RegisterKeyPEM = []byte(pem)
	} else if p := v.GetString("register_jwt.private_key_file"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read register_jwt.private_key_file, %w", err)
		}
		c.RegisterKeyPEM = b
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, c.DatabaseDriver) {
		return errors.New("invalid database driver provided")
	}

	if c.DatabaseDSN == "" {
		return errors.New("database.dsn can't be empty")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("jwt.secret is not set. Set JWT_SECRET or add it to config.toml, for example:\n\n%s", genSecret())
	}

	if c.AccessTokenTTL <= 0 {
		return errors.New("jwt.access_ttl must be bigger than 0")
	}

	if len(c.RegisterKeyPEM) == 0 {
		return errors.New("no register_jwt.private_key or register_jwt.private_key_file provided")
	}

	if c.IdentityURL == "" {
		return errors.New("identity.url can't be empty")
	}

	if c.GenerationURL == "" {
		return errors.New("generation.url can't be empty")
	}

	if c.IdentityTimeout <= 0 || c.GenerationTimeout <= 0 || c.SMTP.Timeout <= 0 {
		return errors.New("timeouts must be bigger than 0")
	}

	if c.RegistrationTTL <= 0 {
		return errors.New("registration.ttl must be bigger than 0")
	}

	if c.CleanupInterval <= 0 {
		return errors.New("registration.cleanup_interval must be bigger than 0")
	}

	if c.AuditBodyLimit <= 0 {
		return errors.New("audit.body_limit must be bigger than 0")
	}

	if !slices.Contains(validCacheTypes, c.CacheType) {
		return errors.New("invalid cache type provided")
	}

	if c.CacheType == "redis" && c.CacheRedisAddr == "" {
		return errors.New("cache.redis_addr can't be empty when using the redis cache")
	}

	if !slices.Contains(validStorageTypes, c.StorageType) {
		return errors.New("invalid storage type provided")
	}

	if c.StorageType == "s3" {
		if c.S3.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		if c.S3.AccessKeyID == "" {
			return errors.New("access key id can't be empty")
		}
		if c.S3.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
	}

	if c.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.MaxBodySize <= 0 {
		return errors.New("security.max_body_size must be bigger than 0")
	}

	return nil
}

// Env values arrive as one comma separated string
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}
