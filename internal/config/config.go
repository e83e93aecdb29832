package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`

	// Storage
	StoreDriver   string `mapstructure:"store_driver" yaml:"store_driver" validate:"oneof=sqlite badger memory"`
	DatabasePath  string `mapstructure:"database_path" yaml:"database_path" validate:"required_if=StoreDriver sqlite"`
	BadgerDir     string `mapstructure:"badger_dir" yaml:"badger_dir" validate:"required_if=StoreDriver badger"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db" validate:"gte=0"`
	RedisBanKey   string `mapstructure:"redis_ban_key" yaml:"redis_ban_key"`

	// Auth
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required,min=16"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl" validate:"gt=0"`

	// Chat
	AuthorizedUsers  []string `mapstructure:"authorized_users" yaml:"authorized_users" validate:"dive,required"`
	MaxMessageLength int      `mapstructure:"max_message_length" yaml:"max_message_length" validate:"gt=0"`
	HistoryLimit     int      `mapstructure:"history_limit" yaml:"history_limit" validate:"gt=0,lte=100"`
	SendBuffer       int      `mapstructure:"send_buffer" yaml:"send_buffer" validate:"gt=0"`
	CensoredWords    []string `mapstructure:"censored_words" yaml:"censored_words"`

	// WebSocket gateway
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	PingInterval      time.Duration `mapstructure:"ping_interval" yaml:"ping_interval" validate:"gt=0"`
	RateLimitBurst    int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gt=0"`
	RateLimitInterval time.Duration `mapstructure:"rate_limit_interval" yaml:"rate_limit_interval" validate:"gt=0"`
	// Hosts allowed to connect cross-origin, e.g. "chat.example.com" or "localhost:*".
	OriginPatterns []string `mapstructure:"origin_patterns" yaml:"origin_patterns" validate:"dive,required"`

	// Tracing; empty disables export.
	OTelEndpoint string `mapstructure:"otel_endpoint" yaml:"otel_endpoint" validate:"omitempty,url"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",

		StoreDriver:  "sqlite",
		DatabasePath: "chatroom.db",
		BadgerDir:    "data/badger",
		RedisBanKey:  "chatroom:bans",

		JWTSecret:   "change-me-in-production-please",
		JWTIssuer:   "chatroom",
		JWTAudience: "chatroom-clients",
		JWTTTL:      24 * time.Hour,

		AuthorizedUsers:  []string{"Owner", "DaveMcBlame"},
		MaxMessageLength: 500,
		HistoryLimit:     50,
		SendBuffer:       64,

		MaxMessageBytes:   4096,
		PingInterval:      25 * time.Second,
		RateLimitBurst:    10,
		RateLimitInterval: 200 * time.Millisecond,
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.StoreDriver != "" {
		c.StoreDriver = other.StoreDriver
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.BadgerDir != "" {
		c.BadgerDir = other.BadgerDir
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.OTelEndpoint != "" {
		c.OTelEndpoint = other.OTelEndpoint
	}
}
