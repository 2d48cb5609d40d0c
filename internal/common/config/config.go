// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Stations StationsConfig `mapstructure:"stations"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// ProviderConfig holds the upstream RapidAPI railway provider settings.
// The API key is a credential supplied externally (env or .env), never
// generated here.
type ProviderConfig struct {
	BaseURL string      `mapstructure:"base_url"`
	APIKey  string      `mapstructure:"api_key"`
	APIHost string      `mapstructure:"api_host"`
	Timeout int         `mapstructure:"timeout"` // milliseconds, per attempt
	Retry   RetryConfig `mapstructure:"retry"`
}

// RetryConfig bounds the per-branch retry loop.
type RetryConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	InitialBackoff int `mapstructure:"initial_backoff"` // milliseconds
	MaxBackoff     int `mapstructure:"max_backoff"`     // milliseconds
}

func (r RetryConfig) InitialBackoffDuration() time.Duration {
	return time.Duration(r.InitialBackoff) * time.Millisecond
}

func (r RetryConfig) MaxBackoffDuration() time.Duration {
	return time.Duration(r.MaxBackoff) * time.Millisecond
}

// GatewayConfig tunes dispatch behavior.
type GatewayConfig struct {
	MaxInFlight     int `mapstructure:"max_in_flight"`    // fan-out branches running at once, per request
	DefaultWindow   int `mapstructure:"default_window"`   // hours for get_live_station_trains
	DispatchTimeout int `mapstructure:"dispatch_timeout"` // milliseconds, whole request deadline
}

func (g GatewayConfig) DispatchTimeoutDuration() time.Duration {
	return time.Duration(g.DispatchTimeout) * time.Millisecond
}

// CacheConfig holds the optional Redis response cache settings.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	LiveTTL   int    `mapstructure:"live_ttl"`   // seconds, live boards / running status
	StaticTTL int    `mapstructure:"static_ttl"` // seconds, schedules / fares
}

func (c CacheConfig) LiveTTLDuration() time.Duration {
	return time.Duration(c.LiveTTL) * time.Second
}

func (c CacheConfig) StaticTTLDuration() time.Duration {
	return time.Duration(c.StaticTTL) * time.Second
}

// StationsConfig extends the compiled-in station directory. Cities maps a
// display name to its ordered station-code list; order encodes provider
// preference and is reproduced exactly. ExtraCodes registers codes that
// appear in no city list but must pass through the resolver.
type StationsConfig struct {
	Cities     map[string][]string `mapstructure:"cities"`
	ExtraCodes []string            `mapstructure:"extra_codes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
