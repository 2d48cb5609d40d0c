// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDER_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// tests running from package directories pick up credentials too.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "railway-gateway"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://irctc-api2.p.rapidapi.com"
	}
	if cfg.Provider.APIHost == "" {
		cfg.Provider.APIHost = "irctc-api2.p.rapidapi.com"
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = 10000
	}
	if cfg.Provider.Retry.MaxAttempts <= 0 {
		cfg.Provider.Retry.MaxAttempts = 3
	}
	if cfg.Provider.Retry.InitialBackoff <= 0 {
		cfg.Provider.Retry.InitialBackoff = 250
	}
	if cfg.Provider.Retry.MaxBackoff <= 0 {
		cfg.Provider.Retry.MaxBackoff = 2000
	}
	if cfg.Gateway.MaxInFlight <= 0 {
		cfg.Gateway.MaxInFlight = 4
	}
	if cfg.Gateway.DefaultWindow <= 0 {
		cfg.Gateway.DefaultWindow = 4
	}
	if cfg.Gateway.DispatchTimeout <= 0 {
		cfg.Gateway.DispatchTimeout = 15000
	}
	if cfg.Cache.Address == "" {
		cfg.Cache.Address = "localhost:6379"
	}
	if cfg.Cache.LiveTTL <= 0 {
		cfg.Cache.LiveTTL = 30
	}
	if cfg.Cache.StaticTTL <= 0 {
		cfg.Cache.StaticTTL = 3600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// overrideFromEnv covers the credentials viper's replacer misses when no
// config file mentions them at all.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Cache.Address = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Provider.APIKey == "" && cfg.App.Environment != "development" {
		return fmt.Errorf("provider.api_key (or RAPIDAPI_KEY) is required in %s", cfg.App.Environment)
	}
	if cfg.Provider.Retry.MaxAttempts > 10 {
		return fmt.Errorf("provider.retry.max_attempts %d exceeds sane bound", cfg.Provider.Retry.MaxAttempts)
	}
	for city, codes := range cfg.Stations.Cities {
		if len(codes) == 0 {
			return fmt.Errorf("stations.cities[%q] has an empty code list", city)
		}
	}
	return nil
}
