package config

import (
	"fmt"
	"os"
	"strings"

	"invest-client/src/helpers"
	"invest-client/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TokenEnv overrides api.token when set.
const TokenEnv = "INVEST_TOKEN"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns a configuration that talks to the in-process sandbox.
func Default() *Config {
	return &Config{MConfig: &models.MConfig{
		Name: "invest-client",
		Log:  models.MLogConfig{Level: "info", Format: "text", Output: "stdout"},
		API: models.MAPIConfig{
			Endpoint:          "invest-public-api.tinkoff.ru:443",
			AppName:           "invest-client",
			RequestsPerSecond: 10,
			TimeoutSeconds:    30,
		},
		Stream: models.MStreamConfig{
			BroadcastCapacity: 1024,
			ControlBuffer:     16,
			CandleInterval:    string(models.Interval1Min),
			OrderBookDepth:    10,
		},
		Cache:   models.MCacheConfig{CandleLimit: 500},
		Server:  models.MServerConfig{Host: "127.0.0.1", Port: 8080},
		Sandbox: models.MSandboxConfig{TickIntervalMs: 1000},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file on top of Default, applies .env, the token
// environment override and then overrides (e.g. command line flags) before
// validating.
func NewConfig(configPath string, overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, helpers.NewConfigurationError(err, "failed to load .env")
	}

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config.MConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		config.API.Token = token
	}
	for _, override := range overrides {
		override(config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError(nil, "application name cannot be empty")
	}

	// The sandbox runs in-process and needs neither endpoint nor token.
	if !c.Sandbox.Enabled {
		if c.API.Endpoint == "" {
			return helpers.NewConfigurationError(helpers.ErrChannelNotSet, "api endpoint cannot be empty")
		}
		if c.API.Token == "" {
			return helpers.NewConfigurationError(helpers.ErrTokenNotSet, "set api.token or %s", TokenEnv)
		}
	} else if c.Sandbox.TickIntervalMs <= 0 {
		return helpers.NewConfigurationError(nil, "sandbox tick interval must be greater than 0")
	}
	if c.API.RequestsPerSecond < 0 {
		return helpers.NewConfigurationError(nil, "requests per second cannot be negative")
	}
	if c.API.TimeoutSeconds <= 0 {
		return helpers.NewConfigurationError(nil, "api timeout must be greater than 0")
	}

	if c.Stream.BroadcastCapacity <= 0 {
		return helpers.NewConfigurationError(nil, "broadcast capacity must be greater than 0")
	}
	if c.Stream.ControlBuffer < 0 {
		return helpers.NewConfigurationError(nil, "control buffer cannot be negative")
	}
	if _, err := models.ParseCandleInterval(c.Stream.CandleInterval); err != nil {
		return helpers.NewConfigurationError(err, "invalid stream candle interval")
	}
	switch c.Stream.OrderBookDepth {
	case 1, 10, 20, 30, 40, 50:
	default:
		return helpers.NewConfigurationError(nil, "invalid order book depth %d (one of 1, 10, 20, 30, 40, 50)", c.Stream.OrderBookDepth)
	}
	for i, uid := range c.Stream.Instruments {
		if uid == "" {
			return helpers.NewConfigurationError(nil, "stream instrument %d cannot be empty", i)
		}
	}

	if c.Cache.CandleLimit < 0 {
		return helpers.NewConfigurationError(nil, "candle limit cannot be negative")
	}

	if c.Server.Enabled {
		if c.Server.Host == "" {
			return helpers.NewConfigurationError(nil, "server host cannot be empty")
		}
		if c.Server.Port <= 1024 || c.Server.Port > 65535 {
			return helpers.NewConfigurationError(nil, "invalid server port number: %d (must be between 1025 and 65535)", c.Server.Port)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
// The token is never written.
func (c *Config) Save(configPath string) error {
	out := *c.MConfig
	out.API.Token = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
