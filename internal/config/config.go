package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultMnemonic is the deterministic 24-word seed used for the arkd wallet.
var DefaultMnemonic = strings.TrimSpace(strings.Repeat("abandon ", 24))

// Config is the root configuration for arkboot.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Nigiri    NigiriConfig    `mapstructure:"nigiri"`
	Client    ClientConfig    `mapstructure:"client"`
	Funding   FundingConfig   `mapstructure:"funding"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServiceConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FetchRetries   int           `mapstructure:"fetch_retries"`
	Wait           WaitConfig    `mapstructure:"wait"`
}

type WalletConfig struct {
	Password string     `mapstructure:"password"`
	Mnemonic string     `mapstructure:"mnemonic"`
	Wait     WaitConfig `mapstructure:"wait"`
}

// WaitConfig is the retry budget of a single readiness poll.
type WaitConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type NigiriConfig struct {
	Binary string `mapstructure:"binary"`
}

type ClientConfig struct {
	ExplorerURL string `mapstructure:"explorer_url"`
	Network     string `mapstructure:"network"`
}

type FundingConfig struct {
	ConfirmationDelay time.Duration `mapstructure:"confirmation_delay"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the ARKBOOT_ prefix (e.g. ARKBOOT_SERVICE_URL).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ARKBOOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the orchestrator cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.URL == "" {
		errs = append(errs, errors.New("service.url must not be empty"))
	}
	if c.Service.FetchRetries < 0 {
		errs = append(errs, fmt.Errorf("service.fetch_retries must be >= 0, got %d", c.Service.FetchRetries))
	}
	if err := c.Service.Wait.validate("service.wait"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Wallet.Wait.validate("wallet.wait"); err != nil {
		errs = append(errs, err)
	}
	if c.Nigiri.Binary == "" {
		errs = append(errs, errors.New("nigiri.binary must not be empty"))
	}
	if c.Funding.ConfirmationDelay < 0 {
		errs = append(errs, fmt.Errorf("funding.confirmation_delay must not be negative, got %s", c.Funding.ConfirmationDelay))
	}

	return errors.Join(errs...)
}

func (w WaitConfig) validate(key string) error {
	if w.MaxRetries < 1 {
		return fmt.Errorf("%s.max_retries must be >= 1, got %d", key, w.MaxRetries)
	}
	if w.RetryDelay < 0 {
		return fmt.Errorf("%s.retry_delay must not be negative, got %s", key, w.RetryDelay)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.url", "http://localhost:7070")
	v.SetDefault("service.request_timeout", 5*time.Second)
	v.SetDefault("service.fetch_retries", 0)
	v.SetDefault("service.wait.max_retries", 30)
	v.SetDefault("service.wait.retry_delay", 2*time.Second)

	v.SetDefault("wallet.password", "secret")
	v.SetDefault("wallet.mnemonic", DefaultMnemonic)
	v.SetDefault("wallet.wait.max_retries", 30)
	v.SetDefault("wallet.wait.retry_delay", 2*time.Second)

	v.SetDefault("nigiri.binary", "nigiri")

	v.SetDefault("client.explorer_url", "http://chopsticks:3000")
	v.SetDefault("client.network", "regtest")

	v.SetDefault("funding.confirmation_delay", 5*time.Second)

	// No collector runs next to a regtest stack by default.
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "arkboot")
	v.SetDefault("telemetry.log_level", "info")
}
