package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config AppConfig

// Built-in defaults. The F and R trains live on different MTA feed
// groups (BDFM and NQRW).
const (
	defaultPort                  = 5000
	defaultCacheDurationSeconds  = 600
	defaultUpdateIntervalSeconds = 480
	defaultRetryDelaySeconds     = 10
	defaultFetchTimeoutSeconds   = 30
	defaultAPIKeyEnv             = "MTA_API_KEY"

	bdfmFeedURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-bdfm"
	nqrwFeedURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw"
)

// DefaultConfig returns the built-in configuration used when no config.yml
// is present.
func DefaultConfig() AppConfig {
	return applyDefaults(AppConfig{})
}

// LoadAppConfig loads and validates the application configuration from
// config.yml. A missing file is not an error; defaults are used instead.
func LoadAppConfig() error {
	paths := []string{"config.yml", "./config/config.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		Config = DefaultConfig()
		return nil
	}
	cfg, err := parseAppConfig(data)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

func parseAppConfig(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	cfg = applyDefaults(cfg)
	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return AppConfig{}, err
	}
	for _, l := range cfg.Lines {
		if err := v.Struct(l); err != nil {
			return AppConfig{}, err
		}
	}
	if err := v.Struct(cfg.Fetch); err != nil {
		return AppConfig{}, err
	}
	if err := v.Struct(cfg.Cache); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg AppConfig) AppConfig {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if len(cfg.Lines) == 0 {
		cfg.Lines = []LineConfig{
			{ID: "F", FeedURL: bdfmFeedURL},
			{ID: "R", FeedURL: nqrwFeedURL},
		}
	}
	if cfg.Cache.DurationSeconds == 0 {
		cfg.Cache.DurationSeconds = defaultCacheDurationSeconds
	}
	if cfg.Cache.UpdateIntervalSeconds == 0 {
		cfg.Cache.UpdateIntervalSeconds = defaultUpdateIntervalSeconds
	}
	if cfg.Cache.RetryDelaySeconds == 0 {
		cfg.Cache.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if cfg.Fetch.APIKeyEnv == "" {
		cfg.Fetch.APIKeyEnv = defaultAPIKeyEnv
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "transit-relay"
	}
	return cfg
}
