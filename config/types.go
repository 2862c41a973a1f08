package config

import "time"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port" validate:"gt=0"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LineConfig maps one tracked line onto the upstream feed that covers it.
// Several lines may share a feed URL; the fetcher requests each distinct
// URL once per cycle and fans the result out.
type LineConfig struct {
	ID      string `yaml:"id" validate:"required"`
	FeedURL string `yaml:"feedURL" validate:"required,url"`
}

// FetchConfig contains upstream fetch configuration
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"gte=0"`
	APIKeyEnv      string `yaml:"apiKeyEnv"`
}

// CacheConfig contains snapshot cache and refresh loop timings
type CacheConfig struct {
	DurationSeconds       int `yaml:"durationSeconds" validate:"gte=0"`
	UpdateIntervalSeconds int `yaml:"updateIntervalSeconds" validate:"gte=0"`
	RetryDelaySeconds     int `yaml:"retryDelaySeconds" validate:"gte=0"`
}

// TelemetryConfig contains OpenTelemetry export configuration
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Lines     []LineConfig    `yaml:"lines"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LineIDs returns the tracked line ids in configured order. This order is
// the insertion order the normalizer iterates in.
func (c AppConfig) LineIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ID)
	}
	return ids
}

// CacheDuration returns how long a snapshot counts as fresh.
func (c AppConfig) CacheDuration() time.Duration {
	return time.Duration(c.Cache.DurationSeconds) * time.Second
}

// UpdateInterval returns the refresh loop period.
func (c AppConfig) UpdateInterval() time.Duration {
	return time.Duration(c.Cache.UpdateIntervalSeconds) * time.Second
}

// RetryDelay returns the short sleep used after a refresh cycle panics.
func (c AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.Cache.RetryDelaySeconds) * time.Second
}

// FetchTimeout returns the per-feed request timeout.
func (c AppConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
