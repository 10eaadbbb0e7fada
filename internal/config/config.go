// Package config assembles the bridge's runtime configuration from
// environment variables and an optional YAML file.
package config

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"

	pkgconfig "github.com/lewisedginton/chatbridge/pkg/config"
	"github.com/lewisedginton/chatbridge/pkg/logger"
)

// ChatConfig holds the default upstream chat endpoint. Both values can
// be overridden per request.
type ChatConfig struct {
	// EndpointURL is the default upstream chat API endpoint
	EndpointURL string `env:"CHAT_ENDPOINT_URL" yaml:"endpoint_url" default:""`

	// APIKey is sent as the x-functions-key header when non-empty
	APIKey string `env:"CHAT_API_KEY" yaml:"api_key" default:""`
}

// Validate checks that the endpoint URL, when set, parses as an
// absolute http(s) URL.
func (c ChatConfig) Validate() error {
	var result error
	if c.EndpointURL != "" {
		u, err := url.Parse(c.EndpointURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			result = multierror.Append(result, fmt.Errorf("chat endpoint_url must be an absolute http(s) URL, got %q", c.EndpointURL))
		}
	}
	return result
}

// AppDataConfig controls where per-user application data lives.
type AppDataConfig struct {
	// AppName names the directory under the platform config location
	AppName string `env:"APPDATA_APP_NAME" yaml:"app_name" default:"chatbridge"`

	// Dir overrides the resolved data directory when non-empty
	Dir string `env:"APPDATA_DIR" yaml:"dir" default:""`
}

// Validate checks AppDataConfig for a usable app name.
func (a AppDataConfig) Validate() error {
	var result error
	if a.AppName == "" {
		result = multierror.Append(result, fmt.Errorf("appdata app_name must not be empty"))
	}
	return result
}

// NotificationsConfig toggles desktop notification delivery.
type NotificationsConfig struct {
	// Enabled turns desktop notifications on or off
	Enabled bool `env:"NOTIFICATIONS_ENABLED" yaml:"enabled" default:"true"`
}

// Validate is a no-op; any bool is valid.
func (NotificationsConfig) Validate() error { return nil }

// AppConfig is the full bridge configuration.
type AppConfig struct {
	Common        pkgconfig.CommonConfig     `yaml:"common"`
	HTTP          pkgconfig.HTTPServerConfig `yaml:"http"`
	Metrics       pkgconfig.MetricsConfig    `yaml:"metrics"`
	Chat          ChatConfig                 `yaml:"chat"`
	AppData       AppDataConfig              `yaml:"appdata"`
	Notifications NotificationsConfig        `yaml:"notifications"`

	// ServiceName identifies this service in logs
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"chatbridge"`

	// Environment names the deployment environment
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"local"`
}

// Validate aggregates validation across every section.
func (c AppConfig) Validate() error {
	var result error
	for _, v := range []pkgconfig.Validator{
		c.Common, c.HTTP, c.Metrics, c.Chat, c.AppData, c.Notifications,
	} {
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// GetLogLevel maps the configured log level onto the logger's enum.
func (c AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Common.LogLevel)
}

// LogConfig builds the logger configuration for this service.
func (c AppConfig) LogConfig() logger.Config {
	return logger.Config{
		Level:   c.GetLogLevel(),
		Format:  c.Common.LogFormat,
		Service: c.ServiceName,
	}
}

// Load reads configuration from the environment, overlaid by the YAML
// file at path when path is non-empty.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path == "" {
		if err := pkgconfig.GetConfigFromEnvVars(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := pkgconfig.GetConfig(&cfg, path, false); err != nil {
		return nil, err
	}
	return &cfg, nil
}
