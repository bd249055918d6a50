package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/tabula/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	DataDir       string        `mapstructure:"data_dir" yaml:"data_dir"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Browser       BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Chrome        ChromeConfig  `mapstructure:"chrome" yaml:"chrome"`
	Search        SearchConfig  `mapstructure:"search" yaml:"search"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Page host names accepted by browser.host.
const (
	HostChrome = "chrome"
	HostMemory = "memory"
)

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
	// HubHistory is the number of events kept for stream replay.
	HubHistory int `mapstructure:"hub_history" yaml:"hub_history"`
	// Metrics serves Prometheus metrics on /metrics.
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
	// CommandRate limits commands per second; 0 disables the limit.
	CommandRate  float64 `mapstructure:"command_rate" yaml:"command_rate"`
	CommandBurst int     `mapstructure:"command_burst" yaml:"command_burst"`
}

// BrowserConfig selects and configures the page host.
type BrowserConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	ExecPath     string `mapstructure:"exec_path" yaml:"exec_path"`
	Headless     bool   `mapstructure:"headless" yaml:"headless"`
	WindowWidth  int    `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int    `mapstructure:"window_height" yaml:"window_height"`
	UserDataDir  string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
}

// ChromeConfig sizes the browser chrome drawn above the content area.
type ChromeConfig struct {
	TabStripHeight int `mapstructure:"tab_strip_height" yaml:"tab_strip_height"`
	ToolbarHeight  int `mapstructure:"toolbar_height" yaml:"toolbar_height"`
	ContentPadding int `mapstructure:"content_padding" yaml:"content_padding"`
}

// SearchConfig controls how non-URL input is turned into a search.
type SearchConfig struct {
	Template string `mapstructure:"template" yaml:"template"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		DataDir:       filepath.Join(home, ".tabula", "data"),
		HTTP: HTTPConfig{
			Addr:         "127.0.0.1:27490",
			BaseURL:      "",
			BasePath:     "",
			HubHistory:   256,
			Metrics:      true,
			CommandRate:  50,
			CommandBurst: 100,
		},
		Browser: BrowserConfig{
			Host:         HostChrome,
			ExecPath:     "",
			Headless:     false,
			WindowWidth:  1280,
			WindowHeight: 860,
			UserDataDir:  filepath.Join(home, ".tabula", "profile"),
		},
		Chrome: ChromeConfig{
			TabStripHeight: schema.DefaultTabStripHeight,
			ToolbarHeight:  schema.DefaultToolbarHeight,
			ContentPadding: schema.DefaultContentPadding,
		},
		Search: SearchConfig{
			Template: schema.DefaultSearchTemplate,
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabula", "config.yaml"), nil
}

// ServiceConfig converts the chrome and search settings for the session.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		TabStripHeight: c.Chrome.TabStripHeight,
		ToolbarHeight:  c.Chrome.ToolbarHeight,
		ContentPadding: c.Chrome.ContentPadding,
		SearchTemplate: c.Search.Template,
	}
}
