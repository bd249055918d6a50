package schema

import (
	"errors"
	"strings"
)

// ServiceConfig defines defaults and layout constants for the session.
type ServiceConfig struct {
	// TabStripHeight, ToolbarHeight and ContentPadding sum to the chrome offset.
	TabStripHeight int
	ToolbarHeight  int
	ContentPadding int
	// SearchTemplate must contain {query}.
	SearchTemplate string
	// DefaultScheme is prefixed to host-like input without a scheme.
	DefaultScheme string
}

const (
	// DefaultTabStripHeight is the height of the tab strip in pixels.
	DefaultTabStripHeight = 26
	// DefaultToolbarHeight is the height of the toolbar in pixels.
	DefaultToolbarHeight = 34
	// DefaultContentPadding is the padding between toolbar and content.
	DefaultContentPadding = 12
	// DefaultSearchTemplate is used for input that does not look like a URL.
	DefaultSearchTemplate = "https://www.google.com/search?q={query}"
	// DefaultScheme is the secure scheme assumed for host-like input.
	DefaultScheme = "https://"
)

// ChromeOffset returns the vertical space reserved above the content area.
func (c ServiceConfig) ChromeOffset() int {
	return c.TabStripHeight + c.ToolbarHeight + c.ContentPadding
}

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.TabStripHeight < 0 || cfg.ToolbarHeight < 0 || cfg.ContentPadding < 0 {
		return ServiceConfig{}, errors.New("chrome heights must not be negative")
	}
	if cfg.TabStripHeight == 0 && cfg.ToolbarHeight == 0 && cfg.ContentPadding == 0 {
		cfg.TabStripHeight = DefaultTabStripHeight
		cfg.ToolbarHeight = DefaultToolbarHeight
		cfg.ContentPadding = DefaultContentPadding
	}
	if strings.TrimSpace(cfg.SearchTemplate) == "" {
		cfg.SearchTemplate = DefaultSearchTemplate
	}
	if !strings.Contains(cfg.SearchTemplate, "{query}") {
		return ServiceConfig{}, errors.New("search template must contain {query}")
	}
	if cfg.DefaultScheme == "" {
		cfg.DefaultScheme = DefaultScheme
	}
	return cfg, nil
}
