package ui

import "github.com/caarlos0/env/v11"

// Config contains TUI-specific configuration.
type Config struct {
	// Path of the novel to open.
	Path string

	SidebarWidth   int    `env:"TINGSHU_SIDEBAR_WIDTH" envDefault:"28"`
	ShowSidebar    bool   `env:"TINGSHU_SIDEBAR" envDefault:"true"`
	HighlightColor string `env:"TINGSHU_HIGHLIGHT_COLOR" envDefault:"#F1C40F"`
	EnableMouse    bool   `env:"TINGSHU_MOUSE"`
}

// ConfigFromEnv reads the TUI configuration from the environment.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if cfg.SidebarWidth < 12 {
		cfg.SidebarWidth = 12
	}
	return cfg, nil
}
