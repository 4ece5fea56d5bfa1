package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Widget WidgetConfig `mapstructure:"widget" yaml:"widget"`
	Agents AgentsConfig `mapstructure:"agents" yaml:"agents"`
}

// RenderConfig configures terminal rendering.
type RenderConfig struct {
	Style string `mapstructure:"style" yaml:"style"` // glamour style: auto, dark, light, notty
	Width int    `mapstructure:"width" yaml:"width"` // 0 = detect from terminal
}

// WidgetConfig mirrors the embed widget's rendering attributes: which
// hosts may serve live links/images and how code blocks are colored.
type WidgetConfig struct {
	AllowedHosts   []string `mapstructure:"allowed_hosts" yaml:"allowed_hosts"`
	IncludeWww     bool     `mapstructure:"include_www" yaml:"include_www"`
	AllowHTTP      bool     `mapstructure:"allow_http" yaml:"allow_http"`
	HighlightTheme string   `mapstructure:"highlight_theme" yaml:"highlight_theme"`
}

// AgentsConfig configures the agent-config sync commands.
type AgentsConfig struct {
	APIURL   string `mapstructure:"api_url" yaml:"api_url"`
	APIKey   string `mapstructure:"api_key" yaml:"-"`
	Dir      string `mapstructure:"dir" yaml:"dir"`       // directory of agent config files
	LockFile string `mapstructure:"lock_file" yaml:"lock_file"` // sync lockfile path
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetDefault("render.style", "auto")
	v.SetDefault("render.width", 0)
	v.SetDefault("widget.include_www", true)
	v.SetDefault("widget.allow_http", false)
	v.SetDefault("widget.highlight_theme", "monokai")
	v.SetDefault("agents.dir", "agents")
	v.SetDefault("agents.lock_file", "agents.lock")

	// Config file is optional; defaults carry a working setup.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if key := os.Getenv("STREAMDOWN_API_KEY"); key != "" {
		cfg.Agents.APIKey = key
	}
	return &cfg, nil
}

// GetConfigDir returns the XDG config directory for streamdown.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "streamdown"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".config", "streamdown"), nil
}
