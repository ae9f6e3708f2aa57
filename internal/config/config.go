package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIBaseEnv overrides api_base when set.
const APIBaseEnv = "DISASTERSIM_API_BASE"

const (
	DefaultAPIBase = "https://9l5b7yhwsk.execute-api.us-east-1.amazonaws.com/Prod"
	DefaultPage    = "/simulator"
	DefaultAgent   = "Simulator"
	DefaultMap     = "images/world-map.png"
)

type Config struct {
	APIBase              string `yaml:"api_base"`
	Page                 string `yaml:"page"`
	UserAgent            string `yaml:"user_agent"`
	MapImage             string `yaml:"map_image"`
	WindowWidth          int    `yaml:"window_width"`
	WindowHeight         int    `yaml:"window_height"`
	TPS                  int    `yaml:"tps"`
	ResizeDebounceMS     int    `yaml:"resize_debounce_ms"`
	ReportTimeoutSeconds int    `yaml:"report_timeout_seconds"`

	ResizeDebounce time.Duration `yaml:"-"` // Derived
	ReportTimeout  time.Duration `yaml:"-"` // Derived
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.finalize(); err != nil {
		panic(err) // defaults are always valid
	}
	return cfg
}

// LoadConfig reads a YAML file. An empty path yields the defaults, still
// subject to environment overrides.
func LoadConfig(filePath string) (*Config, error) {
	var cfg Config
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config YAML from %s: %w", filePath, err)
		}
	}

	if base := strings.TrimSpace(os.Getenv(APIBaseEnv)); base != "" {
		cfg.APIBase = base
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = DefaultAPIBase
	}
	u, err := url.Parse(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("invalid api_base %q: %w", cfg.APIBase, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base %q must use http or https", cfg.APIBase)
	}
	if u.Host == "" {
		return fmt.Errorf("api_base %q has no host", cfg.APIBase)
	}

	if cfg.Page == "" {
		cfg.Page = DefaultPage
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultAgent
	}
	if cfg.MapImage == "" {
		cfg.MapImage = DefaultMap
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = 800
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = 600
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}

	if cfg.ResizeDebounceMS < 0 {
		return fmt.Errorf("resize_debounce_ms must not be negative, got %d", cfg.ResizeDebounceMS)
	}
	if cfg.ResizeDebounceMS == 0 {
		cfg.ResizeDebounceMS = 150
	}
	cfg.ResizeDebounce = time.Duration(cfg.ResizeDebounceMS) * time.Millisecond

	if cfg.ReportTimeoutSeconds < 0 {
		return fmt.Errorf("report_timeout_seconds must not be negative, got %d", cfg.ReportTimeoutSeconds)
	}
	if cfg.ReportTimeoutSeconds == 0 {
		cfg.ReportTimeoutSeconds = 10
	}
	cfg.ReportTimeout = time.Duration(cfg.ReportTimeoutSeconds) * time.Second
	return nil
}
