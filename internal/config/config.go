package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultAPIBaseURL = "http://localhost:3014/api/v1"

// Config holds the application configuration
type Config struct {
	APIBaseURL      string
	Port            string
	Environment     string
	LogLevel        string
	StaticDir       string
	PreferencesPath string // empty keeps preferences in memory
	DefaultTheme    string
	GeoIPDBPath     string
	CORSOrigins     []string
	ToolsRateLimit  int // requests per minute per client

	// Optional OAuth2 client credentials for the analysis backend
	APIClientID     string
	APIClientSecret string
	APITokenURL     string

	// Poll interval overrides keyed by page name
	PageIntervals map[string]time.Duration
}

// pagesFile is the YAML layout of PAGES_FILE
type pagesFile struct {
	Pages map[string]struct {
		Interval string `yaml:"interval"`
	} `yaml:"pages"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		APIBaseURL:      getEnvWithDefault("API_BASE_URL", DefaultAPIBaseURL),
		Port:            getEnvWithDefault("PORT", "8080"),
		Environment:     getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		StaticDir:       os.Getenv("STATIC_DIR"),
		PreferencesPath: lookupEnvWithDefault("PREFERENCES_PATH", "./data/preferences"),
		DefaultTheme:    getEnvWithDefault("DEFAULT_THEME", "light"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		ToolsRateLimit:  getIntWithDefault("TOOLS_RATE_LIMIT", 30),
		APIClientID:     os.Getenv("API_CLIENT_ID"),
		APIClientSecret: os.Getenv("API_CLIENT_SECRET"),
		APITokenURL:     os.Getenv("API_TOKEN_URL"),
		PageIntervals:   map[string]time.Duration{},
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if cfg.StaticDir == "" {
		if cfg.Environment == "production" {
			cfg.StaticDir = "./dist"
		} else {
			cfg.StaticDir = "../frontend/dist"
		}
	}

	return cfg
}

// LoadPagesFile merges poll interval overrides from a YAML file.
func (c *Config) LoadPagesFile(path string) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pages file: %w", err)
	}

	var pf pagesFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parsing pages file: %w", err)
	}

	for page, entry := range pf.Pages {
		if entry.Interval == "" {
			continue
		}
		d, err := time.ParseDuration(entry.Interval)
		if err != nil {
			return fmt.Errorf("page %s: bad interval %q: %w", page, entry.Interval, err)
		}
		c.PageIntervals[page] = d
	}
	return nil
}

// OAuthEnabled reports whether client credentials were supplied
func (c *Config) OAuthEnabled() bool {
	return c.APIClientID != "" && c.APIClientSecret != "" && c.APITokenURL != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API_BASE_URL must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API_BASE_URL must use http or https")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.ToolsRateLimit <= 0 {
		return errors.New("TOOLS_RATE_LIMIT must be positive")
	}
	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return errors.New("DEFAULT_THEME must be light or dark")
	}
	partial := c.APIClientID != "" || c.APIClientSecret != "" || c.APITokenURL != ""
	if partial && !c.OAuthEnabled() {
		return errors.New("API_CLIENT_ID, API_CLIENT_SECRET and API_TOKEN_URL must be set together")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnvWithDefault treats a variable set to the empty string as a value.
func lookupEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
