// Package config loads server settings from defaults, an optional YAML file,
// a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Sheet backends
const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
	BackendMock   = "mock"
)

type Config struct {
	Environment    string          `yaml:"environment"`
	Port           int             `yaml:"port"`
	FrontendOrigin string          `yaml:"frontend_origin"`
	PublicDir      string          `yaml:"public_dir"`
	LogLevel       string          `yaml:"log_level"`
	TrustedProxies []string        `yaml:"trusted_proxies"`
	Sheets         SheetsConfig    `yaml:"sheets"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Redis          RedisConfig     `yaml:"redis"`
}

type SheetsConfig struct {
	Backend                 string `yaml:"backend"`
	SpreadsheetID           string `yaml:"spreadsheet_id"`
	ServiceAccountKeyBase64 string `yaml:"service_account_key_base64"`
	ServiceAccountKeyPath   string `yaml:"service_account_key_path"`
	WorkbookPath            string `yaml:"workbook_path"`
}

// RateLimitConfig bounds POST /api/register per client IP.
type RateLimitConfig struct {
	Window time.Duration `yaml:"window"`
	Max    int           `yaml:"max"`
}

// RedisConfig is optional; an empty Addr disables redis.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Environment:    EnvDevelopment,
		Port:           4000,
		FrontendOrigin: "http://localhost:5173",
		PublicDir:      "public",
		LogLevel:       "info",
		Sheets: SheetsConfig{
			Backend:      BackendGoogle,
			WorkbookPath: "registrations.xlsx",
		},
		RateLimit: RateLimitConfig{
			Window: time.Hour,
			Max:    10,
		},
		Redis: RedisConfig{
			Prefix:   "sciencefair:",
			CacheTTL: 5 * time.Minute,
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads path if it exists. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.FrontendOrigin = getEnv("FRONTEND_ORIGIN", c.FrontendOrigin)
	c.PublicDir = getEnv("PUBLIC_DIR", c.PublicDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	// comma separated IPs or CIDRs whose X-Forwarded-For is believed
	c.TrustedProxies = getEnvAsList("TRUSTED_PROXIES", c.TrustedProxies)

	c.Sheets.Backend = strings.ToLower(getEnv("SHEETS_BACKEND", c.Sheets.Backend))
	if getEnvAsBool("USE_MOCK_SHEETS", false) || getEnvAsBool("CI", false) {
		c.Sheets.Backend = BackendMock
	}
	c.Sheets.SpreadsheetID = getEnv("GOOGLE_SHEETS_ID", c.Sheets.SpreadsheetID)
	c.Sheets.ServiceAccountKeyBase64 = getEnv("GOOGLE_SERVICE_ACCOUNT_KEY_BASE64", c.Sheets.ServiceAccountKeyBase64)
	c.Sheets.ServiceAccountKeyPath = getEnv("GOOGLE_SERVICE_ACCOUNT_KEY_PATH", c.Sheets.ServiceAccountKeyPath)
	c.Sheets.WorkbookPath = getEnv("SHEETS_WORKBOOK_PATH", c.Sheets.WorkbookPath)

	// milliseconds
	if ms := getEnvAsInt("RATE_LIMIT_WINDOW", -1); ms > 0 {
		c.RateLimit.Window = time.Duration(ms) * time.Millisecond
	}
	c.RateLimit.Max = getEnvAsInt("RATE_LIMIT_MAX", c.RateLimit.Max)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.CacheTTL = getEnvAsDuration("LOOKUP_CACHE_TTL", c.Redis.CacheTTL)
}

// Validate checks required settings for the selected backend.
func (c *Config) Validate() error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT %d is out of range", c.Port))
	}
	if c.FrontendOrigin == "" {
		errs = append(errs, "FRONTEND_ORIGIN is required")
	}
	switch c.Sheets.Backend {
	case BackendGoogle:
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, "GOOGLE_SHEETS_ID environment variable is required")
		}
		if c.Sheets.ServiceAccountKeyBase64 == "" && c.Sheets.ServiceAccountKeyPath == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_KEY_BASE64 or GOOGLE_SERVICE_ACCOUNT_KEY_PATH must be provided")
		}
	case BackendXLSX:
		if c.Sheets.WorkbookPath == "" {
			errs = append(errs, "SHEETS_WORKBOOK_PATH is required for the xlsx backend")
		}
	case BackendMock:
	default:
		errs = append(errs, fmt.Sprintf("unknown SHEETS_BACKEND %q", c.Sheets.Backend))
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
			}
		}
	}
	if c.RateLimit.Max < 1 {
		errs = append(errs, "RATE_LIMIT_MAX must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, ", "))
	}
	return nil
}

// IsDevelopment reports whether error details may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
