package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	AuctionAPI AuctionAPIConfig `yaml:"auction_api"`
	Lob        LobConfig        `yaml:"lob"`
	Dropbox    DropboxConfig    `yaml:"dropbox"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Report     ReportConfig     `yaml:"report"`
	Letters    LettersConfig    `yaml:"letters"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Host    string `yaml:"host"`
	BaseURL string `yaml:"base_url"` // public URL used in QR codes and shared links
}

// GetHost returns the listen host, honoring a container environment override.
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// AuctionAPIConfig holds AuctionMethod API configuration.
type AuctionAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheTTLMins   int    `yaml:"cache_ttl_mins"`
}

// Timeout returns the configured timeout as a duration.
func (c AuctionAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the auction metadata cache TTL.
func (c AuctionAPIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

// LobConfig holds Lob direct-mail API configuration.
type LobConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	FromName       string `yaml:"from_name"`
	FromAddress1   string `yaml:"from_address1"`
	FromCity       string `yaml:"from_city"`
	FromState      string `yaml:"from_state"`
	FromZip        string `yaml:"from_zip"`
}

// Timeout returns the configured timeout as a duration.
func (c LobConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DropboxConfig holds Dropbox API configuration for auction folder glue.
type DropboxConfig struct {
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RootPath       string `yaml:"root_path"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration.
func (c DropboxConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig holds per-auction-code letter storage settings.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig holds the audit/scan-tracking database settings.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// RedisConfig holds the auction metadata cache settings.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// AuthConfig holds Google OAuth authentication configuration.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	RedirectURL        string `yaml:"redirect_url"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// ReportConfig holds daily scan report settings.
type ReportConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	SendHourUTC  int    `yaml:"send_hour_utc"`
}

// LettersConfig holds letter pipeline settings.
type LettersConfig struct {
	// ExcludedTerms are lowercase substrings of owner names that mark a
	// record as institutional (cemetery, church, ...). Configurable because
	// the list differs between offices. An empty list means use the
	// pipeline's built-in defaults.
	ExcludedTerms []string `yaml:"excluded_terms"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "https://tools.mclemoreauction.com"
	}
	if cfg.AuctionAPI.BaseURL == "" {
		cfg.AuctionAPI.BaseURL = "https://www.mclemoreauction.com/uapi"
	}
	if cfg.AuctionAPI.TimeoutSeconds == 0 {
		cfg.AuctionAPI.TimeoutSeconds = 30
	}
	if cfg.AuctionAPI.CacheTTLMins == 0 {
		cfg.AuctionAPI.CacheTTLMins = 15
	}
	if cfg.Lob.BaseURL == "" {
		cfg.Lob.BaseURL = "https://api.lob.com/v1"
	}
	if cfg.Lob.TimeoutSeconds == 0 {
		cfg.Lob.TimeoutSeconds = 60
	}
	if cfg.Dropbox.TimeoutSeconds == 0 {
		cfg.Dropbox.TimeoutSeconds = 30
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "mclemore_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Report.SMTPPort == 0 {
		cfg.Report.SMTPPort = 587
	}
	if cfg.Report.SendHourUTC == 0 {
		cfg.Report.SendHourUTC = 22
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present, so secrets can live in .env
// locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("AM_API_KEY"); v != "" {
		cfg.AuctionAPI.APIKey = v
	}
	if v := os.Getenv("AM_BASE_URL"); v != "" {
		cfg.AuctionAPI.BaseURL = v
	}
	if v := os.Getenv("LOB_API_KEY"); v != "" {
		cfg.Lob.APIKey = v
	}
	if v := os.Getenv("DROPBOX_ACCESS_TOKEN"); v != "" {
		cfg.Dropbox.AccessToken = v
		cfg.Dropbox.Enabled = true
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Report.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Report.SMTPPassword = v
	}

	return cfg, nil
}
