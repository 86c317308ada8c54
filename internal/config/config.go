package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPHost            = "0.0.0.0"
	defaultHTTPPort            = 8080
	defaultSSHHost             = "0.0.0.0"
	defaultSSHPort             = 2222
	defaultHostKeyPath         = ".data/host_ed25519"
	defaultIdleTimeout         = 120 * time.Second
	defaultMaxSessions         = 32
	defaultRateLimitPerSecond  = 20
	defaultSessionStorePath    = ".data/sessions.json"
	defaultSessionTTL          = 30 * 24 * time.Hour
	defaultDatabasePath        = ".data/portfolio.db"
	defaultPaletteServiceURL   = "https://web-production-32c2c.up.railway.app/palette"
	defaultPaletteTimeout      = 30 * time.Second
	defaultPaletteMaxUpload    = 10 << 20
	defaultMailFrom            = "Portfolio Contact Form <onboarding@resend.dev>"
	defaultOwnerEmail          = "mail@supriyapoudel.com.np"
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultThemeVariant        = "sunset"
	minimumRateLimit           = 1
	maximumConfiguredSessions  = 1024
	maximumPaletteUploadBytes  = 64 << 20
	minimumPaletteUploadBytes  = 1 << 10
	maximumRedisDatabaseNumber = 15
)

// Config captures startup settings for the portfolio entrypoint.
type Config struct {
	HTTPHost string
	HTTPPort int

	SSHEnabled         bool
	SSHHost            string
	SSHPort            int
	HostKeyPath        string
	IdleTimeout        time.Duration
	MaxSessions        int
	RateLimitPerSecond int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SessionStorePath string
	SessionTTL       time.Duration
	CookieSecure     bool

	DatabasePath string

	PaletteServiceURL string
	PaletteTimeout    time.Duration
	PaletteMaxUpload  int

	ResendAPIKey string
	MailFrom     string
	OwnerEmail   string

	AdminToken   string
	ContentPath  string
	LogLevel     string
	LogFormat    string
	ThemeVariant string
	ForceColor   bool
	ForceMono    bool
}

// LoadFromEnv loads runtime configuration from environment variables.
func LoadFromEnv() (Config, error) {
	var cfg Config
	var err error

	if cfg.HTTPHost, err = readRequiredOrDefault("PORTFOLIO_HTTP_HOST", defaultHTTPHost); err != nil {
		return Config{}, err
	}
	if cfg.HTTPPort, err = readInt("PORTFOLIO_HTTP_PORT", defaultHTTPPort, 1, 65535); err != nil {
		return Config{}, err
	}

	if cfg.SSHEnabled, err = readBool("PORTFOLIO_SSH_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.SSHHost, err = readRequiredOrDefault("PORTFOLIO_SSH_HOST", defaultSSHHost); err != nil {
		return Config{}, err
	}
	if cfg.SSHPort, err = readInt("PORTFOLIO_SSH_PORT", defaultSSHPort, 1, 65535); err != nil {
		return Config{}, err
	}
	if cfg.SSHEnabled && cfg.SSHPort == cfg.HTTPPort && cfg.SSHHost == cfg.HTTPHost {
		return Config{}, fmt.Errorf("PORTFOLIO_SSH_PORT must differ from PORTFOLIO_HTTP_PORT")
	}

	hostKeyPath, err := readRequiredOrDefault("PORTFOLIO_SSH_HOST_KEY_PATH", defaultHostKeyPath)
	if err != nil {
		return Config{}, err
	}
	if cfg.HostKeyPath, err = cleanPath("PORTFOLIO_SSH_HOST_KEY_PATH", hostKeyPath); err != nil {
		return Config{}, err
	}

	if cfg.IdleTimeout, err = readDuration("PORTFOLIO_SSH_IDLE_TIMEOUT", defaultIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions, err = readInt("PORTFOLIO_SSH_MAX_SESSIONS", defaultMaxSessions, 1, maximumConfiguredSessions); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerSecond, err = readInt("PORTFOLIO_SSH_RATE_LIMIT_PER_SECOND", defaultRateLimitPerSecond, minimumRateLimit, 10000); err != nil {
		return Config{}, err
	}

	cfg.RedisAddr = readOptional("PORTFOLIO_REDIS_ADDR")
	cfg.RedisPassword = readOptional("PORTFOLIO_REDIS_PASSWORD")
	if cfg.RedisDB, err = readInt("PORTFOLIO_REDIS_DB", 0, 0, maximumRedisDatabaseNumber); err != nil {
		return Config{}, err
	}

	storePath, err := readRequiredOrDefault("PORTFOLIO_SESSION_STORE_PATH", defaultSessionStorePath)
	if err != nil {
		return Config{}, err
	}
	if cfg.SessionStorePath, err = cleanPath("PORTFOLIO_SESSION_STORE_PATH", storePath); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = readDuration("PORTFOLIO_SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = readBool("PORTFOLIO_COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}

	dbPath, err := readRequiredOrDefault("PORTFOLIO_DATABASE_PATH", defaultDatabasePath)
	if err != nil {
		return Config{}, err
	}
	if cfg.DatabasePath, err = cleanPath("PORTFOLIO_DATABASE_PATH", dbPath); err != nil {
		return Config{}, err
	}

	if cfg.PaletteServiceURL, err = readURL("PORTFOLIO_PALETTE_SERVICE_URL", defaultPaletteServiceURL); err != nil {
		return Config{}, err
	}
	if cfg.PaletteTimeout, err = readDuration("PORTFOLIO_PALETTE_TIMEOUT", defaultPaletteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PaletteMaxUpload, err = readInt("PORTFOLIO_PALETTE_MAX_UPLOAD_BYTES", defaultPaletteMaxUpload, minimumPaletteUploadBytes, maximumPaletteUploadBytes); err != nil {
		return Config{}, err
	}

	cfg.ResendAPIKey = readOptional("RESEND_API_KEY")
	if cfg.MailFrom, err = readRequiredOrDefault("PORTFOLIO_MAIL_FROM", defaultMailFrom); err != nil {
		return Config{}, err
	}
	if cfg.OwnerEmail, err = readRequiredOrDefault("PORTFOLIO_OWNER_EMAIL", defaultOwnerEmail); err != nil {
		return Config{}, err
	}

	cfg.AdminToken = readOptional("PORTFOLIO_ADMIN_TOKEN")
	if path := readOptional("PORTFOLIO_CONTENT_PATH"); path != "" {
		if cfg.ContentPath, err = cleanPath("PORTFOLIO_CONTENT_PATH", path); err != nil {
			return Config{}, err
		}
	}

	if cfg.LogLevel, err = readChoice("PORTFOLIO_LOG_LEVEL", defaultLogLevel, "trace", "debug", "info", "warn", "error"); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat, err = readChoice("PORTFOLIO_LOG_FORMAT", defaultLogFormat, "json", "console"); err != nil {
		return Config{}, err
	}
	if cfg.ThemeVariant, err = readRequiredOrDefault("PORTFOLIO_THEME_VARIANT", defaultThemeVariant); err != nil {
		return Config{}, err
	}
	if cfg.ForceColor, err = readBool("PORTFOLIO_FORCE_COLOR", false); err != nil {
		return Config{}, err
	}
	if cfg.ForceMono, err = readBool("PORTFOLIO_FORCE_MONO", false); err != nil {
		return Config{}, err
	}
	if cfg.ForceColor && cfg.ForceMono {
		return Config{}, fmt.Errorf("PORTFOLIO_FORCE_COLOR and PORTFOLIO_FORCE_MONO are mutually exclusive")
	}

	return cfg, nil
}

// HTTPAddr is the listen address of the web server.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// SSHAddr is the listen address of the terminal portfolio.
func (c Config) SSHAddr() string {
	return fmt.Sprintf("%s:%d", c.SSHHost, c.SSHPort)
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}

	return raw, nil
}

func readOptional(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}

	return parsed, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func readChoice(key, fallback string, choices ...string) (string, error) {
	raw, err := readRequiredOrDefault(key, fallback)
	if err != nil {
		return "", err
	}
	norm := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range choices {
		if norm == c {
			return norm, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s", key, strings.Join(choices, ", "))
}

func readURL(key, fallback string) (string, error) {
	raw, err := readRequiredOrDefault(key, fallback)
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s must be a valid URL: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%s must use http or https", key)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%s must include a host", key)
	}
	return raw, nil
}

func cleanPath(key, raw string) (string, error) {
	clean := filepath.Clean(raw)
	if clean == "." {
		return "", fmt.Errorf("%s must not resolve to current directory", key)
	}
	return clean, nil
}
