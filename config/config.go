package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// ErrMissingAPIKey is returned by Load when no extraction provider key is set.
var ErrMissingAPIKey = errors.New("config: FIRECRAWL_API_KEY is required")

// Config holds all application configuration.
type Config struct {
	FirecrawlAPIKey  string `json:"-"`
	FirecrawlBaseURL string `json:"firecrawlBaseUrl"`

	MaxConcurrency       int    `json:"maxConcurrency"`
	RateLimitMs          int    `json:"rateLimitMs"`
	MaxRetries           int    `json:"maxRetries"`
	MaxCandidates        int    `json:"maxCandidates"`
	ListingLinkThreshold int    `json:"listingLinkThreshold"`
	BrowserFallback      bool   `json:"browserFallback"`
	ChromeBin            string `json:"chromeBin"`

	StoreDriver      string `json:"storeDriver"`
	DatabaseURL      string `json:"-"`
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     string `json:"postgresPort"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"-"`
	PostgresDB       string `json:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode"`
	SQLitePath       string `json:"sqlitePath"`

	Geocoder          string        `json:"geocoder"`
	GeocoderBaseURL   string        `json:"geocoderBaseUrl"`
	GeocoderUserAgent string        `json:"geocoderUserAgent"`
	GeocodeCacheTTL   time.Duration `json:"-"`

	CSVOutputPath string `json:"csvOutputPath"`
	LogLevel      string `json:"logLevel"`
	LogFormat     string `json:"logFormat"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		FirecrawlBaseURL: "https://api.firecrawl.dev/v1",

		MaxConcurrency:       3,
		RateLimitMs:          500,
		MaxRetries:           2,
		MaxCandidates:        25,
		ListingLinkThreshold: 20,

		StoreDriver:      "memory",
		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "auctions",
		PostgresDB:       "land_auctions",
		PostgresSSLMode:  "disable",
		SQLitePath:       "./data/auctions.db",

		Geocoder:          "nominatim",
		GeocoderBaseURL:   "https://nominatim.openstreetmap.org",
		GeocoderUserAgent: "land-auction-scraper/1.0",
		GeocodeCacheTTL:   24 * time.Hour,

		CSVOutputPath: "./output/auctions.csv",
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load builds the configuration from defaults, an optional JSON5 file
// (LANDAUCTION_CONFIG, default landauction.json5) and the environment,
// including a .env file if one exists. Later sources win. A missing API key
// is a configuration error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	path := getEnv("LANDAUCTION_CONFIG", "landauction.json5")
	if err := mergeFile(&cfg, path); err != nil {
		return nil, err
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fromFile Config
	if err := json5.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := mergo.Merge(cfg, fromFile, mergo.WithOverride); err != nil {
		return fmt.Errorf("config: merge %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.FirecrawlAPIKey = getEnv("FIRECRAWL_API_KEY", c.FirecrawlAPIKey)
	c.FirecrawlBaseURL = getEnv("FIRECRAWL_BASE_URL", c.FirecrawlBaseURL)

	c.MaxConcurrency = getEnvInt("MAX_CONCURRENCY", c.MaxConcurrency)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.MaxCandidates = getEnvInt("MAX_CANDIDATES", c.MaxCandidates)
	c.ListingLinkThreshold = getEnvInt("LISTING_LINK_THRESHOLD", c.ListingLinkThreshold)
	c.BrowserFallback = getEnvBool("BROWSER_FALLBACK", c.BrowserFallback)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)

	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.Geocoder = strings.ToLower(getEnv("GEOCODER", c.Geocoder))
	c.GeocoderBaseURL = getEnv("GEOCODER_BASE_URL", c.GeocoderBaseURL)
	c.GeocoderUserAgent = getEnv("GEOCODER_USER_AGENT", c.GeocoderUserAgent)
	c.GeocodeCacheTTL = getEnvDuration("GEOCODE_CACHE_TTL", c.GeocodeCacheTTL)

	c.CSVOutputPath = getEnv("CSV_OUTPUT_PATH", c.CSVOutputPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate reports configuration errors that must stop the process.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FirecrawlAPIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.StoreDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Geocoder {
	case "nominatim", "none":
	default:
		return fmt.Errorf("config: unknown GEOCODER %q", c.Geocoder)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("config: MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	}
	return nil
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RedactedKey returns the API key with all but the last four characters masked.
func (c *Config) RedactedKey() string {
	k := c.FirecrawlAPIKey
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err == nil {
			return d
		}
	}
	return fallback
}
