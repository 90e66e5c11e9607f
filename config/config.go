package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RasterizerChrome = "chrome"
	RasterizerNative = "native"

	UploadHTTP  = "http"
	UploadDrive = "drive"
)

// Config holds the runtime settings read from the environment
type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	// Google Drive
	CredentialsPath      string
	CredentialsJSON      string
	DesignsFolderID      string
	CapturesFolderID     string
	UploadBackend        string
	UploadEndpoint       string
	UploadTimeoutPreview time.Duration
	UploadTimeoutHD      time.Duration

	// Capture
	Rasterizer    string
	ChromePath    string
	ChromeTimeout time.Duration
	AssetCacheDir string
	SettleDelay   time.Duration
	RegenPause    time.Duration
	DOMAttempts   int
	DOMInterval   time.Duration

	// Cart
	PricingFile     string
	MaxCartLines    int
	MaxQuantity     int
	AddsPerMinute   int
	AIEndpoint      string
	AIDailyQuota    int
	AllowedOrigin   string
	VerboseCaptures bool
}

// Load reads the configuration from environment variables, applying defaults
func Load() (*Config, error) {
	cfg := &Config{
		Env:             getString("ENV", "development"),
		Port:            strings.TrimPrefix(getString("PORT", "8080"), ":"),
		CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsJSON: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
		DesignsFolderID: os.Getenv("DRIVE_DESIGNS_FOLDER_ID"),

		CapturesFolderID: os.Getenv("DRIVE_CAPTURES_FOLDER_ID"),
		UploadBackend:    strings.ToLower(getString("UPLOAD_BACKEND", UploadHTTP)),
		UploadEndpoint:   os.Getenv("UPLOAD_ENDPOINT"),
		Rasterizer:       strings.ToLower(getString("RASTERIZER", RasterizerChrome)),
		ChromePath:       os.Getenv("CHROME_PATH"),
		AssetCacheDir:    getString("ASSET_CACHE_DIR", "cache/assets"),
		PricingFile:      getString("PRICING_CONFIG", "pricing.json"),
		AIEndpoint:       os.Getenv("AI_IMAGE_ENDPOINT"),
		AllowedOrigin:    getString("ALLOWED_ORIGIN", "*"),
	}

	var err error
	if cfg.DatabaseURL, err = databaseURL(); err != nil {
		return nil, err
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"UPLOAD_TIMEOUT_PREVIEW", 15 * time.Second, &cfg.UploadTimeoutPreview},
		{"UPLOAD_TIMEOUT_HD", 60 * time.Second, &cfg.UploadTimeoutHD},
		{"CHROME_TIMEOUT", 90 * time.Second, &cfg.ChromeTimeout},
		{"CAPTURE_SETTLE_DELAY", 500 * time.Millisecond, &cfg.SettleDelay},
		{"REGENERATION_PAUSE", 2 * time.Second, &cfg.RegenPause},
		{"CAPTURE_DOM_INTERVAL", 200 * time.Millisecond, &cfg.DOMInterval},
	}
	for _, d := range durations {
		if *d.dest, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"CAPTURE_DOM_ATTEMPTS", 20, &cfg.DOMAttempts},
		{"CART_MAX_LINES", 50, &cfg.MaxCartLines},
		{"CART_MAX_QUANTITY", 99, &cfg.MaxQuantity},
		{"CART_ADDS_PER_MINUTE", 10, &cfg.AddsPerMinute},
		{"AI_DAILY_QUOTA", 3, &cfg.AIDailyQuota},
	}
	for _, i := range ints {
		if *i.dest, err = getInt(i.key, i.def); err != nil {
			return nil, err
		}
	}

	if cfg.VerboseCaptures, err = getBool("CAPTURE_VERBOSE", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDriveCredentials reports whether a Drive client can be built
func (c *Config) HasDriveCredentials() bool {
	return c.CredentialsJSON != "" || c.CredentialsPath != ""
}

func (c *Config) validate() error {
	switch c.Rasterizer {
	case RasterizerChrome, RasterizerNative:
	default:
		return fmt.Errorf("RASTERIZER must be %q or %q, got %q", RasterizerChrome, RasterizerNative, c.Rasterizer)
	}
	switch c.UploadBackend {
	case UploadHTTP:
		if c.UploadEndpoint == "" {
			log.Printf("⚠️ UPLOAD_ENDPOINT is not set, captures will fail to upload")
		}
	case UploadDrive:
		if !c.HasDriveCredentials() {
			return fmt.Errorf("UPLOAD_BACKEND=drive requires GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS_JSON")
		}
		if c.CapturesFolderID == "" {
			return fmt.Errorf("UPLOAD_BACKEND=drive requires DRIVE_CAPTURES_FOLDER_ID")
		}
	default:
		return fmt.Errorf("UPLOAD_BACKEND must be %q or %q, got %q", UploadHTTP, UploadDrive, c.UploadBackend)
	}
	if c.MaxQuantity < 1 || c.MaxCartLines < 1 || c.DOMAttempts < 1 {
		return fmt.Errorf("cart limits and DOM attempts must be positive")
	}
	return nil
}

// databaseURL uses DATABASE_URL or builds a DSN from the DB_* variables
func databaseURL() (string, error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr, nil
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, getString("DB_PORT", "5432"), user, os.Getenv("DB_PASSWORD"), dbname, getString("DB_SSLMODE", "disable")), nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getDuration accepts Go durations ("500ms") or plain milliseconds ("500")
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
