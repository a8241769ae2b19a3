// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present, so local
// development does not need exported variables. Variables already set in the
// process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Defaults applied when a variable is unset.
const (
	DefaultPort        = 5000
	DefaultDBPath      = "data/weekly-notes.db"
	DefaultFrontendURL = "http://localhost:3000"
	DefaultTimezone    = "Africa/Cairo"
	DefaultSessionTTL  = 7 * 24 * time.Hour
)

// Config holds every setting the server needs.
type Config struct {
	Port     int
	LogLevel slog.Level

	StoreBackend            string
	DBPath                  string
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	FrontendURL string
	AdminEmails []string
	Location    *time.Location

	// WeeklyUnique overrides the built-in weekly-unique categories when set.
	WeeklyUnique   []string
	ReportFontPath string
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any key lookup function. Load passes
// os.LookupEnv; tests pass a map.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		Port:                    DefaultPort,
		LogLevel:                slog.LevelInfo,
		StoreBackend:            BackendSQLite,
		DBPath:                  DefaultDBPath,
		FirebaseProjectID:       get("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: get("FIREBASE_CREDENTIALS_FILE"),
		JWTSecret:               get("JWT_SECRET"),
		SessionTTL:              DefaultSessionTTL,
		GoogleClientID:          get("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:      get("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:       get("GOOGLE_CALLBACK_URL"),
		FrontendURL:             DefaultFrontendURL,
		AdminEmails:             splitList(get("ADMIN_EMAILS")),
		WeeklyUnique:            splitList(get("WEEKLY_UNIQUE_CATEGORIES")),
		ReportFontPath:          get("REPORT_FONT_PATH"),
	}

	var errs []error

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: invalid value %q", v))
		}
		cfg.Port = port
	}

	if v := get("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if v := strings.ToLower(get("STORE_BACKEND")); v != "" {
		cfg.StoreBackend = v
	}
	switch cfg.StoreBackend {
	case BackendSQLite:
		if v := get("DB_PATH"); v != "" {
			cfg.DBPath = v
		}
	case BackendFirestore:
		if cfg.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend))
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if v := get("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("SESSION_TTL: invalid duration %q", v))
		}
		cfg.SessionTTL = d
	}

	if v := get("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
		}
		cfg.CookieSecure = b
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required"))
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	if v := get("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = strings.TrimRight(v, "/")
	}

	tz := get("APP_TIMEZONE")
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	}
	cfg.Location = loc

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
