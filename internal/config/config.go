// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `toml:"schedule"`
	LLM      LLMConfig      `toml:"llm"`
	Calendar CalendarConfig `toml:"calendar"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
}

// ScheduleConfig holds the scheduling-engine settings.
type ScheduleConfig struct {
	WorkStart              string `toml:"work_start"`               // e.g., "09:00"
	WorkEnd                string `toml:"work_end"`                 // e.g., "18:00"
	DefaultDurationMinutes int    `toml:"default_duration_minutes"` // substituted when a task has no duration
	MinDurationMinutes     int    `toml:"min_duration_minutes"`     // duration floor
	DefaultPriority        int    `toml:"default_priority"`
	NoDueHorizonDays       int    `toml:"no_due_horizon_days"` // days searched forward when a task has no due date
	Timezone               string `toml:"timezone"`            // reference zone for all interval comparisons
	EventPrefix            string `toml:"event_prefix"`        // prefixed to calendar events the engine books
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "openai", "groq", "ollama"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
}

// CalendarConfig holds calendar adapter settings.
type CalendarConfig struct {
	CalendarID     string `toml:"calendar_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"` // bound on every adapter call
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			WorkStart:              "09:00",
			WorkEnd:                "18:00",
			DefaultDurationMinutes: 60,
			MinDurationMinutes:     30,
			DefaultPriority:        3,
			NoDueHorizonDays:       2,
			Timezone:               "America/Los_Angeles",
			EventPrefix:            "Tempo: ",
		},
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama-3.1-8b-instant",
		},
		Calendar: CalendarConfig{
			CalendarID:     "primary",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Server: ServerConfig{
			Addr: ":8787",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tempo.db"
	}
	return filepath.Join(home, ".local", "share", "tempo", "tempo.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "tempo", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPO_WORK_START"); v != "" {
		cfg.Schedule.WorkStart = v
	}
	if v := os.Getenv("TEMPO_WORK_END"); v != "" {
		cfg.Schedule.WorkEnd = v
	}
	if v := os.Getenv("TEMPO_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("TEMPO_DEFAULT_DURATION_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.DefaultDurationMinutes = n
		}
	}
	if v := os.Getenv("TEMPO_MIN_DURATION_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.MinDurationMinutes = n
		}
	}
	if v := os.Getenv("TEMPO_NO_DUE_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.NoDueHorizonDays = n
		}
	}

	if v := os.Getenv("TEMPO_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("TEMPO_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("TEMPO_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("TEMPO_CALENDAR_ID"); v != "" {
		cfg.Calendar.CalendarID = v
	}

	if v := os.Getenv("TEMPO_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("TEMPO_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateClock(c.Schedule.WorkStart, "work_start"); err != nil {
		return err
	}
	if err := validateClock(c.Schedule.WorkEnd, "work_end"); err != nil {
		return err
	}
	if c.Schedule.WorkStart >= c.Schedule.WorkEnd {
		return errors.New("work_start must be before work_end")
	}
	if c.Schedule.DefaultDurationMinutes <= 0 {
		return errors.New("default_duration_minutes must be positive")
	}
	if c.Schedule.MinDurationMinutes <= 0 {
		return errors.New("min_duration_minutes must be positive")
	}
	if c.Schedule.MinDurationMinutes > c.Schedule.DefaultDurationMinutes {
		return errors.New("min_duration_minutes cannot exceed default_duration_minutes")
	}
	if c.Schedule.NoDueHorizonDays < 0 {
		return errors.New("no_due_horizon_days cannot be negative")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	if c.Calendar.TimeoutSeconds <= 0 {
		return errors.New("calendar timeout_seconds must be positive")
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

// Location returns the configured reference time zone. Validate must
// have succeeded first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// validateClock checks if a time string is in HH:MM format.
func validateClock(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	if !isDigits(t[0:2]) || !isDigits(t[3:5]) {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
