package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultMetarURLs = "https://metar.vatsim.net/EN,https://metar.vatsim.net/ESKS"
	defaultATISURL   = "https://data.vatsim.net/v3/vatsim-data.json"
)

// Config holds all runtime settings, populated from environment variables
// and the optional settings file.
type Config struct {
	LogLevel  string
	LogFormat string

	SettingsFile string
	Settings     Settings

	// SectorFile wins over SectorFolder. With neither set the default
	// EuroScope folders are searched.
	SectorFolder string
	SectorFile   string
	// RunwayFile defaults to the sector file with a .rwy extension.
	RunwayFile string

	MetarURLs     []string
	ATISURL       string
	ATISEnabled   bool
	FetchTimeout  time.Duration
	FetchAttempts int

	// Publishing to Kafka is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	MetricsTextfile string

	Timezone string
	Location *time.Location
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fetchTimeout, err := time.ParseDuration(envOrDefault("FETCH_TIMEOUT", "5s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	fetchAttempts, err := strconv.Atoi(envOrDefault("FETCH_ATTEMPTS", "3"))
	if err != nil || fetchAttempts < 1 || fetchAttempts > 10 {
		return nil, errors.New("FETCH_ATTEMPTS must be between 1 and 10")
	}

	atisEnabled, err := strconv.ParseBool(envOrDefault("ATIS_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid ATIS_ENABLED")
	}

	cfg := &Config{
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "text"),
		SettingsFile:    os.Getenv("SETTINGS_FILE"),
		SectorFolder:    os.Getenv("SECTOR_FOLDER"),
		SectorFile:      os.Getenv("SECTOR_FILE"),
		RunwayFile:      os.Getenv("RWY_FILE"),
		MetarURLs:       parseList(envOrDefault("METAR_URLS", defaultMetarURLs)),
		ATISURL:         envOrDefault("ATIS_URL", defaultATISURL),
		ATISEnabled:     atisEnabled,
		FetchTimeout:    fetchTimeout,
		FetchAttempts:   fetchAttempts,
		KafkaBrokers:    parseList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "runway-assignments"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		Timezone:        envOrDefault("TIMEZONE", "Europe/Oslo"),
	}

	if len(cfg.MetarURLs) == 0 {
		return nil, errors.New("METAR_URLS is required")
	}
	if cfg.ATISEnabled && cfg.ATISURL == "" {
		return nil, errors.New("ATIS_ENABLED is true but ATIS_URL is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, errors.New("LOG_FORMAT must be json or text")
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.SettingsFile != "" {
		cfg.Settings, err = LoadSettings(cfg.SettingsFile)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SectorFolders returns the folders searched for sector files.
func (c *Config) SectorFolders() []string {
	if c.SectorFolder != "" {
		return []string{c.SectorFolder}
	}
	var dirs []string
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "EuroScope"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Documents", "EuroScope"))
	}
	return dirs
}

// Settings is the operator-maintained settings file.
type Settings struct {
	// IgnoreAirports are stations left out of every cycle.
	IgnoreAirports []string `toml:"ignore_airports"`
	// DefaultRunways maps ICAO codes to the runway number used when nothing
	// else decides.
	DefaultRunways map[string]int `toml:"default_runways"`
}

// LoadSettings decodes and validates the TOML settings file at path.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("read settings file: unknown key %q", undecoded[0].String())
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings file %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// Validate checks ICAO codes and runway numbers.
func (s Settings) Validate() error {
	for _, icao := range s.IgnoreAirports {
		if len(icao) != 4 {
			return fmt.Errorf("ignore_airports: %q is not an ICAO code", icao)
		}
	}
	for icao, number := range s.DefaultRunways {
		if len(icao) != 4 {
			return fmt.Errorf("default_runways: %q is not an ICAO code", icao)
		}
		if number < 1 || number > 36 {
			return fmt.Errorf("default_runways: %s runway %d out of range 1-36", icao, number)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseList splits a comma separated value, dropping empty items.
func parseList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
