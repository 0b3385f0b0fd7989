// Package config loads shelf settings from the YAML config file, an optional
// .env file and SHELF_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "shelf"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override, e.g. SHELF_DATA_DIR.
	EnvPrefix = "SHELF"
	// DBFile is the database file name inside the data directory.
	DBFile = "shelf.db"
)

// Defaults.
const (
	DefaultDataDir   = "~/.local/share/shelf"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultPDFReader = "system"
)

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted log_format values.
var ValidLogFormats = []string{"console", "json"}

// ValidPDFReaders lists the accepted pdf_reader values.
var ValidPDFReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// ErrInvalid is returned when a setting has an unsupported value.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the shelf settings.
type Config struct {
	DataDir     string `yaml:"data_dir,omitempty" envconfig:"DATA_DIR"`
	LogLevel    string `yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format,omitempty" envconfig:"LOG_FORMAT"`
	MetricsFile string `yaml:"metrics_file,omitempty" envconfig:"METRICS_FILE"`
	PDFReader   string `yaml:"pdf_reader,omitempty" envconfig:"PDF_READER"`
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/shelf/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at Path, then .env, then the environment.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit config file path. A missing file is not
// an error.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.PDFReader == "" {
		c.PDFReader = DefaultPDFReader
	}
	c.DataDir = ExpandPath(c.DataDir)
	c.MetricsFile = ExpandPath(c.MetricsFile)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("%w: log_level %q (valid: %v)", ErrInvalid, c.LogLevel, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.LogFormat) {
		return fmt.Errorf("%w: log_format %q (valid: %v)", ErrInvalid, c.LogFormat, ValidLogFormats)
	}
	if !contains(ValidPDFReaders, c.PDFReader) {
		return fmt.Errorf("%w: pdf_reader %q (valid: %v)", ErrInvalid, c.PDFReader, ValidPDFReaders)
	}
	return nil
}

// DBPath returns the path to the shelf database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
