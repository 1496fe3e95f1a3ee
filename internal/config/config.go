package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vango-dev/vstate/internal/errors"
	"github.com/vango-dev/vstate/pkg/storage"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vstate.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "VSTATE_"

	// DefaultBackend is the storage backend used when none is configured.
	DefaultBackend = "file"

	// DefaultDir is the FileAdapter directory.
	DefaultDir = ".vstate"

	// DefaultPath is the SQLite database path.
	DefaultPath = "vstate.db"

	// DefaultAddr is the debug server listen address.
	DefaultAddr = "localhost:7070"

	// DefaultTimeout bounds a single storage call made by the CLI.
	DefaultTimeout = "10s"
)

// Backends lists the accepted storage.backend values.
var Backends = []string{"memory", "file", "sqlite", "s3"}

// Config represents the vstate.json configuration.
type Config struct {
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `json:"storage"`

	// HTTP configures the debug server.
	HTTP HTTPConfig `json:"http"`

	// Log configures the process logger.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StorageConfig contains storage backend settings.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite or s3.
	Backend string `json:"backend,omitempty"`

	// Dir is the directory of the file backend.
	Dir string `json:"dir,omitempty"`

	// Path is the database file of the sqlite backend.
	Path string `json:"path,omitempty"`

	// Bucket, Prefix and Region configure the s3 backend. Endpoint points
	// it at an S3-compatible service instead of AWS.
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// Codec is json or yaml.
	Codec string `json:"codec,omitempty"`

	// Timeout bounds each storage call (e.g., "10s").
	Timeout string `json:"timeout,omitempty"`
}

// HTTPConfig contains debug server settings.
type HTTPConfig struct {
	Addr string `json:"addr,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads vstate.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create vstate.json or pass --config")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Resolve builds the effective configuration for the CLI: a .env file in
// the working directory is loaded if present, then the config file, then
// VSTATE_* overrides. An empty path means vstate.json in the working
// directory and tolerates its absence; an explicit path must exist.
func Resolve(path string) (*Config, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}

	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = LoadFile(ConfigFileName)
		if errors.HasCode(err, "E100") {
			cfg, err = New(), nil
		}
	} else {
		cfg, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads environment variables from the named files, ".env"
// when none are given. Missing files are ignored; variables already set
// in the environment are not overwritten.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.New("E103").WithDetail("Failed to read " + f).Wrap(err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from VSTATE_* environment variables.
func (c *Config) ApplyEnv() error {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"STORAGE_BACKEND", &c.Storage.Backend},
		{"STORAGE_DIR", &c.Storage.Dir},
		{"STORAGE_PATH", &c.Storage.Path},
		{"STORAGE_CODEC", &c.Storage.Codec},
		{"STORAGE_TIMEOUT", &c.Storage.Timeout},
		{"S3_BUCKET", &c.Storage.Bucket},
		{"S3_PREFIX", &c.Storage.Prefix},
		{"S3_REGION", &c.Storage.Region},
		{"S3_ENDPOINT", &c.Storage.Endpoint},
		{"HTTP_ADDR", &c.HTTP.Addr},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(EnvPrefix + o.name); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				return errors.New("E103").
					WithDetailf("%s%s is set but empty", EnvPrefix, o.name).
					WithSuggestion("Unset the variable to keep the configured value")
			}
			*o.dst = v
		}
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultDir
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultPath
	}
	if c.Storage.Codec == "" {
		c.Storage.Codec = storage.JSONCodec{}.Name()
	}
	if c.Storage.Timeout == "" {
		c.Storage.Timeout = DefaultTimeout
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	backendOK := false
	for _, b := range Backends {
		if c.Storage.Backend == b {
			backendOK = true
		}
	}
	if !backendOK {
		return errors.New("E102").
			WithDetailf("unknown storage backend %q", c.Storage.Backend).
			WithSuggestion("Use one of: " + strings.Join(Backends, ", "))
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return errors.New("E102").
			WithDetail("the s3 backend needs storage.bucket").
			WithSuggestion("Set storage.bucket or VSTATE_S3_BUCKET")
	}
	if _, ok := storage.CodecByName(c.Storage.Codec); !ok {
		return errors.New("E102").
			WithDetailf("unknown codec %q", c.Storage.Codec).
			WithSuggestion("Use json or yaml")
	}
	if _, err := time.ParseDuration(c.Storage.Timeout); err != nil {
		return errors.New("E102").
			WithDetailf("invalid storage.timeout %q", c.Storage.Timeout).
			Wrap(err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E102").
			WithDetailf("unknown log format %q", c.Log.Format).
			WithSuggestion("Use text or json")
	}
	return nil
}

// Codec returns the configured codec, JSON when unknown.
func (c *Config) Codec() storage.Codec {
	if codec, ok := storage.CodecByName(c.Storage.Codec); ok {
		return codec
	}
	return storage.JSONCodec{}
}

// Timeout returns the parsed storage timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Storage.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E102").
			WithDetailf("invalid log level %q", c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	return lvl, nil
}

// ResolvePath makes a relative path relative to the config file's
// directory. Paths are returned unchanged when no file was loaded.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir() == "" {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
