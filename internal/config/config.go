package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STRIDE_STORE_BACKEND
const EnvPrefix = "STRIDE"

// Store backends
const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
	BackendMongo  = "mongo"
)

// Config represents the application configuration
type Config struct {
	Owner   string        `json:"owner" mapstructure:"owner"`
	Store   StoreConfig   `json:"store" mapstructure:"store"`
	Remote  RemoteConfig  `json:"remote" mapstructure:"remote"`
	Mongo   MongoConfig   `json:"mongo" mapstructure:"mongo"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Display DisplayConfig `json:"display" mapstructure:"display"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
}

// StoreConfig selects where runs and rewards are kept
type StoreConfig struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"` // SQLite file, empty for the default
}

// RemoteConfig holds the REST backend endpoint and credentials
type RemoteConfig struct {
	URL          string        `json:"url" mapstructure:"url"`
	APIKey       string        `json:"api_key" mapstructure:"api_key"`
	AccessToken  string        `json:"access_token" mapstructure:"access_token"`
	RefreshToken string        `json:"refresh_token" mapstructure:"refresh_token"`
	TokenURL     string        `json:"token_url" mapstructure:"token_url"`
	ClientID     string        `json:"client_id" mapstructure:"client_id"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
}

// MongoConfig holds the MongoDB connection settings
type MongoConfig struct {
	URI      string `json:"uri" mapstructure:"uri"`
	Database string `json:"database" mapstructure:"database"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Address string `json:"address" mapstructure:"address"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit" mapstructure:"distance_unit"`
	PaceUnit     string `json:"pace_unit" mapstructure:"pace_unit"`
}

// LogConfig selects the logger mode and level
type LogConfig struct {
	Mode  string `json:"mode" mapstructure:"mode"`
	Level string `json:"level" mapstructure:"level"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Owner: "me",
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Remote: RemoteConfig{
			Timeout: 30 * time.Second,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "stride",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
	}
}

// setDefaults registers every key so environment overrides apply even when
// the file leaves a key out
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("owner", d.Owner)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("remote.url", d.Remote.URL)
	v.SetDefault("remote.api_key", d.Remote.APIKey)
	v.SetDefault("remote.access_token", d.Remote.AccessToken)
	v.SetDefault("remote.refresh_token", d.Remote.RefreshToken)
	v.SetDefault("remote.token_url", d.Remote.TokenURL)
	v.SetDefault("remote.client_id", d.Remote.ClientID)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("display.distance_unit", d.Display.DistanceUnit)
	v.SetDefault("display.pace_unit", d.Display.PaceUnit)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads ~/.stride/config.json with STRIDE_* environment overrides.
// When the file is missing it returns ErrNoConfig together with a config
// built from defaults and the environment.
func Load() (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.json from dir
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var missing bool
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		missing = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if missing {
		return &cfg, ErrNoConfig
	}
	return &cfg, nil
}

// Save writes the configuration to ~/.stride/config.json
func Save(cfg *Config) error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes config.json into dir
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file may hold tokens
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Remote.URL = "https://YOUR_PROJECT.supabase.co"
	example.Remote.APIKey = "YOUR_API_KEY"
	return SaveTo(dir, &example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("owner is required")
	}

	switch c.Store.Backend {
	case BackendSQLite:
	case BackendREST:
		if c.Remote.URL == "" || strings.Contains(c.Remote.URL, "YOUR_PROJECT") {
			return errors.New("remote.url is required for the rest backend")
		}
		if c.Remote.APIKey == "" || c.Remote.APIKey == "YOUR_API_KEY" {
			return errors.New("remote.api_key is required for the rest backend")
		}
		if c.Remote.RefreshToken != "" && (c.Remote.TokenURL == "" || c.Remote.ClientID == "") {
			return errors.New("remote.token_url and remote.client_id are required to refresh tokens")
		}
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri and mongo.database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q, %q or %q, got %q", BackendSQLite, BackendREST, BackendMongo, c.Store.Backend)
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if c.Log.Mode != "" && c.Log.Mode != "dev" && c.Log.Mode != "prod" {
		return fmt.Errorf("log.mode must be \"dev\" or \"prod\", got %q", c.Log.Mode)
	}

	return nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".stride"), nil
}
