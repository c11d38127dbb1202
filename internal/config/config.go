package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Analysis AnalysisConfig
	Media    MediaConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
	Log      LogConfig
	UI       UIConfig
}

// AnalysisConfig points at the remote analysis service.
type AnalysisConfig struct {
	Endpoint string
	Timeout  time.Duration
	TokenEnv string `mapstructure:"token_env"`
	Token    string
}

// MediaConfig holds the slide library location.
type MediaConfig struct {
	Library string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// CatalogConfig locates the variant catalogue file.
type CatalogConfig struct {
	Path string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Path        string
	Level       string
	Environment string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DefaultVariant string `mapstructure:"default_variant"`
}

// Load reads configuration from file and env. Env var overrides use prefix PATHOSCREEN_.
func Load() (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("analysis.endpoint", "http://localhost:8000/analyze")
	v.SetDefault("analysis.timeout", "60s")
	v.SetDefault("analysis.token_env", "PATHOSCREEN_TOKEN")
	v.SetDefault("analysis.token", "")
	v.SetDefault("media.library", filepath.Join(home, "Pictures"))
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "pathoscreen", "pathoscreen.db"))
	v.SetDefault("catalog.path", filepath.Join(home, ".config", "pathoscreen", "variants.toml"))
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "pathoscreen", "pathoscreen.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "production")
	v.SetDefault("ui.default_variant", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PATHOSCREEN_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "pathoscreen"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PATHOSCREEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if strings.TrimSpace(c.Analysis.Endpoint) == "" {
		return Config{}, fmt.Errorf("analysis.endpoint is required")
	}
	return c, nil
}

// Path is where Save writes: PATHOSCREEN_CONFIG, or config.toml in the user config dir.
func Path() string {
	if p := os.Getenv("PATHOSCREEN_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "pathoscreen", "config.toml")
}

// Save writes the provided config to Path, creating the config directory if needed.
// The token is never written; it belongs in the secret store or the environment.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("analysis.endpoint", cfg.Analysis.Endpoint)
	v.Set("analysis.timeout", cfg.Analysis.Timeout.String())
	v.Set("analysis.token_env", cfg.Analysis.TokenEnv)
	v.Set("media.library", cfg.Media.Library)
	v.Set("database.path", cfg.Database.Path)
	v.Set("catalog.path", cfg.Catalog.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.environment", cfg.Log.Environment)
	v.Set("ui.default_variant", cfg.UI.DefaultVariant)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
