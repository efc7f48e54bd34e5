package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type APIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	PostsEndpoint   string `mapstructure:"posts_endpoint"`
	TermsEndpoint   string `mapstructure:"terms_endpoint"`
	PerPage         int    `mapstructure:"per_page"`
	Language        string `mapstructure:"language"`
	DefaultLanguage string `mapstructure:"default_language"`
}

type QueryConfig struct {
	// ExtraParams extends the default allow-list, typically with custom
	// taxonomy slugs.
	ExtraParams []string `mapstructure:"extra_params"`
	// OmitParams are kept locally but never written to the address bar.
	OmitParams []string `mapstructure:"omit_params"`
	// Rename maps internal keys to the external names used on the wire and
	// in the address bar.
	Rename map[string]string `mapstructure:"rename"`
}

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Query QueryConfig `mapstructure:"query"`
}

// cacheBase returns the base cache directory for postfeed.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/postfeed as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "postfeed")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "postfeed")
	}
	return filepath.Join(os.TempDir(), "postfeed")
}

// SnapshotDir returns the directory holding compressed page-cache snapshots.
func SnapshotDir() string {
	return filepath.Join(cacheBase(), "snapshots")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "postfeed"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "postfeed"))
	}

	viper.SetDefault("api.posts_endpoint", "/posts")
	viper.SetDefault("api.terms_endpoint", "/terms")
	viper.SetDefault("api.per_page", 10)
	viper.SetDefault("api.default_language", "en")

	viper.SetEnvPrefix("POSTFEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.API.BaseURL == "" {
		// AutomaticEnv does not surface env-only keys through AllSettings.
		config.API.BaseURL = viper.GetString("api.base_url")
	}
	if config.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is not configured")
	}
	config.API.BaseURL = strings.TrimRight(config.API.BaseURL, "/")

	return &config, nil
}
