package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigName is the base name of the config file searched in $HOME.
const ConfigName = ".guardly-cli"

// Settings is the typed view of everything read from file, env and flags.
type Settings struct {
	APIURL   string `mapstructure:"api_url"`
	WSURL    string `mapstructure:"ws_url"`
	PageSize int    `mapstructure:"page_size"`

	Retry     RetrySettings     `mapstructure:"retry"`
	Feed      FeedSettings      `mapstructure:"feed"`
	Dashboard DashboardSettings `mapstructure:"dashboard"`
	Log       LogSettings       `mapstructure:"log"`
}

type RetrySettings struct {
	Count   int           `mapstructure:"count"`
	Wait    time.Duration `mapstructure:"wait"`
	MaxWait time.Duration `mapstructure:"max_wait"`
}

type FeedSettings struct {
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	MaxFPS         float64       `mapstructure:"max_fps"`
}

type DashboardSettings struct {
	Listen        string        `mapstructure:"listen"`
	SessionSecret string        `mapstructure:"session_secret"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	ConfigTTL     time.Duration `mapstructure:"config_ttl"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://127.0.0.1:8000")
	v.SetDefault("ws_url", "")
	v.SetDefault("page_size", 5)

	v.SetDefault("retry.count", 3)
	v.SetDefault("retry.wait", 500*time.Millisecond)
	v.SetDefault("retry.max_wait", 5*time.Second)

	v.SetDefault("feed.backoff_initial", 500*time.Millisecond)
	v.SetDefault("feed.backoff_max", 30*time.Second)
	v.SetDefault("feed.max_attempts", 10)
	v.SetDefault("feed.max_fps", 15.0)

	v.SetDefault("dashboard.listen", ":8080")
	v.SetDefault("dashboard.session_secret", "")
	v.SetDefault("dashboard.cache_ttl", 5*time.Minute)
	v.SetDefault("dashboard.config_ttl", 15*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) error {
	SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}

		// Search config in home directory with name ".guardly-cli" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(ConfigName)
	}

	// GUARDLY_API_URL, GUARDLY_FEED_MAX_FPS, ...
	viper.SetEnvPrefix("guardly")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

// Load decodes the global viper state into Settings.
func Load() (Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes an explicit viper instance; tests use a fresh one.
func LoadFrom(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.APIURL == "":
		return errors.New("config: api_url must be set")
	case !strings.HasPrefix(s.APIURL, "http://") && !strings.HasPrefix(s.APIURL, "https://"):
		return fmt.Errorf("config: api_url %q must start with http:// or https://", s.APIURL)
	case s.PageSize <= 0:
		return fmt.Errorf("config: page_size must be positive, got %d", s.PageSize)
	case s.Retry.Count < 0:
		return fmt.Errorf("config: retry.count must not be negative, got %d", s.Retry.Count)
	case s.Feed.MaxAttempts <= 0:
		return fmt.Errorf("config: feed.max_attempts must be positive, got %d", s.Feed.MaxAttempts)
	case s.Feed.BackoffInitial <= 0 || s.Feed.BackoffMax < s.Feed.BackoffInitial:
		return fmt.Errorf("config: feed backoff must satisfy 0 < backoff_initial <= backoff_max")
	}
	return nil
}

// Save updates one key in the config file, creating the file on first use.
func Save(key string, value any) error {
	viper.Set(key, value)

	// Ensure the file exists before writing
	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return viper.SafeWriteConfig()
		}
		// If it exists but failed to write, try writing to default path
		home, herr := os.UserHomeDir()
		if herr != nil {
			return fmt.Errorf("write config: %w", err)
		}
		return viper.WriteConfigAs(filepath.Join(home, ConfigName+".yaml"))
	}
	return nil
}
