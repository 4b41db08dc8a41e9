package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DBFileName is the database file created under the data directory
const DBFileName = "diagnosis_hardware.db"

// LogConfig controls the diagnostic log sink
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config is the resolved runtime configuration
type Config struct {
	DB  string    `mapstructure:"db"`
	Log LogConfig `mapstructure:"log"`
}

// DefaultDir returns ~/.diag, falling back to the working directory when
// the home directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".diag"
	}
	return filepath.Join(home, ".diag")
}

// New returns a viper instance with defaults and DIAG_ environment bindings.
// Callers may bind command-line flags on top before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("db", filepath.Join(DefaultDir(), DBFileName))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "stderr")

	// DIAG_DB, DIAG_LOG_LEVEL, ...
	v.SetEnvPrefix("DIAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and unmarshals the result.
// An empty path looks for config.yaml in DefaultDir; a missing file there
// is not an error, but an explicit path that cannot be read is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DB == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	return &cfg, nil
}
