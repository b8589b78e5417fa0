package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bslcheck"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bslcheck settings.
const envPrefix = "BSLCHECK"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Load reads configuration from file, env vars, and defaults. If configPath
// is non-empty it is used as the explicit config file path; otherwise the
// config file is searched in CWD and $HOME. A missing config file is not an
// error; defaults apply.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("checks.unused", true)
	viperCfg.SetDefault("checks.uninitialized", true)
	viperCfg.SetDefault("checks.undeclared", true)
	viperCfg.SetDefault("checks.methods", false)

	viperCfg.SetDefault("rebuild.max_touched_fraction", 0.5)
	viperCfg.SetDefault("rebuild.max_touched_absolute", 25)

	viperCfg.SetDefault("report.format", "text")

	viperCfg.SetDefault("catalog.path", "")

	viperCfg.SetDefault("metrics.enabled", false)
	viperCfg.SetDefault("metrics.listen", "localhost:9465")
}
