package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"object-mapper/internal/logger"
)

// EnvPrefix prefixes the environment variables read for settings, e.g.
// OBJECT_MAPPER_LOG_LEVEL.
const EnvPrefix = "OBJECT_MAPPER"

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDump = "dump"
)

// Settings are the command line settings, read from flags, environment and
// an optional config file, in that order of precedence.
type Settings struct {
	Log logger.Config `mapstructure:"log"`
	// Format is the output format of map and inverse.
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// flagKeys binds persistent flags to settings keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-output": "log.output",
	"format":     "format",
	"no-color":   "no_color",
}

// LoadSettings reads settings for cmd. path names an explicit config file;
// without one, "object-mapper.yaml" is looked up in the working directory
// and silently skipped when absent.
func LoadSettings(cmd *cobra.Command, path string) (*Settings, error) {
	v := viper.New()

	defaults := logger.DefaultConfig()
	v.SetDefault("log.level", defaults.Level)
	v.SetDefault("log.format", defaults.Format)
	v.SetDefault("log.output", defaults.Output)
	v.SetDefault("log.add_source", false)
	v.SetDefault("format", FormatJSON)
	v.SetDefault("no_color", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("object-mapper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return &s, nil
}

// Validate checks the settings that are not checked where they are used.
func (s *Settings) Validate() error {
	switch s.Format {
	case FormatJSON, FormatYAML, FormatDump:
	default:
		return fmt.Errorf("invalid output format %q, must be json, yaml or dump", s.Format)
	}

	if _, err := logger.ParseLevel(s.Log.Level); err != nil {
		return err
	}

	return nil
}
