package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jonsim/robot-trace/internal/bridge"
)

// EnvPrefix prefixes every environment override, e.g. ROBOT_TRACE_VERBOSITY.
const EnvPrefix = "ROBOT_TRACE"

// FileName is the config file name searched for, without extension.
const FileName = "robot-trace"

// Config holds all robot-trace configuration
type Config struct {
	Verbosity       string `yaml:"verbosity" mapstructure:"verbosity"`
	Colors          string `yaml:"colors" mapstructure:"colors"`
	ConsoleProgress string `yaml:"console_progress" mapstructure:"console_progress"`
	Width           int    `yaml:"width" mapstructure:"width"` // Maximum box width, clamped to the terminal

	// Engine settings
	RobotCommand string `yaml:"robot_command" mapstructure:"robot_command"` // Shell-style command line that starts Robot
	Listener     string `yaml:"listener" mapstructure:"listener"`           // Listener bridge passed to --listener
	CountTests   bool   `yaml:"count_tests" mapstructure:"count_tests"`     // Pre-count go tests with -list

	// RecordFile, when set, receives a JSON-lines copy of every event for
	// later replay.
	RecordFile string `yaml:"record_file,omitempty" mapstructure:"record_file"`

	// Diagnostics
	LogFile       string `yaml:"log_file,omitempty" mapstructure:"log_file"`
	LogLevel      string `yaml:"log_level" mapstructure:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups" mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days" mapstructure:"log_max_age_days"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Verbosity:       "NORMAL",
		Colors:          string(ColorsAuto),
		ConsoleProgress: string(ProgressAuto),
		Width:           120,
		RobotCommand:    "robot",
		Listener:        bridge.Module,
		CountTests:      true,
		LogLevel:        "info",
		LogMaxSizeMB:    10,
		LogMaxBackups:   3,
		LogMaxAgeDays:   7,
	}
}

// VerbosityLevel returns the parsed verbosity.
func (c *Config) VerbosityLevel() Verbosity { return ParseVerbosity(c.Verbosity) }

// ColorMode returns the parsed color mode.
func (c *Config) ColorMode() ColorMode { return ParseColorMode(c.Colors) }

// ProgressMode returns the parsed progress mode.
func (c *Config) ProgressMode() ProgressMode { return ParseProgressMode(c.ConsoleProgress) }

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if strings.TrimSpace(c.RobotCommand) == "" {
		return fmt.Errorf("robot_command is required")
	}
	if c.Listener == "" {
		return fmt.Errorf("listener is required")
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must not be negative")
	}
	return nil
}

// New returns a viper instance seeded with the defaults and environment
// bindings. Command-line flags are bound onto it by the caller.
func New() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("verbosity", def.Verbosity)
	v.SetDefault("colors", def.Colors)
	v.SetDefault("console_progress", def.ConsoleProgress)
	v.SetDefault("width", def.Width)
	v.SetDefault("robot_command", def.RobotCommand)
	v.SetDefault("listener", def.Listener)
	v.SetDefault("count_tests", def.CountTests)
	v.SetDefault("record_file", def.RecordFile)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_max_size_mb", def.LogMaxSizeMB)
	v.SetDefault("log_max_backups", def.LogMaxBackups)
	v.SetDefault("log_max_age_days", def.LogMaxAgeDays)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the merged result. An
// explicit path must exist; otherwise a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
