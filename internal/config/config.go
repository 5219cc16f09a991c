// Package config loads editor settings from defaults, an optional config
// file, a .env file and SPINE_EDITOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPINE_EDITOR_EDITOR_STRICT.
const EnvPrefix = "SPINE_EDITOR"

type Config struct {
	Editor    EditorConfig    `mapstructure:"editor" yaml:"editor"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	MCP       MCPConfig       `mapstructure:"mcp" yaml:"mcp"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
}

// EditorConfig controls erase and output behaviour.
type EditorConfig struct {
	// Strict makes erasing a missing animation or skin an error.
	Strict bool `mapstructure:"strict" yaml:"strict"`
	// SafeMode skips the clean pass after erasing.
	SafeMode     bool   `mapstructure:"safe_mode" yaml:"safe_mode"`
	ImagesFolder string `mapstructure:"images_folder" yaml:"images_folder"`
	Indent       int    `mapstructure:"indent" yaml:"indent"`
}

// StorageConfig locates the edit history.
type StorageConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

type WorkspaceConfig struct {
	Debounce    time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
}

type MCPConfig struct {
	SessionCacheSize int `mapstructure:"session_cache_size" yaml:"session_cache_size"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	// -- Editor --
	v.SetDefault("editor.strict", true)
	v.SetDefault("editor.safe_mode", false)
	v.SetDefault("editor.images_folder", "./images/")
	v.SetDefault("editor.indent", 4)

	// -- Storage --
	v.SetDefault("storage.path", ".spine-editor/history")
	v.SetDefault("storage.in_memory", false)

	// -- Workspace --
	v.SetDefault("workspace.debounce", "500ms")
	v.SetDefault("workspace.concurrency", 4)

	// -- MCP --
	v.SetDefault("mcp.session_cache_size", 16)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "spine-editor")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// Default returns the configuration built from defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load reads .env (when present), then path (or ./spine-editor.yaml when path
// is empty and the file exists) and finally the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("spine-editor")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Editor.Indent < 0 {
		return fmt.Errorf("editor.indent must not be negative")
	}
	if c.Workspace.Concurrency <= 0 {
		return fmt.Errorf("workspace.concurrency must be a positive integer")
	}
	if c.Workspace.Debounce < 0 {
		return fmt.Errorf("workspace.debounce must not be negative")
	}
	if c.MCP.SessionCacheSize <= 0 {
		return fmt.Errorf("mcp.session_cache_size must be a positive integer")
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}
	return nil
}
