package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	statikhttp "github.com/statikd/statikd/http"
	"github.com/statikd/statikd/rewrite"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for statikd.
type Config struct {
	Server      ServerConfig          `mapstructure:"server"`
	Content     ContentConfig         `mapstructure:"content"`
	Compression CompressionConfig     `mapstructure:"compression"`
	Rewrites    RewritesConfig        `mapstructure:"rewrites"`
	CORS        statikhttp.CORSConfig `mapstructure:"cors"`
	Log         LogConfig             `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// ContentConfig holds content root and delivery configuration.
type ContentConfig struct {
	Root            string   `mapstructure:"root" validate:"required"`
	IndexFiles      []string `mapstructure:"index_files"`
	Page404         string   `mapstructure:"page_404" validate:"omitempty,startswith=/"`
	CanonicalizeURI bool     `mapstructure:"canonicalize_uri"`
	ChunkSize       int      `mapstructure:"chunk_size" validate:"min=0"`
	DeclareCharset  string   `mapstructure:"declare_charset"`
	CharsetTypes    []string `mapstructure:"charset_types"`
}

// CompressionConfig holds precompressed and dynamic compression settings.
type CompressionConfig struct {
	Precompressed []string `mapstructure:"precompressed" validate:"dive,oneof=gz zz z br zst"`
	Dynamic       bool     `mapstructure:"dynamic"`
	Level         int      `mapstructure:"level" validate:"min=0,max=11"`
	Types         []string `mapstructure:"types"`
}

// RewritesConfig holds inline rewrite rules, plus an optional file with
// further rules appended after the inline ones.
type RewritesConfig struct {
	Rules     []rewrite.RuleConfig `mapstructure:"rules"`
	RulesFile string               `mapstructure:"rules_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":  "server.port",
	"root":  "content.root",
	"index": "content.index_files",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30) // seconds

	v.SetDefault("content.root", "./public")
	v.SetDefault("content.index_files", []string{"index.html"})
	v.SetDefault("content.canonicalize_uri", true)
	v.SetDefault("content.chunk_size", 0) // 0 selects the built-in default

	v.SetDefault("compression.dynamic", false)
	v.SetDefault("compression.level", 0) // 0 selects each encoder's default
	v.SetDefault("compression.types", []string{"text/*", "application/json", "application/javascript", "*+xml"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("STATIKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadRules returns the combined rewrite rule list, inline rules first
// followed by the contents of the rules file when one is configured. The
// rules file is a YAML sequence of rule objects.
func (c *RewritesConfig) LoadRules() ([]rewrite.RuleConfig, error) {
	rules := append([]rewrite.RuleConfig(nil), c.Rules...)
	if c.RulesFile == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(c.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", c.RulesFile, err)
	}
	var fromFile []rewrite.RuleConfig
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return nil, fmt.Errorf("parse rules file %q: %w", c.RulesFile, err)
	}
	return append(rules, fromFile...), nil
}
