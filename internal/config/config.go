// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Discord  DiscordConfig  `koanf:"discord"`
	Commerce CommerceConfig `koanf:"commerce"`
	Sync     SyncConfig     `koanf:"sync"`
	Bot      BotConfig      `koanf:"bot"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Otel     OtelConfig     `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

// DiscordConfig.GuildID scopes command registration to one server; empty
// registers the commands globally.
type DiscordConfig struct {
	Token    string `koanf:"token"     validate:"required"`
	ClientID string `koanf:"client_id" validate:"required,numeric"`
	GuildID  string `koanf:"guild_id"  validate:"omitempty,numeric"`
	Presence string `koanf:"presence"`
}

type CommerceConfig struct {
	BaseURL   string        `koanf:"base_url"   validate:"required,url"`
	Token     string        `koanf:"token"      validate:"required"`
	Timeout   time.Duration `koanf:"timeout"    validate:"gt=0"`
	UserAgent string        `koanf:"user_agent"`
}

// SyncConfig is the single product/role pair the sync command enforces.
type SyncConfig struct {
	ProductID int64  `koanf:"product_id" validate:"required"`
	RoleID    string `koanf:"role_id"    validate:"required,numeric"`
}

type BotConfig struct {
	CommandTimeout time.Duration `koanf:"command_timeout" validate:"gt=0"`
}

type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Error is returned by Load when the process cannot start with the
// values it was given. Problems lists one entry per offending value.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// DefaultPath is read when present; its absence is not an error.
const DefaultPath = "config.yaml"

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order of precedence. An explicitly named file
// must exist.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath == DefaultPath {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			configPath = ""
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "entitlement-bot",
		"app.version":     "1.0.0",
		"app.environment": "production",

		"discord.presence": "Checking purchases",

		"commerce.timeout":    "10s",
		"commerce.user_agent": "entitlement-bot/1.0",

		"bot.command_timeout": "14m",

		"server.enabled":          true,
		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "5s",
		"server.write_timeout":    "10s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "10s",

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "entitlement-bot",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"NODE_ENV":                    "app.environment",
	"DISCORD_TOKEN":               "discord.token",
	"CLIENT_ID":                   "discord.client_id",
	"DISCORD_CLIENT_ID":           "discord.client_id",
	"DISCORD_GUILD_ID":            "discord.guild_id",
	"DISCORD_PRESENCE":            "discord.presence",
	"API_BASE_URL":                "commerce.base_url",
	"API_TOKEN":                   "commerce.token",
	"API_TIMEOUT":                 "commerce.timeout",
	"PRODUCT_ID":                  "sync.product_id",
	"DISCORD_ROLE_ID":             "sync.role_id",
	"COMMAND_TIMEOUT":             "bot.command_timeout",
	"SERVER_ENABLED":              "server.enabled",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

// keyEnvMap names the preferred env var for each key in error messages.
var keyEnvMap = map[string]string{
	"app.environment":     "ENVIRONMENT",
	"discord.token":       "DISCORD_TOKEN",
	"discord.client_id":   "CLIENT_ID",
	"discord.guild_id":    "DISCORD_GUILD_ID",
	"commerce.base_url":   "API_BASE_URL",
	"commerce.token":      "API_TOKEN",
	"commerce.timeout":    "API_TIMEOUT",
	"sync.product_id":     "PRODUCT_ID",
	"sync.role_id":        "DISCORD_ROLE_ID",
	"bot.command_timeout": "COMMAND_TIMEOUT",
	"server.port":         "PORT",
	"log.level":           "LOG_LEVEL",
	"log.format":          "LOG_FORMAT",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validate(c *Config) error {
	var problems []string

	if err := newValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		problems = append(problems, "OTEL_INSECURE must be false in production")
	}

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}

	return nil
}

func describe(fe validator.FieldError) string {
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	name := key
	if envName, ok := keyEnvMap[key]; ok {
		name = envName
	}

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return name + " must be an absolute URL"
	case "numeric":
		return name + " must be a numeric snowflake id"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment enables verbose commerce API logging.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
