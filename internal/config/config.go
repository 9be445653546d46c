package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: PROMEMORIA_STORAGE__BACKEND=sqlite.
const EnvPrefix = "PROMEMORIA_"

// TokenEnv is the conventional variable holding the bot token.
const TokenEnv = "TELEGRAM_BOT_TOKEN"

type Config struct {
	Telegram  TelegramConfig  `koanf:"telegram"`
	Storage   StorageConfig   `koanf:"storage"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Timezone  string          `koanf:"timezone" validate:"omitempty,timezone"`
	Console   ConsoleConfig   `koanf:"console"`
}

type TelegramConfig struct {
	BotToken    string `koanf:"bot_token"`
	APIURL      string `koanf:"api_url" validate:"required,url"`
	PollTimeout int    `koanf:"poll_timeout" validate:"min=0,max=50"` // seconds
}

type StorageConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=json sqlite"`
	Dir        string `koanf:"dir" validate:"required_if=Backend json"`
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type SchedulerConfig struct {
	Enabled      bool `koanf:"enabled"`
	Interval     int  `koanf:"interval" validate:"min=1"`      // seconds
	InitialDelay int  `koanf:"initial_delay" validate:"min=0"` // seconds
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level       string `koanf:"level" validate:"oneof=debug info warn error"`
	Development bool   `koanf:"development"`
}

type ConsoleConfig struct {
	UserID        int64  `koanf:"user_id" validate:"min=1"`
	FirstName     string `koanf:"first_name"`
	ColoredOutput bool   `koanf:"colored_output"`
}

var validate = validator.New()

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if token := os.Getenv(TokenEnv); token != "" {
		k.Set("telegram.bot_token", token)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Dir = expandPath(cfg.Storage.Dir)
	cfg.Storage.SQLitePath = expandPath(cfg.Storage.SQLitePath)

	return &cfg, nil
}

// envKey maps PROMEMORIA_SCHEDULER__INITIAL_DELAY to scheduler.initial_delay.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateTelegram checks what the bot needs on top of Validate.
func (c *Config) ValidateTelegram() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (set %s or telegram.bot_token in the config file)", TokenEnv)
	}
	return nil
}

// Location resolves the configured timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

func (c *Config) SchedulerInitialDelay() time.Duration {
	return time.Duration(c.Scheduler.InitialDelay) * time.Second
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
