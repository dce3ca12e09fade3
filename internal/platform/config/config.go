package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingToken indicates the bot token is not configured.
var ErrMissingToken = errors.New("DISCORD_TOKEN is required")

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`

	Discord DiscordConfig
	Fetch   FetchConfig
	Preview PreviewConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)
	normalize(cfg)

	return cfg, nil
}

// RequireToken reports ErrMissingToken when no bot token is set.
// Only the serve mode needs one.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return ErrMissingToken
	}

	return nil
}

// SourceEnabled reports whether the named previewer should be registered.
func (c *Config) SourceEnabled(source string) bool {
	if len(c.Preview.EnabledSources) == 0 {
		return true
	}

	for _, s := range c.Preview.EnabledSources {
		if strings.EqualFold(s, source) {
			return true
		}
	}

	return false
}

func applyAliases(cfg *Config) {
	if !hasEnv("DISCORD_TOKEN") {
		setStringFromEnv("BOT_TOKEN", &cfg.Discord.Token)
	}

	if !hasEnv("FETCH_TIMEOUT") {
		setDurationFromEnv("WEB_FETCH_TIMEOUT", &cfg.Fetch.Timeout)
	}

	if !hasEnv("FETCH_RPS") {
		setFloat64FromEnv("WEB_FETCH_RPS", &cfg.Fetch.RPS)
	}

	if !hasEnv("JUMP_SELECT_MIN_PAGES") {
		setIntFromEnv("JUMP_MIN_PAGES", &cfg.Preview.JumpSelectMinPages)
	}
}

func normalize(cfg *Config) {
	sources := cfg.Preview.EnabledSources[:0]

	for _, s := range cfg.Preview.EnabledSources {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			sources = append(sources, s)
		}
	}

	cfg.Preview.EnabledSources = sources
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setFloat64FromEnv(key string, target *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
