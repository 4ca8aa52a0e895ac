package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lueurxax/postmeta/internal/core/domain"
)

const appEnvLocal = "local"

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Database DatabaseConfig
	HTTP     HTTPConfig
	Fetch    FetchConfig
	VK       VKConfig
	Output   OutputConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	return cfg, nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == appEnvLocal
}

// StorageEnabled reports whether a database is configured.
func (c *Config) StorageEnabled() bool {
	return strings.TrimSpace(c.Database.PostgresDSN) != ""
}

// Limits converts the output settings into normalization limits.
func (c *Config) Limits() domain.Limits {
	return domain.Limits{
		TitleMaxChars:       c.Output.TitleMaxChars,
		DescriptionMaxChars: c.Output.DescriptionMaxChars,
		MediaMaxItems:       c.Output.MediaMaxItems,
		DefaultTitle:        c.Output.DefaultTitle,
	}.WithDefaults()
}

// applyLegacyAliases honors variable names used by earlier deployments
// when the current name is not set.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("VK_ACCESS_TOKEN") {
		setStringFromEnv("VK_SERVICE_KEY", &cfg.VK.AccessToken)
	}

	if !hasEnv("HTTP_PORT") {
		setIntFromEnv("PORT", &cfg.HTTP.Port)
	}

	if !hasEnv("POSTGRES_DSN") {
		setStringFromEnv("DATABASE_URL", &cfg.Database.PostgresDSN)
	}
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
