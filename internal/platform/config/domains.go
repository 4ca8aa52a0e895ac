package config

import "time"

// DatabaseConfig holds database connection settings. An empty DSN disables
// the news import endpoint.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port             int    `env:"HTTP_PORT" envDefault:"8080"`
	RatePerMinute    int    `env:"API_RATE_PER_MINUTE" envDefault:"60"`
	AdminAPIToken    string `env:"ADMIN_API_TOKEN"`
	RequestBodyLimit int64  `env:"API_BODY_LIMIT_BYTES" envDefault:"1048576"`
}

// FetchConfig holds outbound page fetch settings.
type FetchConfig struct {
	UserAgent string        `env:"USER_AGENT"`
	RPS       float64       `env:"WEB_FETCH_RPS" envDefault:"5"`
	Timeout   time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"15s"`
}

// VKConfig holds VK API settings.
type VKConfig struct {
	APIBaseURL    string `env:"VK_API_BASE_URL" envDefault:"https://api.vk.ru/method"`
	APIVersion    string `env:"VK_API_VERSION" envDefault:"5.199"`
	AccessToken   string `env:"VK_ACCESS_TOKEN"`
	DefaultDomain string `env:"VK_DEFAULT_DOMAIN"`
	BatchMaxCount int    `env:"VK_BATCH_MAX_COUNT" envDefault:"100"`
}

// OutputConfig bounds the normalized post.
type OutputConfig struct {
	MediaMaxItems       int    `env:"MEDIA_MAX_ITEMS" envDefault:"15"`
	DescriptionMaxChars int    `env:"DESCRIPTION_MAX_CHARS" envDefault:"255"`
	TitleMaxChars       int    `env:"TITLE_MAX_CHARS" envDefault:"100"`
	DefaultTitle        string `env:"DEFAULT_TITLE" envDefault:"Новости"`
	MediaRulesPath      string `env:"MEDIA_RULES_PATH"`
}
