package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080" env-description:"health server port, 0 disables it"`
		SentryUrl string `env:"SENTRY_URL"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
		LogDir    string `env:"LOG_DIR" env-default:"./logs"`
	}
	Storage struct {
		DataDir string `env:"DATA_DIR" env-default:"./data"`
	}
	Twitter struct {
		ApiUrl            string        `env:"TWITTER_API_URL" env-default:"https://api.twitter.com"`
		BearerToken       string        `env:"TWITTER_BEARER_TOKEN"`
		FetchTimeout      time.Duration `env:"TWITTER_FETCH_TIMEOUT" env-default:"2m"`
		MaxResults        int           `env:"TWITTER_MAX_RESULTS" env-default:"100"`
		MaxPages          int           `env:"TWITTER_MAX_PAGES" env-default:"3"`
		RequestsPerMinute int           `env:"TWITTER_REQUESTS_PER_MINUTE" env-default:"30"`
	}
	Telegram struct {
		Token               string `env:"TELEGRAM_TOKEN"`
		Channel             string `env:"TELEGRAM_CHANNEL"`
		MessagesPerMinute   int    `env:"TELEGRAM_MESSAGES_PER_MINUTE" env-default:"20" env-description:"channel posting pace, 0 disables pacing"`
		MaxMessagesPerBatch int    `env:"TELEGRAM_MAX_MESSAGES_PER_BATCH" env-default:"10" env-description:"newest tweets posted per cycle, 0 posts all"`
	}
	Postgres struct {
		Port      int           `env:"POSTGRES_PORT" env-default:"5432"`
		Host      string        `env:"POSTGRES_HOST"`
		User      string        `env:"POSTGRES_USER"`
		Pass      string        `env:"POSTGRES_PASS"`
		Name      string        `env:"POSTGRES_NAME"`
		SslMode   string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
		Retention time.Duration `env:"POSTGRES_RETENTION" env-default:"720h"`
	}
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

func New() (*Config, error) {
	once.Do(func() {
		// A missing .env is fine, the environment may already be populated.
		_ = godotenv.Load()

		c := &Config{}
		if err := cleanenv.ReadEnv(c); err != nil {
			help, _ := cleanenv.GetDescription(c, nil)
			loadErr = fmt.Errorf("failed to read configuration: %w\n%s", err, help)
			return
		}
		cfg = c
	})
	return cfg, loadErr
}

// TelegramEnabled reports whether new tweets should be posted to a channel.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.Channel != ""
}

// ArchiveEnabled reports whether accepted tweets are mirrored to Postgres.
func (c *Config) ArchiveEnabled() bool {
	return c.Postgres.Host != ""
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}
