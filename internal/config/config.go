package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissing is returned when a value required by the selected mode is unset.
var ErrMissing = errors.New("missing required configuration")

// Config holds migration configuration, read once at startup.
type Config struct {
	WPHost              string   `env:"WP_HOST"`
	WPScheme            string   `env:"WP_SCHEME" envDefault:"https"`
	WPMigrationEndpoint string   `env:"WP_MIGRATION_ENDPOINT"`
	WPUser              string   `env:"WP_REST_API_USER"`
	WPPassword          string   `env:"WP_REST_API_PW"`
	WPPageSize          int      `env:"WP_PAGE_SIZE" envDefault:"25"`
	WPSamplePageSize    int      `env:"WP_SAMPLE_PAGE_SIZE" envDefault:"5"`
	QuestionTypes       []string `env:"WP_QUESTION_TYPES" envDefault:"angiogram,ecg,echo,cv_image" envSeparator:","`

	CTFToken       string `env:"CTF_TOKEN"`
	CTFSpaceID     string `env:"CTF_SPACE_ID"`
	CTFEnv         string `env:"CTF_ENV" envDefault:"master"`
	CTFLocale      string `env:"CTF_LOCALE" envDefault:"en-US"`
	CTFBaseURL     string `env:"CTF_BASE_URL" envDefault:"https://api.contentful.com"`
	CTFContentType string `env:"CTF_CONTENT_TYPE" envDefault:"question"`

	DataDir          string        `env:"MIGRATE_DATA_DIR" envDefault:"data"`
	PaceInterval     time.Duration `env:"MIGRATE_PACE_INTERVAL" envDefault:"500ms"`
	SampleLimit      int           `env:"MIGRATE_SAMPLE_LIMIT" envDefault:"2"`
	MediaConcurrency int           `env:"MIGRATE_MEDIA_CONCURRENCY" envDefault:"1"`
	HTTPTimeout      time.Duration `env:"MIGRATE_HTTP_TIMEOUT" envDefault:"30s"`
	RedisURL         string        `env:"MIGRATE_REDIS_URL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file from the working directory, if present, and then
// parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	types := cfg.QuestionTypes[:0]
	for _, t := range cfg.QuestionTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	cfg.QuestionTypes = types

	if cfg.SampleLimit < 0 {
		cfg.SampleLimit = 0
	}
	if cfg.MediaConcurrency < 1 {
		cfg.MediaConcurrency = 1
	}
	return &cfg, nil
}

// WordPressBaseURL returns the REST API root, e.g. https://example.com/wp-json/.
func (c *Config) WordPressBaseURL() string {
	return fmt.Sprintf("%s://%s/wp-json/", c.WPScheme, strings.TrimSuffix(c.WPHost, "/"))
}

// WordPressAuth reports whether Basic auth credentials are configured.
func (c *Config) WordPressAuth() bool {
	return c.WPUser != "" && c.WPPassword != ""
}

// ValidateWordPress checks the values needed by the fetch phase.
func (c *Config) ValidateWordPress() error {
	if c.WPHost == "" {
		return fmt.Errorf("%w: WP_HOST", ErrMissing)
	}
	if c.WPPageSize <= 0 || c.WPSamplePageSize <= 0 {
		return fmt.Errorf("page sizes must be positive (WP_PAGE_SIZE=%d, WP_SAMPLE_PAGE_SIZE=%d)", c.WPPageSize, c.WPSamplePageSize)
	}
	if len(c.QuestionTypes) == 0 {
		return fmt.Errorf("%w: WP_QUESTION_TYPES", ErrMissing)
	}
	return nil
}

// ValidateContentful checks the values needed by the upload phase.
func (c *Config) ValidateContentful() error {
	var missing []string
	if c.CTFToken == "" {
		missing = append(missing, "CTF_TOKEN")
	}
	if c.CTFSpaceID == "" {
		missing = append(missing, "CTF_SPACE_ID")
	}
	if c.CTFEnv == "" {
		missing = append(missing, "CTF_ENV")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
