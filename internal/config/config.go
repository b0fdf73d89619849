package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// QUOTES_SCRAPER_MAX_PAGES=10.
const EnvPrefix = "QUOTES"

// DefaultConfigDir is where Load looks for config.yaml.
const DefaultConfigDir = "./configs"

var (
	ErrEmptyBaseURL    = errors.New("invalid scraper.base_url: must not be empty")
	ErrInvalidMaxPages = errors.New("invalid scraper.max_pages: must be non-negative")
	ErrInvalidDelay    = errors.New("invalid scraper.delay: must be non-negative")
	ErrInvalidTimeout  = errors.New("invalid http.timeout: must be positive")
	ErrInvalidRetries  = errors.New("invalid http.retries: must be non-negative")
	ErrNoOutputs       = errors.New("no output file configured: set output.csv, output.json or output.jsonl")
	ErrDuplicateOutput = errors.New("invalid output: two formats share one file name")
)

// Config holds all configuration for the scraper.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// ScraperConfig controls the pagination loop.
type ScraperConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	MaxPages int           `mapstructure:"max_pages"`
	Delay    time.Duration `mapstructure:"delay"`
}

// HTTPConfig controls the HTTP client used to fetch pages.
type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	Retries           int           `mapstructure:"retries"`
	BaseBackoff       time.Duration `mapstructure:"base_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// OutputConfig names the export files. An empty file name disables that format.
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	CSV   string `mapstructure:"csv"`
	JSON  string `mapstructure:"json"`
	JSONL string `mapstructure:"jsonl"`
}

// LogConfig holds the slog level name.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from ./configs/config.yaml (if present) and
// QUOTES_* environment variables, on top of built-in defaults.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigDir)
}

// LoadFrom is Load with an explicit directory to search for config.yaml.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.base_url", "http://quotes.toscrape.com")
	v.SetDefault("scraper.max_pages", 3)
	v.SetDefault("scraper.delay", time.Second)

	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("http.retries", 0)
	v.SetDefault("http.base_backoff", 500*time.Millisecond)
	v.SetDefault("http.max_backoff", 10*time.Second)
	v.SetDefault("http.requests_per_second", 0.0)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.csv", "quotes.csv")
	v.SetDefault("output.json", "quotes.json")
	v.SetDefault("output.jsonl", "")

	v.SetDefault("log.level", "info")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Scraper.BaseURL) == "":
		return ErrEmptyBaseURL
	case c.Scraper.MaxPages < 0:
		return ErrInvalidMaxPages
	case c.Scraper.Delay < 0:
		return ErrInvalidDelay
	case c.HTTP.Timeout <= 0:
		return ErrInvalidTimeout
	case c.HTTP.Retries < 0:
		return ErrInvalidRetries
	case c.Output.CSV == "" && c.Output.JSON == "" && c.Output.JSONL == "":
		return ErrNoOutputs
	case hasDuplicateOutput(c.Output):
		return ErrDuplicateOutput
	}
	return nil
}

// hasDuplicateOutput reports whether two enabled formats resolve to the same file.
func hasDuplicateOutput(out OutputConfig) bool {
	seen := make(map[string]bool, 3)
	for _, name := range []string{out.CSV, out.JSON, out.JSONL} {
		if name == "" {
			continue
		}
		path := filepath.Clean(name)
		if seen[path] {
			return true
		}
		seen[path] = true
	}
	return false
}
