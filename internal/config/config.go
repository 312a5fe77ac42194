package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds understood by the CLI wiring.
const (
	KindUpwork         = "upwork"
	KindWeWorkRemotely = "weworkremotely"
	KindCryptoJobsList = "cryptojobslist"
)

// AI providers. Gemini and Groq speak the OpenAI chat completions protocol.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// DefaultProfile is the candidate profile used when profile is unset.
const DefaultProfile = `- 6 years experience
- Discord Architect
- Web3 Community Manager
- Virtual Assistant
- Minimum acceptable rate: $15/hr
- Target rate: $25-40/hr`

var defaultBaseURLs = map[string]string{
	ProviderOpenAI: "https://api.openai.com/v1",
	ProviderGemini: "https://generativelanguage.googleapis.com/v1beta/openai",
	ProviderGroq:   "https://api.groq.com/openai/v1",
}

// Config is the root configuration for gigradar.
type Config struct {
	PollingInterval time.Duration
	Database        DatabaseConfig
	Cache           CacheConfig
	Sources         []SourceConfig
	Scraping        ScrapingConfig
	RateLimit       RateLimitConfig
	Retry           RetryConfig
	Filters         FilterConfig
	Profile         string
	AI              AIConfig
	Notification    NotificationConfig
	Server          ServerConfig
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// CacheConfig enables the Redis seen-cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
}

// SourceConfig describes one job board to scrape.
type SourceConfig struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`      // defaults to Name
	Enabled  bool     `yaml:"enabled"`
	URLs     []string `yaml:"urls"`      // feeds or pages; empty selects the adapter defaults
	MaxItems int      `yaml:"max_items"` // per endpoint; 0 selects the adapter default
}

// ScrapingConfig holds the HTTP settings shared by all adapters.
type ScrapingConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// RateLimitConfig controls the polite delay between requests to one source.
type RateLimitConfig struct {
	MinDelay        time.Duration
	SourceOverrides map[string]time.Duration // keyed by source kind
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls source-level retries.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// FilterConfig holds the pre-classification keyword gate. An empty config
// lets every job through.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	RedFlags             []string `yaml:"red_flags"`
}

// Empty reports whether no keyword rule is configured.
func (f FilterConfig) Empty() bool {
	return len(f.TitleKeywords) == 0 && len(f.TitleExcludeKeywords) == 0 && len(f.RedFlags) == 0
}

// AIConfig selects the optional LLM classifier. An empty Provider means
// heuristic-only scoring.
type AIConfig struct {
	Provider          string
	BaseURL           string
	Model             string
	APIKey            string // expanded from env var by Load
	Timeout           time.Duration
	RequestsPerMinute int
	StructuredOutput  bool
}

// Enabled reports whether a provider is configured.
func (a AIConfig) Enabled() bool { return a.Provider != "" }

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string // "telegram", "slack" or "log"
	BotToken   string
	ChatID     string
	APIURL     string // optional Telegram endpoint override
	WebhookURL string
	Timeout    time.Duration
}

// ServerConfig controls the HTTP API served by start.
type ServerConfig struct {
	Enabled bool
	Addr    string
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollingInterval string                `yaml:"polling_interval"`
	Database        DatabaseConfig        `yaml:"database"`
	Cache           CacheConfig           `yaml:"cache"`
	Sources         []SourceConfig        `yaml:"sources"`
	Scraping        rawScrapingConfig     `yaml:"scraping"`
	RateLimit       rawRateLimitConfig    `yaml:"rate_limit"`
	Retry           rawRetryConfig        `yaml:"retry"`
	Filters         FilterConfig          `yaml:"filters"`
	Profile         string                `yaml:"profile"`
	AI              rawAIConfig           `yaml:"ai"`
	Notification    rawNotificationConfig `yaml:"notification"`
	Server          rawServerConfig       `yaml:"server"`
}

type rawScrapingConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawAIConfig struct {
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"api_key"`
	Timeout           string `yaml:"timeout"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	StructuredOutput  bool   `yaml:"structured_output"`
}

type rawNotificationConfig struct {
	Type       string `yaml:"type"`
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id"`
	APIURL     string `yaml:"api_url"`
	WebhookURL string `yaml:"webhook_url"`
	Timeout    string `yaml:"timeout"`
}

type rawServerConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := raw.resolve()
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw rawConfig) resolve() (*Config, error) {
	interval, err := parseDuration("polling_interval", raw.PollingInterval, 30*time.Minute)
	if err != nil {
		return nil, err
	}
	scrapeTimeout, err := parseDuration("scraping.timeout", raw.Scraping.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]time.Duration, len(raw.RateLimit.SourceOverrides))
	for name, v := range raw.RateLimit.SourceOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.source_overrides[%q]: %w", name, err)
		}
		overrides[name] = d
	}
	retryDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := parseDuration("notification.timeout", raw.Notification.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}

	maxRetries := 2
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	db := raw.Database
	if db.Driver == "" {
		db.Driver = "sqlite"
	}
	if db.DSN == "" && db.Driver == "sqlite" {
		db.DSN = "gigradar.db"
	}

	sources := raw.Sources
	if len(sources) == 0 {
		sources = defaultSources()
	}
	for i := range sources {
		if sources[i].Kind == "" {
			sources[i].Kind = sources[i].Name
		}
	}

	provider := strings.ToLower(strings.TrimSpace(raw.AI.Provider))
	baseURL := raw.AI.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}

	profile := strings.TrimSpace(raw.Profile)
	if profile == "" {
		profile = DefaultProfile
	}

	notifyType := raw.Notification.Type
	if notifyType == "" {
		notifyType = "log"
	}

	server := ServerConfig{Enabled: true, Addr: raw.Server.Addr}
	if raw.Server.Enabled != nil {
		server.Enabled = *raw.Server.Enabled
	}
	if server.Addr == "" {
		server.Addr = ":8080"
	}

	return &Config{
		PollingInterval: interval,
		Database:        db,
		Cache:           raw.Cache,
		Sources:         sources,
		Scraping:        ScrapingConfig{Timeout: scrapeTimeout, UserAgent: raw.Scraping.UserAgent},
		RateLimit:       RateLimitConfig{MinDelay: minDelay, SourceOverrides: overrides},
		Retry:           RetryConfig{MaxRetries: maxRetries, BaseDelay: retryDelay},
		Filters:         raw.Filters,
		Profile:         profile,
		AI: AIConfig{
			Provider:          provider,
			BaseURL:           baseURL,
			Model:             raw.AI.Model,
			APIKey:            raw.AI.APIKey,
			Timeout:           aiTimeout,
			RequestsPerMinute: raw.AI.RequestsPerMinute,
			StructuredOutput:  raw.AI.StructuredOutput,
		},
		Notification: NotificationConfig{
			Type:       notifyType,
			BotToken:   raw.Notification.BotToken,
			ChatID:     raw.Notification.ChatID,
			APIURL:     raw.Notification.APIURL,
			WebhookURL: raw.Notification.WebhookURL,
			Timeout:    notifyTimeout,
		},
		Server: server,
	}, nil
}

func defaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: KindUpwork, Kind: KindUpwork, Enabled: true},
		{Name: KindWeWorkRemotely, Kind: KindWeWorkRemotely, Enabled: true},
		{Name: KindCryptoJobsList, Kind: KindCryptoJobsList, Enabled: true},
	}
}

func parseDuration(field, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, v, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval < time.Minute {
		return fmt.Errorf("polling_interval must be at least 1m, got %v", cfg.PollingInterval)
	}
	if cfg.Scraping.Timeout <= 0 {
		return fmt.Errorf("scraping.timeout must be positive, got %v", cfg.Scraping.Timeout)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}

	enabled := 0
	names := make(map[string]bool)
	for _, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("every source needs a name")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		switch s.Kind {
		case KindUpwork, KindWeWorkRemotely, KindCryptoJobsList:
		default:
			return fmt.Errorf("source %q: unknown kind %q", s.Name, s.Kind)
		}
		if s.MaxItems < 0 {
			return fmt.Errorf("source %q: max_items must not be negative", s.Name)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Notification.Type {
	case "log":
	case "telegram":
		if cfg.Notification.BotToken == "" || cfg.Notification.ChatID == "" {
			return fmt.Errorf("notification.bot_token and notification.chat_id are required when type is \"telegram\"")
		}
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"telegram\", \"slack\" or \"log\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled() {
		switch cfg.AI.Provider {
		case ProviderOpenAI, ProviderGemini, ProviderGroq, ProviderAnthropic:
		default:
			return fmt.Errorf("ai.provider %q is not supported", cfg.AI.Provider)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.provider is set")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.provider is set")
		}
		if cfg.AI.BaseURL == "" && cfg.AI.Provider != ProviderAnthropic {
			return fmt.Errorf("ai.base_url is required for provider %q", cfg.AI.Provider)
		}
		if cfg.AI.RequestsPerMinute < 0 {
			return fmt.Errorf("ai.requests_per_minute must not be negative")
		}
	}

	if cfg.Server.Enabled && cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}
	return nil
}
