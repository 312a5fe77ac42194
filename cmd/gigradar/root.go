package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/gigradar/internal/adapter"
	"github.com/amishk599/gigradar/internal/ai"
	"github.com/amishk599/gigradar/internal/config"
	"github.com/amishk599/gigradar/internal/filter"
	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/notifier"
	"github.com/amishk599/gigradar/internal/pipeline"
	"github.com/amishk599/gigradar/internal/ratelimit"
	"github.com/amishk599/gigradar/internal/retry"
	"github.com/amishk599/gigradar/internal/store"
	"github.com/amishk599/gigradar/internal/triage"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gigradar",
	Short: "Freelance gig radar: scrape, score, alert",
	Long:  "gigradar scrapes freelance job boards, scores each new posting against your profile and alerts you to the best matches.",
	// Default to `start` so that `gigradar` with no args runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: GIGRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, resolves the config path and parses it.
// Priority: explicit path arg > GIGRADAR_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if path == "" {
		if env := os.Getenv("GIGRADAR_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// mustLoad is the common prologue of every command that needs config.
func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func userAgent() string {
	return fmt.Sprintf("gigradar/%s (+job-alerts)", version)
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) (model.Notifier, error) {
	httpClient := &http.Client{Timeout: cfg.Notification.Timeout}
	switch cfg.Notification.Type {
	case "telegram":
		tn, err := notifier.NewTelegramNotifier(cfg.Notification.BotToken, cfg.Notification.ChatID, cfg.Notification.APIURL, httpClient, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using telegram notifier")
		return tn, nil
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger), nil
	default:
		return notifier.NewLogNotifier(logger), nil
	}
}

// setupClassifier returns the total classifier: the LLM when a provider is
// configured, with the heuristic as fallback, or the heuristic alone.
func setupClassifier(cfg *config.Config, logger *slog.Logger) model.Classifier {
	if !cfg.AI.Enabled() {
		logger.Info("ai disabled, using heuristic scoring")
		return triage.NewResilient(nil, logger)
	}

	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case config.ProviderAnthropic:
		provider = ai.NewAnthropicProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	default:
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.StructuredOutput, httpClient)
	}
	if cfg.AI.RequestsPerMinute > 0 {
		provider = ai.NewRateLimitedProvider(provider, cfg.AI.RequestsPerMinute)
	}

	logger.Info("ai classification enabled",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"requests_per_minute", cfg.AI.RequestsPerMinute,
	)
	llm := ai.NewLLMClassifier(provider, ai.JobClassificationTemplate, cfg.Profile, cfg.AI.Timeout, logger)
	return triage.NewResilient(llm, logger)
}

func setupFilter(cfg *config.Config) model.JobFilter {
	if cfg.Filters.Empty() {
		return nil
	}
	return filter.NewKeywordFilter(cfg.Filters.TitleKeywords, cfg.Filters.TitleExcludeKeywords, cfg.Filters.RedFlags)
}

func createSource(sc config.SourceConfig, opts adapter.Options) (model.Source, bool) {
	switch sc.Kind {
	case config.KindUpwork:
		return adapter.NewUpworkSource(sc.URLs, sc.MaxItems, opts), true
	case config.KindWeWorkRemotely:
		return adapter.NewWeWorkRemotelySource(sc.URLs, sc.MaxItems, opts), true
	case config.KindCryptoJobsList:
		return adapter.NewCryptoJobsListSource(sc.URLs, sc.MaxItems, opts), true
	default:
		return nil, false
	}
}

// buildSources wires every enabled source with the shared per-source limiter
// and source-level retries.
func buildSources(cfg *config.Config, logger *slog.Logger) []model.Source {
	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SourceOverrides)
	logger.Info("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())

	opts := adapter.Options{
		Client:    &http.Client{Timeout: cfg.Scraping.Timeout},
		UserAgent: userAgent(),
		Limiter:   limiter,
		Logger:    logger,
	}
	if cfg.Scraping.UserAgent != "" {
		opts.UserAgent = cfg.Scraping.UserAgent
	}

	var sources []model.Source
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		src, ok := createSource(sc, opts)
		if !ok {
			logger.Warn("unsupported source kind, skipping", "source", sc.Name, "kind", sc.Kind)
			continue
		}
		if cfg.Retry.MaxRetries > 0 {
			src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		}
		sources = append(sources, src)
		logger.Info("registered source", "name", sc.Name, "kind", sc.Kind)
	}
	return sources
}

// storage bundles the write and read sides of the configured store.
type storage struct {
	jobs   model.JobStore
	reader model.JobReader
	close  func()
}

// openStorage opens the SQL store and, when configured, fronts it with the
// Redis seen-cache.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	sqlStore, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", "driver", cfg.Database.Driver)

	st := &storage{jobs: sqlStore, reader: sqlStore, close: func() { sqlStore.Close() }}
	if cfg.Cache.RedisURL == "" {
		return st, nil
	}

	rdb, err := store.NewRedisClient(ctx, cfg.Cache.RedisURL)
	if err != nil {
		sqlStore.Close()
		return nil, err
	}
	st.jobs = store.NewCachedStore(sqlStore, rdb, cfg.Cache.Key, logger)
	st.close = func() {
		rdb.Close()
		sqlStore.Close()
	}
	logger.Info("redis seen-cache enabled")
	return st, nil
}

func buildPipeline(cfg *config.Config, jobStore model.JobStore, n model.Notifier, metrics *pipeline.Metrics, logger *slog.Logger) (*pipeline.Pipeline, error) {
	sources := buildSources(cfg, logger)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to scrape")
	}
	return pipeline.New(sources, setupFilter(cfg), jobStore, setupClassifier(cfg, logger), n, metrics, logger), nil
}
