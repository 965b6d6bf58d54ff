// Command pipeline fetches prices and headlines for a ticker, classifies the
// headlines and writes the CSV artifacts the dashboards read.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sentiment-desk/internal/artifact"
	"sentiment-desk/internal/config"
	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/domain"
	"sentiment-desk/internal/job"
	"sentiment-desk/internal/notify"
	"sentiment-desk/internal/pipeline"
	"sentiment-desk/internal/provider"
	"sentiment-desk/internal/sentiment"
	"sentiment-desk/internal/tui"
	"sentiment-desk/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initTracerFunc      = tracing.InitTracer
	newPriceFetcherFunc = func(tracer trace.Tracer, cfg *config.Config) pipeline.MarketDataFetcher {
		return provider.NewYahooProvider(tracer, cfg.HTTPSProxy)
	}
	newNewsFetcherFunc = newNewsFetcher
	newModelFunc       = newModel
	newNotifierFunc    = func(cfg *config.Config) (pipeline.Notifier, error) {
		n, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil || n == nil {
			return nil, err
		}
		return n, nil
	}
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
	setupSignalNotify = signal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Headline sentiment enrichment for a single ticker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFunc()
			cfg = loadConfigFunc()
			config.ConfigureLogger(cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(newRunCmd(&cfg), newScheduleCmd(&cfg), newDashboardCmd(&cfg))
	return root
}

func newRunCmd(cfg **config.Config) *cobra.Command {
	var req pipeline.Request

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			applyDefaults(&req, c)

			ctx := cmd.Context()
			tp, tracer, err := initTracerFunc(ctx, "pipeline")
			if err != nil {
				return fmt.Errorf("initialize tracer: %w", err)
			}
			defer shutdownTracer(tp)

			p, _, err := buildPipeline(tracer, c)
			if err != nil {
				return err
			}

			res, err := p.Run(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d prices, %d headlines (%s)\n",
				res.Request.Ticker, len(res.Prices), len(res.Headlines), res.Summary.String())
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n  %s\n", res.PricesPath, res.SentimentPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Ticker, "ticker", "", "ticker symbol (default PIPELINE_TICKER)")
	cmd.Flags().StringVar(&req.NewsQuery, "query", "", "news search query (default PIPELINE_NEWS_QUERY)")
	cmd.Flags().StringVar(&req.PricePeriod, "period", "", "price range, e.g. 5d or 1mo (default PIPELINE_PRICE_PERIOD)")
	cmd.Flags().IntVar(&req.NewsWindowDays, "days", 0, "news window in days (default PIPELINE_NEWS_DAYS)")
	return cmd
}

func newScheduleCmd(cfg **config.Config) *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run every profile on the PIPELINE_SCHEDULE cron spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.Schedule == "" {
				return fmt.Errorf("%w: PIPELINE_SCHEDULE is not set", domain.ErrConfiguration)
			}

			var defaults pipeline.Request
			applyDefaults(&defaults, c)
			profiles, err := job.LoadProfiles(c.ProfilesPath, defaults)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			tp, tracer, err := initTracerFunc(ctx, "pipeline")
			if err != nil {
				return fmt.Errorf("initialize tracer: %w", err)
			}
			defer shutdownTracer(tp)

			p, classifier, err := buildPipeline(tracer, c)
			if err != nil {
				return err
			}
			// A failed load is remembered, so every profile with headlines
			// will fail until the process restarts.
			if err := classifier.Load(ctx); err != nil {
				log.Warn("sentiment model failed to load", "err", err)
			}

			sched := job.NewScheduler(tracer, p, profiles)
			if err := sched.Register(ctx, c.Schedule); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
			}
			if now {
				sched.RunAll(ctx)
			}
			sched.Start()
			log.Info("waiting for schedule", "spec", c.Schedule, "model", classifier.ModelName())

			quit := make(chan os.Signal, 1)
			setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
			waitForSignalFunc(quit)
			log.Info("shutting down scheduler...")

			cancel()
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "run every profile once before waiting for the schedule")
	return cmd
}

func newDashboardCmd(cfg **config.Config) *cobra.Command {
	var ticker string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the sentiment dashboard for a ticker in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if ticker == "" {
				ticker = c.Ticker
			}
			store := artifact.NewStore(c.DataDir, trace.NewNoopTracerProvider().Tracer("dashboard"))
			model := tui.NewModel(ticker, func(ctx context.Context, t string) (*dashboard.View, error) {
				return dashboard.Load(ctx, store, t)
			})
			return runProgramFunc(model)
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker symbol (default PIPELINE_TICKER)")
	return cmd
}

// buildPipeline wires the fetchers, classifier, store and notifier for the
// configured backends.
func buildPipeline(tracer trace.Tracer, cfg *config.Config) (*pipeline.Pipeline, *sentiment.Classifier, error) {
	model, err := newModelFunc(cfg)
	if err != nil {
		if !errors.Is(err, domain.ErrConfiguration) {
			return nil, nil, err
		}
		// Without a usable model only runs that fetch headlines fail.
		log.Warn("sentiment model unavailable, runs with headlines will fail", "backend", cfg.SentimentBackend, "err", err)
		model = nil
	}
	classifier := sentiment.NewClassifier(model, tracer)

	p := pipeline.New(
		tracer,
		newPriceFetcherFunc(tracer, cfg),
		newNewsFetcherFunc(tracer, cfg),
		classifier,
		artifact.NewStore(cfg.DataDir, tracer),
	)

	n, err := newNotifierFunc(cfg)
	if err != nil {
		log.Warn("telegram notifications disabled", "err", err)
	} else if n != nil {
		p.WithNotifier(n)
	}
	return p, classifier, nil
}

func newModel(cfg *config.Config) (sentiment.Model, error) {
	switch cfg.SentimentBackend {
	case config.BackendFinBERT:
		return sentiment.NewFinBERTModel(cfg.HFAPIToken, cfg.FinBERTModel, cfg.HFInferenceURL)
	case config.BackendOpenAI:
		return sentiment.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case config.BackendLexicon:
		return sentiment.NewLexiconModel(), nil
	default:
		return nil, fmt.Errorf("%w: unknown sentiment backend %q", domain.ErrConfiguration, cfg.SentimentBackend)
	}
}

// newNewsFetcher returns nil when the provider cannot be built so that
// price-only runs still go through.
func newNewsFetcher(tracer trace.Tracer, cfg *config.Config) pipeline.NewsFetcher {
	if cfg.NewsProvider == config.NewsProviderRSS {
		return provider.NewRSSProvider(tracer, cfg.NewsRSSURL, cfg.NewsPageSize, cfg.HTTPSProxy)
	}
	p, err := provider.NewNewsAPIProvider(tracer, cfg.NewsAPIKey, cfg.NewsPageSize, cfg.HTTPSProxy)
	if err != nil {
		log.Warn("news disabled", "err", err)
		return nil
	}
	return p
}

// applyDefaults fills unset fields from the configuration. A ticker given
// without a query searches for the ticker itself.
func applyDefaults(req *pipeline.Request, cfg *config.Config) {
	if req.NewsQuery == "" {
		if req.Ticker != "" {
			req.NewsQuery = req.Ticker
		} else {
			req.NewsQuery = cfg.NewsQuery
		}
	}
	if req.Ticker == "" {
		req.Ticker = cfg.Ticker
	}
	if req.PricePeriod == "" {
		req.PricePeriod = cfg.PricePeriod
	}
	if req.NewsWindowDays == 0 {
		req.NewsWindowDays = cfg.NewsWindowDays
	}
}

type tracerShutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTracer(tp tracerShutdowner) {
	if err := tp.Shutdown(context.Background()); err != nil {
		log.Error("error shutting down tracer provider", "err", err)
	}
}
