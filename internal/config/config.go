package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

type Config struct {
	DataDir string

	Ticker         string
	NewsQuery      string
	PricePeriod    string
	NewsWindowDays int

	NewsProvider string
	NewsAPIKey   string
	NewsPageSize int
	NewsRSSURL   string
	HTTPSProxy   string

	SentimentBackend string
	HFAPIToken       string
	FinBERTModel     string
	HFInferenceURL   string
	OpenAIAPIKey     string
	OpenAIModel      string

	Schedule     string
	ProfilesPath string

	TelegramBotToken string
	TelegramChatID   int64

	RedisURL           string
	DashboardCacheSecs int
	HTTPPort           int
	DashboardAPIKey    string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string

	LogLevel string
}

const (
	NewsProviderNewsAPI = "newsapi"
	NewsProviderRSS     = "rss"

	BackendFinBERT = "finbert"
	BackendOpenAI  = "openai"
	BackendLexicon = "lexicon"

	// MaxNewsPageSize is the largest page NewsAPI will return.
	MaxNewsPageSize = 100
)

func Load() *Config {
	cfg := &Config{
		DataDir:          strings.TrimSpace(os.Getenv("DATA_DIR")),
		Ticker:           strings.ToUpper(strings.TrimSpace(os.Getenv("PIPELINE_TICKER"))),
		NewsQuery:        strings.TrimSpace(os.Getenv("PIPELINE_NEWS_QUERY")),
		PricePeriod:      strings.TrimSpace(os.Getenv("PIPELINE_PRICE_PERIOD")),
		NewsRSSURL:       strings.TrimSpace(os.Getenv("NEWS_RSS_URL")),
		HTTPSProxy:       strings.TrimSpace(os.Getenv("HTTPS_PROXY")),
		HFAPIToken:       strings.TrimSpace(os.Getenv("HF_API_TOKEN")),
		FinBERTModel:     strings.TrimSpace(os.Getenv("FINBERT_MODEL")),
		HFInferenceURL:   strings.TrimSpace(os.Getenv("HF_INFERENCE_URL")),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:      strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		Schedule:         strings.TrimSpace(os.Getenv("PIPELINE_SCHEDULE")),
		ProfilesPath:     strings.TrimSpace(os.Getenv("PIPELINE_PROFILES")),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		DashboardAPIKey:  strings.TrimSpace(os.Getenv("DASHBOARD_API_KEY")),
		SSHHostKeyPath:   strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH")),
		LogLevel:         strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Ticker == "" {
		cfg.Ticker = "AAPL"
	}
	if cfg.NewsQuery == "" {
		cfg.NewsQuery = "Apple Inc"
	}
	if cfg.PricePeriod == "" {
		cfg.PricePeriod = "5d"
	}
	cfg.NewsWindowDays = positiveInt("PIPELINE_NEWS_DAYS", 5)

	// NEWS_API is the historical name of the key; NEWS_API_KEY wins when both are set.
	cfg.NewsAPIKey = strings.TrimSpace(os.Getenv("NEWS_API_KEY"))
	if cfg.NewsAPIKey == "" {
		cfg.NewsAPIKey = strings.TrimSpace(os.Getenv("NEWS_API"))
	}

	cfg.NewsProvider = strings.ToLower(strings.TrimSpace(os.Getenv("NEWS_PROVIDER")))
	if cfg.NewsProvider == "" {
		cfg.NewsProvider = NewsProviderNewsAPI
	}
	if cfg.NewsProvider != NewsProviderNewsAPI && cfg.NewsProvider != NewsProviderRSS {
		log.Warn("unsupported NEWS_PROVIDER, defaulting to newsapi", "value", cfg.NewsProvider)
		cfg.NewsProvider = NewsProviderNewsAPI
	}
	if cfg.NewsProvider == NewsProviderNewsAPI && cfg.NewsAPIKey == "" {
		log.Warn("NEWS_API not set, news enrichment will be skipped")
	}

	cfg.NewsPageSize = positiveInt("NEWS_PAGE_SIZE", 20)
	if cfg.NewsPageSize > MaxNewsPageSize {
		cfg.NewsPageSize = MaxNewsPageSize
	}

	cfg.SentimentBackend = strings.ToLower(strings.TrimSpace(os.Getenv("SENTIMENT_BACKEND")))
	switch cfg.SentimentBackend {
	case BackendFinBERT, BackendOpenAI, BackendLexicon:
	case "":
		cfg.SentimentBackend = BackendFinBERT
	default:
		log.Warn("unsupported SENTIMENT_BACKEND, defaulting to finbert", "value", cfg.SentimentBackend)
		cfg.SentimentBackend = BackendFinBERT
	}
	switch {
	case cfg.SentimentBackend == BackendFinBERT && cfg.HFAPIToken == "":
		log.Warn("HF_API_TOKEN not set, headlines cannot be classified with finbert")
	case cfg.SentimentBackend == BackendOpenAI && cfg.OpenAIAPIKey == "":
		log.Warn("OPENAI_API_KEY not set, headlines cannot be classified with openai")
	}
	if cfg.FinBERTModel == "" {
		cfg.FinBERTModel = "ProsusAI/finbert"
	}
	if cfg.HFInferenceURL == "" {
		cfg.HFInferenceURL = "https://router.huggingface.co/hf-inference/models"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Warn("invalid TELEGRAM_CHAT_ID, notifications disabled", "value", v)
		}
	}

	cfg.DashboardCacheSecs = positiveInt("DASHBOARD_CACHE_SECS", 60)
	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt("SSH_PORT", 23234)
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}
	for _, fp := range strings.Split(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAuthorizedFingerprints = append(cfg.SSHAuthorizedFingerprints, fp)
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// ConfigureLogger applies LOG_LEVEL to the default logger.
func ConfigureLogger(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("invalid LOG_LEVEL, using info", "value", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetReportTimestamp(true)
}
