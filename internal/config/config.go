package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderGroq   = "groq"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

type Config struct {
	Port            string
	Version         string
	RequestTimeout  time.Duration
	RateLimitPerMin int

	CallTimeout      time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	CircuitFailLimit int
	CircuitCooldown  time.Duration

	FinnhubAPIKey    string
	FinnhubBaseURL   string
	FinnhubRateLimit int
	NewsLimit        int
	NewsLookbackDays int

	RedisURL         string
	CacheTTLResearch time.Duration

	LLMProvider     string
	GroqAPIKey      string
	GroqModel       string
	GroqBaseURL     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	LLMMaxTokens    int
	LLMTemperature  float64

	BloggerURL          string
	ReconcilePrecedence string
	DefaultVerdict      string

	LogLevel string
}

func Default() Config {
	return Config{
		Port:                "8080",
		RequestTimeout:      60 * time.Second,
		RateLimitPerMin:     60,
		CallTimeout:         15 * time.Second,
		MaxRetries:          2,
		RetryBackoff:        300 * time.Millisecond,
		CircuitFailLimit:    3,
		CircuitCooldown:     20 * time.Second,
		FinnhubBaseURL:      "https://finnhub.io/api/v1",
		FinnhubRateLimit:    25,
		NewsLimit:           5,
		NewsLookbackDays:    7,
		CacheTTLResearch:    60 * time.Second,
		LLMProvider:         ProviderGroq,
		GroqModel:           "llama3-8b-8192",
		GroqBaseURL:         "https://api.groq.com/openai/v1",
		AnthropicModel:      "claude-sonnet-4-20250514",
		GeminiModel:         "gemini-2.0-flash",
		LLMMaxTokens:        1024,
		LLMTemperature:      0.7,
		ReconcilePrecedence: "sell,hold,buy",
		DefaultVerdict:      "Hold",
		LogLevel:            "info",
	}
}

// Load builds the configuration from defaults, then each TOML file in order,
// then environment variables. Missing files are skipped.
func Load(paths ...string) (Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := applyFile(&cfg, data); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.clamp()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Version = getEnv("SERVICE_VERSION", cfg.Version)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin)

	cfg.CallTimeout = getEnvDuration("CALL_TIMEOUT", cfg.CallTimeout)
	cfg.MaxRetries = getEnvInt("MAX_RETRIES", cfg.MaxRetries)
	if ms := getEnvInt("RETRY_BACKOFF_MS", -1); ms >= 0 {
		cfg.RetryBackoff = time.Duration(ms) * time.Millisecond
	}
	cfg.CircuitFailLimit = getEnvInt("CIRCUIT_FAIL_LIMIT", cfg.CircuitFailLimit)
	cfg.CircuitCooldown = getEnvDuration("CIRCUIT_COOLDOWN", cfg.CircuitCooldown)

	cfg.FinnhubAPIKey = getEnv("FINNHUB_API_KEY", cfg.FinnhubAPIKey)
	cfg.FinnhubBaseURL = getEnv("FINNHUB_BASE_URL", cfg.FinnhubBaseURL)
	cfg.FinnhubRateLimit = getEnvInt("FINNHUB_RATE_LIMIT", cfg.FinnhubRateLimit)
	cfg.NewsLimit = getEnvInt("NEWS_LIMIT", cfg.NewsLimit)
	cfg.NewsLookbackDays = getEnvInt("NEWS_LOOKBACK_DAYS", cfg.NewsLookbackDays)

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.CacheTTLResearch = getEnvDuration("CACHE_TTL_RESEARCH", cfg.CacheTTLResearch)

	cfg.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLMProvider))
	cfg.GroqAPIKey = getEnv("GROQ_API_KEY", cfg.GroqAPIKey)
	cfg.GroqModel = getEnv("GROQ_MODEL", cfg.GroqModel)
	cfg.GroqBaseURL = getEnv("GROQ_BASE_URL", cfg.GroqBaseURL)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = getEnv("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.LLMMaxTokens = getEnvInt("LLM_MAX_TOKENS", cfg.LLMMaxTokens)
	cfg.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLMTemperature)

	cfg.BloggerURL = getEnv("BLOGGER_URL", cfg.BloggerURL)
	cfg.ReconcilePrecedence = getEnv("RECONCILE_PRECEDENCE", cfg.ReconcilePrecedence)
	cfg.DefaultVerdict = getEnv("DEFAULT_VERDICT", cfg.DefaultVerdict)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func (c *Config) clamp() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 2 {
		c.MaxRetries = 2
	}
	if c.NewsLimit < 0 {
		c.NewsLimit = 0
	}
	if c.NewsLimit > 5 {
		c.NewsLimit = 5
	}
	if c.NewsLookbackDays <= 0 {
		c.NewsLookbackDays = 7
	}
	if c.FinnhubRateLimit <= 0 {
		c.FinnhubRateLimit = 25
	}
}

// Validate rejects values the service cannot run with. Missing credentials
// are not errors here; see Missing.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGroq, ProviderClaude, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("config: CALL_TIMEOUT must be positive")
	}
	return nil
}

// Missing lists the credentials the selected backends need but do not have.
func (c Config) Missing() []string {
	missing := []string{}
	if c.FinnhubAPIKey == "" {
		missing = append(missing, "FINNHUB_API_KEY")
	}
	switch c.LLMProvider {
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			missing = append(missing, "GROQ_API_KEY")
		}
	case ProviderClaude:
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	}
	return missing
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Second
}

type fileConfig struct {
	Server struct {
		Port            string `toml:"port"`
		RequestTimeout  string `toml:"request_timeout"`
		RateLimitPerMin int    `toml:"rate_limit_per_min"`
	} `toml:"server"`
	Adapters struct {
		CallTimeout      string `toml:"call_timeout"`
		MaxRetries       *int   `toml:"max_retries"`
		RetryBackoff     string `toml:"retry_backoff"`
		CircuitFailLimit int    `toml:"circuit_fail_limit"`
		CircuitCooldown  string `toml:"circuit_cooldown"`
	} `toml:"adapters"`
	MarketData struct {
		APIKey           string `toml:"finnhub_api_key"`
		BaseURL          string `toml:"base_url"`
		RateLimit        int    `toml:"rate_limit"`
		NewsLimit        *int   `toml:"news_limit"`
		NewsLookbackDays int    `toml:"news_lookback_days"`
	} `toml:"market_data"`
	Cache struct {
		RedisURL    string `toml:"redis_url"`
		ResearchTTL string `toml:"research_ttl"`
	} `toml:"cache"`
	LLM struct {
		Provider        string   `toml:"provider"`
		GroqAPIKey      string   `toml:"groq_api_key"`
		GroqModel       string   `toml:"groq_model"`
		GroqBaseURL     string   `toml:"groq_base_url"`
		AnthropicAPIKey string   `toml:"anthropic_api_key"`
		AnthropicModel  string   `toml:"anthropic_model"`
		GeminiAPIKey    string   `toml:"gemini_api_key"`
		GeminiModel     string   `toml:"gemini_model"`
		MaxTokens       int      `toml:"max_tokens"`
		Temperature     *float64 `toml:"temperature"`
	} `toml:"llm"`
	Pipeline struct {
		BloggerURL          string `toml:"blogger_url"`
		ReconcilePrecedence string `toml:"reconcile_precedence"`
		DefaultVerdict      string `toml:"default_verdict"`
	} `toml:"pipeline"`
	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&cfg.Port, fc.Server.Port)
	if err := setDuration(&cfg.RequestTimeout, fc.Server.RequestTimeout); err != nil {
		return err
	}
	setInt(&cfg.RateLimitPerMin, fc.Server.RateLimitPerMin)

	if err := setDuration(&cfg.CallTimeout, fc.Adapters.CallTimeout); err != nil {
		return err
	}
	if fc.Adapters.MaxRetries != nil {
		cfg.MaxRetries = *fc.Adapters.MaxRetries
	}
	if err := setDuration(&cfg.RetryBackoff, fc.Adapters.RetryBackoff); err != nil {
		return err
	}
	setInt(&cfg.CircuitFailLimit, fc.Adapters.CircuitFailLimit)
	if err := setDuration(&cfg.CircuitCooldown, fc.Adapters.CircuitCooldown); err != nil {
		return err
	}

	setString(&cfg.FinnhubAPIKey, fc.MarketData.APIKey)
	setString(&cfg.FinnhubBaseURL, fc.MarketData.BaseURL)
	setInt(&cfg.FinnhubRateLimit, fc.MarketData.RateLimit)
	if fc.MarketData.NewsLimit != nil {
		cfg.NewsLimit = *fc.MarketData.NewsLimit
	}
	setInt(&cfg.NewsLookbackDays, fc.MarketData.NewsLookbackDays)

	setString(&cfg.RedisURL, fc.Cache.RedisURL)
	if err := setDuration(&cfg.CacheTTLResearch, fc.Cache.ResearchTTL); err != nil {
		return err
	}

	setString(&cfg.LLMProvider, strings.ToLower(fc.LLM.Provider))
	setString(&cfg.GroqAPIKey, fc.LLM.GroqAPIKey)
	setString(&cfg.GroqModel, fc.LLM.GroqModel)
	setString(&cfg.GroqBaseURL, fc.LLM.GroqBaseURL)
	setString(&cfg.AnthropicAPIKey, fc.LLM.AnthropicAPIKey)
	setString(&cfg.AnthropicModel, fc.LLM.AnthropicModel)
	setString(&cfg.GeminiAPIKey, fc.LLM.GeminiAPIKey)
	setString(&cfg.GeminiModel, fc.LLM.GeminiModel)
	setInt(&cfg.LLMMaxTokens, fc.LLM.MaxTokens)
	if fc.LLM.Temperature != nil {
		cfg.LLMTemperature = *fc.LLM.Temperature
	}

	setString(&cfg.BloggerURL, fc.Pipeline.BloggerURL)
	setString(&cfg.ReconcilePrecedence, fc.Pipeline.ReconcilePrecedence)
	setString(&cfg.DefaultVerdict, fc.Pipeline.DefaultVerdict)

	setString(&cfg.LogLevel, fc.Logging.Level)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

// ProviderKey returns the credential for the selected text backend.
func (c Config) ProviderKey() string {
	switch c.LLMProvider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderClaude:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}
