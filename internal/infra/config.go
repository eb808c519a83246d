package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Record store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	RecordStore string
	DatabaseURL string
	SQLitePath  string
	AutoMigrate bool

	KieAPIKey        string
	KieBaseURL       string
	KieResolution    string
	KieMaxConcurrent int
	DefaultModel     string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	PromptProvider string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string

	PublicHost     string
	PublicProtocol string
	UploadDir      string
	AssetsDir      string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	RateLimitBurst     int
	CreditsCacheTTL    time.Duration

	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	UpstreamHTTPTimeout time.Duration
	ShutdownTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "3001")
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	defaultStore := StoreSQLite
	if databaseURL != "" {
		defaultStore = StorePostgres
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: strings.ToLower(os.Getenv("LOG_LEVEL")),
		Port:     port,

		RecordStore: strings.ToLower(getEnv("RECORD_STORE", defaultStore)),
		DatabaseURL: databaseURL,
		SQLitePath:  getEnv("SQLITE_PATH", "./data/basplast.db"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", true),

		KieAPIKey:        strings.TrimSpace(os.Getenv("KIE_API_KEY")),
		KieBaseURL:       getEnv("KIE_BASE_URL", "https://api.kie.ai/api/v1"),
		KieResolution:    getEnv("KIE_RESOLUTION", "1K"),
		KieMaxConcurrent: getEnvInt("KIE_MAX_CONCURRENT", 8),
		DefaultModel:     getEnv("DEFAULT_MODEL", "flux-2/flex-image-to-image"),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		PromptProvider: strings.ToLower(getEnv("PROMPT_PROVIDER", "openai")),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		PublicHost:     getEnv("PUBLIC_HOST", "localhost:"+port),
		PublicProtocol: getEnv("PUBLIC_PROTOCOL", "http"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		AssetsDir:      getEnv("ASSETS_DIR", "./public"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
		CreditsCacheTTL:    time.Second * time.Duration(getEnvInt("CREDITS_CACHE_SECONDS", 30)),

		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		UpstreamHTTPTimeout: time.Second * time.Duration(getEnvInt("UPSTREAM_HTTP_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:     time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)),
	}

	switch cfg.RecordStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RECORD_STORE=%s", StorePostgres)
		}
	case StoreSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when RECORD_STORE=%s", StoreSQLite)
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported RECORD_STORE %q", cfg.RecordStore)
	}

	switch cfg.PromptProvider {
	case "openai", "gemini", "none":
	default:
		return nil, fmt.Errorf("unsupported PROMPT_PROVIDER %q", cfg.PromptProvider)
	}

	if cfg.KieMaxConcurrent < 1 {
		cfg.KieMaxConcurrent = 1
	}

	return cfg, nil
}

// PublicBaseURL is the absolute root used for uploaded and composited files.
func (c *Config) PublicBaseURL() string {
	return fmt.Sprintf("%s://%s", strings.TrimSuffix(c.PublicProtocol, "://"), strings.TrimRight(c.PublicHost, "/"))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
