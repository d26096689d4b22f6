package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Messenger (Telegram Bot API)
	TelegramBotToken     string
	TelegramAPIBaseURL   string
	TelegramWebhookToken string

	// Catalog database
	DatabaseURL string

	// Campaign deep-link resolution, "course_tag=course_id" pairs.
	CampaignCourses map[string]string

	// Memory store
	MemoryBackend string // "file" or "redis"
	MemoryDataDir string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// LLM providers
	OpenAIAPIKey     string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	LLMMaxTokens     int
	LLMTemperature   float64
	LLMCallTimeout   time.Duration
	AnalyzerLLMMode  bool
	TurnBudget       time.Duration
	ToolCallTimeout  time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Advisor email
	EmailProvider    string // "sendgrid", "smtp" or "stub"
	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	AdvisorEmail     string
	AdvisorFromEmail string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBaseURL:   getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		TelegramWebhookToken: getEnv("TELEGRAM_WEBHOOK_TOKEN", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CampaignCourses: getEnvAsMap("CAMPAIGN_COURSES", "experto_ia_gpt_gemini=curso-ia"),

		MemoryBackend: strings.ToLower(strings.TrimSpace(getEnv("MEMORY_BACKEND", "file"))),
		MemoryDataDir: getEnv("MEMORY_DATA_DIR", "data/profiles"),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMMaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMTemperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMCallTimeout:   getEnvAsDuration("LLM_CALL_TIMEOUT", 30*time.Second),
		AnalyzerLLMMode:  getEnvAsBool("ANALYZER_LLM_MODE", true),
		TurnBudget:       getEnvAsDuration("TURN_BUDGET", 30*time.Second),
		ToolCallTimeout:  getEnvAsDuration("TOOL_CALL_TIMEOUT", 8*time.Second),
		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 200*time.Millisecond),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:     getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName: getEnv("SENDGRID_FROM_NAME", "Brenda"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		AdvisorEmail:     getEnv("ADVISOR_EMAIL", ""),
		AdvisorFromEmail: getEnv("ADVISOR_FROM_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsMap parses "key1=val1,key2=val2" pairs. Keys are lowercased.
func getEnvAsMap(key, defaultValue string) map[string]string {
	raw := getEnv(key, defaultValue)
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
