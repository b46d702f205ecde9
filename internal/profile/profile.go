package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Memory backends.
const (
	MemoryBackendInProcess = "memory"
	MemoryBackendRedis     = "redis"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider          string  // Provider identifier: openai, deepseek, siliconflow, zai, dashscope, openrouter, ollama
	LLMAPIKey            string  // Unified LLM API key
	LLMBaseURL           string  // Unified LLM base URL (optional, has default per provider)
	LLMModel             string  // Model name: gpt-4o-mini, deepseek-chat, etc.
	LLMTimeout           int     // LLM request timeout in seconds (default: 60)
	LLMRequestsPerSecond float64 // Completion rate limit (0 = unlimited)
	LLMMaxConcurrent     int     // Concurrent completion calls (default: 8)

	// Agent behaviour
	CompletionTimeout int // Per-call completion bound in seconds (default: 15)
	StaleAfterDays    int // Re-engagement threshold for PredictIntent (default: 7)
	StaleSuggestion   string
	SupportPage       string
	NotifyWebhookURL  string // Receives notification actions (optional)

	// Memory store
	MemoryBackend  string // memory or redis
	MemoryMaxUsers int    // In-process cap (0 = unbounded)
	MemoryTTL      int    // Redis TTL in seconds (0 = no expiry)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	// Tracing
	TraceExporter string // none, stdout or otlp
	TraceEndpoint string
	TraceInsecure bool

	// Other configurations
	Mode    string
	DSN     string
	Driver  string
	Version string
	Addr    string
	Data    string
	Port    int
}

// Provider default models, used when LOCONOMY_LLM_MODEL is not set.
var llmProviderDefaults = map[string]string{
	"openai":      "gpt-4o-mini",
	"deepseek":    "deepseek-chat",
	"siliconflow": "Qwen/Qwen2.5-7B-Instruct",
	"zai":         "glm-4-flash",
	"dashscope":   "qwen-turbo",
	"openrouter":  "openai/gpt-4o-mini",
	"ollama":      "llama3.1",
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM is configured. Ollama needs no key.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// CompletionTimeoutDuration returns CompletionTimeout as a time.Duration.
func (p *Profile) CompletionTimeoutDuration() time.Duration {
	return time.Duration(p.CompletionTimeout) * time.Second
}

// StaleAfter returns the re-engagement threshold.
func (p *Profile) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterDays) * 24 * time.Hour
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("ignoring non-integer environment value", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		slog.Warn("ignoring non-numeric environment value", "key", key, "value", value)
	}
	return defaultValue
}

// FromEnv loads the LLM, agent, memory and tracing settings from LOCONOMY_*
// environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("LOCONOMY_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("LOCONOMY_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("LOCONOMY_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("LOCONOMY_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("LOCONOMY_LLM_TIMEOUT_SECONDS", 60)
	p.LLMRequestsPerSecond = getEnvOrDefaultFloat("LOCONOMY_LLM_RPS", 0)
	p.LLMMaxConcurrent = getEnvOrDefaultInt("LOCONOMY_LLM_MAX_CONCURRENT", 8)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok && p.LLMBaseURL == "" {
		slog.Warn("Unknown LLM provider without base URL, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if p.LLMModel == "" {
		p.LLMModel = llmProviderDefaults[p.LLMProvider]
	}

	p.CompletionTimeout = getEnvOrDefaultInt("LOCONOMY_COMPLETION_TIMEOUT_SECONDS", 15)
	p.StaleAfterDays = getEnvOrDefaultInt("LOCONOMY_STALE_AFTER_DAYS", 7)
	p.StaleSuggestion = getEnvOrDefault("LOCONOMY_STALE_SUGGESTION", "")
	p.SupportPage = getEnvOrDefault("LOCONOMY_SUPPORT_PAGE", "/support")
	p.NotifyWebhookURL = getEnvOrDefault("LOCONOMY_NOTIFY_WEBHOOK_URL", "")

	p.MemoryBackend = getEnvOrDefault("LOCONOMY_MEMORY_BACKEND", MemoryBackendInProcess)
	p.MemoryMaxUsers = getEnvOrDefaultInt("LOCONOMY_MEMORY_MAX_USERS", 0)
	p.MemoryTTL = getEnvOrDefaultInt("LOCONOMY_MEMORY_TTL_SECONDS", 0)
	p.RedisAddr = getEnvOrDefault("LOCONOMY_REDIS_ADDR", "")
	p.RedisPassword = getEnvOrDefault("LOCONOMY_REDIS_PASSWORD", "")
	p.RedisDB = getEnvOrDefaultInt("LOCONOMY_REDIS_DB", 0)

	p.LogLevel = getEnvOrDefault("LOCONOMY_LOG_LEVEL", "info")
	p.LogFormat = getEnvOrDefault("LOCONOMY_LOG_FORMAT", "text")

	p.TraceExporter = getEnvOrDefault("LOCONOMY_TRACE_EXPORTER", "none")
	p.TraceEndpoint = getEnvOrDefault("LOCONOMY_TRACE_ENDPOINT", "")
	p.TraceInsecure = getEnvOrDefault("LOCONOMY_TRACE_INSECURE", "false") == "true"
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.Data == "" {
		switch {
		case p.Mode != "prod":
			p.Data = "."
		case runtime.GOOS == "windows":
			p.Data = filepath.Join(os.Getenv("ProgramData"), "loconomy")
		default:
			p.Data = "/var/opt/loconomy"
		}
		if err := os.MkdirAll(p.Data, 0770); err != nil {
			slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("loconomy_%s.db", p.Mode))
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a dsn")
		}
	}

	switch p.MemoryBackend {
	case "":
		p.MemoryBackend = MemoryBackendInProcess
	case MemoryBackendInProcess:
	case MemoryBackendRedis:
		if p.RedisAddr == "" {
			return errors.New("redis memory backend requires LOCONOMY_REDIS_ADDR")
		}
	default:
		return errors.Errorf("unsupported memory backend %q", p.MemoryBackend)
	}

	if p.CompletionTimeout <= 0 {
		p.CompletionTimeout = 15
	}
	if p.StaleAfterDays <= 0 {
		p.StaleAfterDays = 7
	}
	return nil
}
