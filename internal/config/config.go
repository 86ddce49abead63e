package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                string
	LogLevel            string
	RedisURL            string
	CacheTTLBriefing    time.Duration
	SynthesisTimeout    time.Duration
	RequestTimeout      time.Duration
	RateLimitPerMin     int
	CircuitFailLimit    int
	CircuitCooldown     time.Duration
	DefaultPollInterval time.Duration
	Retention           time.Duration
	HighImpactTopN      int
	AlertStreamInterval time.Duration
	LLMEndpoint         string
	LLMAPIKey           string
	LLMModel            string
	ArchiveDSN          string
	SourcesFile         string
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheTTLBriefing:    getEnvDuration("CACHE_TTL_BRIEFING", 45*time.Second),
		SynthesisTimeout:    getEnvDuration("SYNTHESIS_TIMEOUT", 5*time.Second),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 12*time.Second),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MIN", 120),
		CircuitFailLimit:    getEnvInt("CIRCUIT_FAIL_LIMIT", 3),
		CircuitCooldown:     getEnvDuration("CIRCUIT_COOLDOWN", 20*time.Second),
		DefaultPollInterval: getEnvDuration("DEFAULT_POLL_INTERVAL", 300*time.Second),
		Retention:           time.Duration(getEnvInt("RETENTION_HOURS", 168)) * time.Hour,
		HighImpactTopN:      getEnvInt("HIGH_IMPACT_TOP_N", 5),
		AlertStreamInterval: getEnvDuration("ALERT_STREAM_INTERVAL", 15*time.Second),
		LLMEndpoint:         getEnv("LLM_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
		ArchiveDSN:          os.Getenv("ARCHIVE_DSN"),
		SourcesFile:         getEnv("SOURCES_FILE", "sources.yaml"),
	}
}

// SummarizerEnabled reports whether a generative endpoint is configured.
func (c Config) SummarizerEnabled() bool {
	return c.LLMAPIKey != "" && c.LLMEndpoint != ""
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
