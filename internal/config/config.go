package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port      string `json:"port"`
	Host      string `json:"host"`
	PublicURL string `json:"public_url,omitempty"` // base URL used in dashboard links

	// Gemini API settings
	GeminiAPIKey       string `json:"-"` // Don't expose in JSON
	GeminiModel        string `json:"gemini_model"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
	CustomPrompt       string `json:"custom_prompt,omitempty"`

	// YouTube API settings
	YouTubeAPIKey            string `json:"-"`
	YouTubeRequestsPerSecond int    `json:"youtube_requests_per_second"`
	DefaultMaxComments       int    `json:"default_max_comments"`

	// Slack settings
	SlackBotToken string `json:"-"`
	SlackChannel  string `json:"slack_channel"`

	// Watch settings
	WatchVideos   []string `json:"watch_videos"`
	WatchSchedule string   `json:"watch_schedule"`
	WatchTimezone string   `json:"watch_timezone"`

	// Cache settings
	CacheType     string `json:"cache_type"`     // "memory" or "cloud-storage"
	CacheDuration int    `json:"cache_duration"` // in hours
	CacheBucket   string `json:"cache_bucket,omitempty"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                     getEnvOrDefault("PORT", "8080"),
		Host:                     getEnvOrDefault("HOST", "0.0.0.0"),
		PublicURL:                strings.TrimRight(getEnvOrDefault("PUBLIC_URL", ""), "/"),
		GeminiAPIKey:             getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:              getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		RateLimitPerMinute:       getEnvOrDefaultInt("RATE_LIMIT_PER_MINUTE", 15),
		CustomPrompt:             getEnvOrDefault("CUSTOM_PROMPT", ""),
		YouTubeAPIKey:            getEnvOrDefault("YOUTUBE_API_KEY", ""),
		YouTubeRequestsPerSecond: getEnvOrDefaultInt("YOUTUBE_REQUESTS_PER_SECOND", 5),
		DefaultMaxComments:       getEnvOrDefaultInt("DEFAULT_MAX_COMMENTS", 100),
		SlackBotToken:            getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannel:             getEnvOrDefault("SLACK_CHANNEL", "#general"),
		WatchVideos:              parseStringSlice(getEnvOrDefault("WATCH_VIDEOS", "")),
		WatchSchedule:            getEnvOrDefault("WATCH_SCHEDULE", "0 */6 * * *"),
		WatchTimezone:            getEnvOrDefault("WATCH_TIMEZONE", "UTC"),
		CacheType:                getEnvOrDefault("CACHE_TYPE", "memory"),
		CacheDuration:            getEnvOrDefaultInt("CACHE_DURATION_HOURS", 24),
		CacheBucket:              getEnvOrDefault("CACHE_BUCKET", ""),
	}

	return config, config.validate()
}

// SlackEnabled reports whether run summaries should be posted
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
	}
	if c.YouTubeAPIKey == "" {
		return &ConfigError{Field: "YOUTUBE_API_KEY", Message: "YouTube API key is required"}
	}
	if c.RateLimitPerMinute < 1 {
		return &ConfigError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must be at least 1"}
	}
	if c.DefaultMaxComments < 1 {
		return &ConfigError{Field: "DEFAULT_MAX_COMMENTS", Message: "must be at least 1"}
	}
	switch c.CacheType {
	case "memory":
	case "cloud-storage":
		if c.CacheBucket == "" {
			return &ConfigError{Field: "CACHE_BUCKET", Message: "bucket is required for cloud-storage cache"}
		}
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: "unsupported cache type " + c.CacheType}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
