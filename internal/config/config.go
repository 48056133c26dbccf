package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents application configuration. Values come from environment
// variables (optionally loaded from .env files) with a small set of defaults.
type Config struct {
	TelegramToken string
	OpenAIAPIKey  string
	Model         string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseAnonKey    string

	LogLevel      string
	LogPath       string
	SessionDBPath string

	// Webhook mode; when WebhookURL is empty the bot long-polls instead.
	WebhookURL    string
	WebhookListen string
}

// Load reads configuration from .env files and the process environment.
// A root-level .env is loaded before the local one so shared keys are
// available while local values can still override them.
func Load(envPaths ...string) (*Config, error) {
	for _, path := range envPaths {
		// Missing .env files are fine; the environment may carry everything.
		_ = godotenv.Load(path)
	}
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("CRMBOT_MODEL", "gpt-4o")
	v.SetDefault("CRMBOT_LOG_LEVEL", "info")
	v.SetDefault("CRMBOT_SESSION_DB", "crmbot-sessions.db")
	v.SetDefault("CRMBOT_WEBHOOK_LISTEN", ":8443")

	cfg := &Config{
		TelegramToken:      strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		OpenAIAPIKey:       strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		Model:              strings.TrimSpace(v.GetString("CRMBOT_MODEL")),
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("SUPABASE_URL")), "/"),
		SupabaseServiceKey: strings.TrimSpace(v.GetString("SUPABASE_SERVICE_ROLE_KEY")),
		SupabaseAnonKey:    strings.TrimSpace(v.GetString("SUPABASE_KEY")),
		LogLevel:           v.GetString("CRMBOT_LOG_LEVEL"),
		LogPath:            v.GetString("CRMBOT_LOG_PATH"),
		SessionDBPath:      v.GetString("CRMBOT_SESSION_DB"),
		WebhookURL:         strings.TrimSpace(v.GetString("CRMBOT_WEBHOOK_URL")),
		WebhookListen:      v.GetString("CRMBOT_WEBHOOK_LISTEN"),
	}

	return cfg, nil
}

// SupabaseKey returns the key used for repository calls. The service role key
// is preferred so backend filtering is not subject to row-level security.
func (c *Config) SupabaseKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

// Validate checks that the credentials required to start the bot are present.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if c.SupabaseURL == "" || c.SupabaseKey() == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY (or SUPABASE_KEY) must be set")
	}
	// A missing OpenAI key is not fatal at startup: the orchestrator reports
	// it per turn so command handlers keep working.
	return nil
}
