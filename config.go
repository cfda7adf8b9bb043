package safespace

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingGroqKey is returned when the required LLM credential is absent.
// The server still starts so the UI can surface the configuration error, but
// no agent is constructed.
var ErrMissingGroqKey = errors.New("GROQ_API_KEY is not set")

// Config holds all environment-driven settings for the service.
type Config struct {
	// Required for agent construction.
	GroqAPIKey string
	GroqModel  string

	// Optional telephony credentials. Absence disables calling and triggers
	// the fallback text in the emergency tool.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Optional: enables voice responses via Gemini TTS.
	GeminiAPIKey string

	Addr       string
	StoreType  string // "memory" (default), "sqlite", "postgres"
	StoreDSN   string
	SessionTTL time.Duration
}

// LoadConfig reads configuration from the environment. A .env file is loaded
// first if present (not present in production).
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqModel:        getenvDefault("SAFESPACE_MODEL", "openai/gpt-oss-20b"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		Addr:             getenvDefault("SAFESPACE_ADDR", ":8000"),
		StoreType:        getenvDefault("SAFESPACE_STORE", "memory"),
		StoreDSN:         os.Getenv("SAFESPACE_DB"),
		SessionTTL:       12 * time.Hour,
	}

	if ttl := os.Getenv("SAFESPACE_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.SessionTTL = d
		} else {
			log.Printf("Warning: invalid SAFESPACE_SESSION_TTL %q: %v", ttl, err)
		}
	}

	return cfg
}

// ValidateAgent reports whether an agent can be constructed.
func (c *Config) ValidateAgent() error {
	if c.GroqAPIKey == "" {
		return ErrMissingGroqKey
	}
	return nil
}

// TelephonyConfigured reports whether all Twilio credentials are present.
func (c *Config) TelephonyConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
