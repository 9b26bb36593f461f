package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	SenderEmail string
	SenderName  string

	// Google OAuth for Gmail + Calendar
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccessToken  string
	GoogleRefreshToken string

	// IMAP/SMTP fallback transport
	MailProvider string // "gmail" | "imap"
	IMAPHost     string
	IMAPUsername string
	IMAPPassword string
	SMTPHost     string

	// AI provider
	AIProvider    string // "gemini" | "ollama" | "auto"
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Scheduling negotiation
	DefaultTimezone   string
	ToleranceMinutes  int
	FetchLimit        int
	OpenSlotLimit     int
	MaxIngestAttempts int

	// Screening
	ScoreThreshold      float64
	AutoRejectGraceDays int
	AutoRejectInterval  time.Duration

	// File storage
	ResumeDir string
	JDDir     string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=hrflow port=5432 sslmode=disable"),

		SenderEmail: getEnv("SENDER_EMAIL", ""),
		SenderName:  getEnv("SENDER_NAME", "HR Team"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleAccessToken:  getEnv("GOOGLE_ACCESS_TOKEN", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		MailProvider: getEnv("MAIL_PROVIDER", "gmail"),
		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "gpt-oss:20b"),

		DefaultTimezone:   getEnv("DEFAULT_TIMEZONE", "Asia/Kathmandu"),
		ToleranceMinutes:  getEnvInt("TOLERANCE_MINUTES", 5),
		FetchLimit:        getEnvInt("FETCH_LIMIT", 25),
		OpenSlotLimit:     getEnvInt("OPEN_SLOT_LIMIT", 10),
		MaxIngestAttempts: getEnvInt("MAX_INGEST_ATTEMPTS", 3),

		ScoreThreshold:      getEnvFloat("SCORE_THRESHOLD", 6.0),
		AutoRejectGraceDays: getEnvInt("AUTO_REJECT_GRACE_DAYS", 7),
		AutoRejectInterval:  getEnvDuration("AUTO_REJECT_INTERVAL", 6*time.Hour),

		ResumeDir: getEnv("RESUME_DIR", "./data/resumes"),
		JDDir:     getEnv("JD_DIR", "./data/job_descriptions"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
