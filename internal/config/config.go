package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBHost           string
	DBPort           int
	DBUser           string
	DBPass           string
	DBName           string
	DBSSLMode        string
	DBPoolSize       int
	DBConnectTimeout time.Duration

	RedisURI string // optional; chat cache and login rate limiting are skipped when empty

	SessionTimeout   time.Duration // inactivity window before forced logout
	ChatHistoryLimit int
	ReportListLimit  int

	Port           string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS, comma-separated
	Environment    string   // ENV: production, development, etc.

	GeminiAPIKey string // optional; chatbot falls back to rule-based replies without it
	GeminiAPIURL string
	ScorerURL    string // optional; predictions degrade to the zero-risk default without it
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnvInt("DB_PORT", 5432),
		DBUser:           getEnv("DB_USER", "medguardian"),
		DBPass:           getEnv("DB_PASS", ""), // set in env, do NOT hardcode
		DBName:           getEnv("DB_NAME", "medguardian"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		DBPoolSize:       getEnvInt("DB_POOL_SIZE", 5),
		DBConnectTimeout: time.Duration(getEnvInt("DB_CONNECT_TIMEOUT", 10)) * time.Second,

		RedisURI: getEnv("REDIS_URI", ""),

		SessionTimeout:   time.Duration(getEnvInt("SESSION_TIMEOUT_MINUTES", 15)) * time.Minute,
		ChatHistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 500),
		ReportListLimit:  getEnvInt("REPORT_LIST_LIMIT", 1000),

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,
		Environment:    env,

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"),
		ScorerURL:    getEnv("SCORER_URL", ""),
	}
}

// PostgresDSN builds a lib/pq connection string from the DB_* settings.
func (c *Config) PostgresDSN() string {
	parts := []string{
		"host=" + c.DBHost,
		"port=" + strconv.Itoa(c.DBPort),
		"user=" + c.DBUser,
		"dbname=" + c.DBName,
		"sslmode=" + c.DBSSLMode,
		"connect_timeout=" + strconv.Itoa(int(c.DBConnectTimeout.Seconds())),
	}
	if c.DBPass != "" {
		parts = append(parts, "password="+c.DBPass)
	}
	return strings.Join(parts, " ")
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
