package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthSecret    string
	TokenTTLHours int

	CORSOrigins []string

	// SendGrid; when the key is empty emails fall back to console output.
	SendGridKey string
	EmailFrom   string
	EmailName   string

	// Payment gateway (checkout sessions + webhooks).
	PaymentAPIURL        string
	PaymentAPIKey        string
	PaymentWebhookSecret string

	// AI completion endpoint for the study helper.
	AssistAPIURL string
	AssistAPIKey string
	AssistModel  string

	AssetBasePath string
}

// FromEnv loads .env if present, then reads configuration from the
// environment with dev-friendly defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTLHours: envInt("TOKEN_TTL_HOURS", 8),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		SendGridKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:   envOr("EMAIL_FROM", "no-reply@learnhub.io"),
		EmailName:   envOr("EMAIL_FROM_NAME", "LearnHub"),

		PaymentAPIURL:        envOr("PAYMENT_API_URL", "https://api.payments.example.com/v1"),
		PaymentAPIKey:        os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		AssistAPIURL: envOr("ASSIST_API_URL", "https://api.openai.com/v1/chat/completions"),
		AssistAPIKey: os.Getenv("ASSIST_API_KEY"),
		AssistModel:  envOr("ASSIST_MODEL", "gpt-4o-mini"),

		AssetBasePath: envOr("ASSET_BASE_PATH", "./data"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
