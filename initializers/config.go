package initializers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

type FirebaseConfig struct {
	CredentialsPath string
	StorageBucket   string
	ProgramsTopic   string
}

type QueueConfig struct {
	Enabled bool
	Workers int
}

// Config is built once at startup and handed to the services and middlewares
// that need it. Handlers never read the environment directly.
type Config struct {
	Port            string
	GinMode         string
	DatabaseURL     string
	FrontendBaseURL string
	APIBaseURL      string
	CORSOrigin      string
	JWT             JWTConfig
	Email           EmailConfig
	Firebase        FirebaseConfig
	Queue           QueueConfig
}

// LoadEnv reads .env (if present) into the process environment and returns the
// typed configuration.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	cfg := &Config{
		Port:            envStr("PORT", "8080"),
		GinMode:         envStr("GIN_MODE", "release"),
		DatabaseURL:     os.Getenv("DB_URL"),
		FrontendBaseURL: strings.TrimRight(envStr("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),
		APIBaseURL:      strings.TrimRight(envStr("API_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigin:      envStr("CORS_ORIGIN", "*"),
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Issuer:   envStr("JWT_ISSUER", "faith-community"),
			Audience: envStr("JWT_AUDIENCE", "faith-community-admin"),
		},
		Email: EmailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			FromAddress:  envStr("RESEND_FROM_EMAIL", "FAITH CommUNITY <no-reply@faithcommunity.local>"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
			StorageBucket:   os.Getenv("FIREBASE_STORAGE_BUCKET"),
			ProgramsTopic:   envStr("FIREBASE_PROGRAMS_TOPIC", "programs"),
		},
		Queue: QueueConfig{
			Enabled: envBool("QUEUE_ENABLED", false),
			Workers: envInt("QUEUE_WORKERS", 5),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DB_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	ttl, err := envDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	cfg.JWT.TTL = ttl

	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return d, nil
}
