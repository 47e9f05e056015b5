package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds application settings loaded from the environment.
type Config struct {
	Port            string
	MongoURI        string
	DBName          string
	UseTransactions bool
	JWTSecret       string
	TokenExpiry     time.Duration
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	PushTTL         int
	PushConcurrency int
	NotifyAuthor    bool
	AppIcon         string
	LogLevel        string
	AllowedOrigins  []string
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, reading configuration from environment")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		DBName:          getEnv("DB_NAME", "prayer_manager"),
		UseTransactions: getBool("MONGO_TRANSACTIONS", true),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenExpiry:     getDuration("TOKEN_EXPIRY", 72*time.Hour),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getEnv("VAPID_SUBSCRIBER", "mailto:noreply@prayermanager.app"),
		PushTTL:         getInt("PUSH_TTL", 86400),
		PushConcurrency: getInt("PUSH_CONCURRENCY", 8),
		NotifyAuthor:    getBool("NOTIFY_AUTHOR_ON_SHARE", false),
		AppIcon:         getEnv("APP_ICON", "/icons/icon-192x192.png"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	required := map[string]string{
		"MONGO_URI":         c.MongoURI,
		"JWT_SECRET":        c.JWTSecret,
		"VAPID_PUBLIC_KEY":  c.VAPIDPublicKey,
		"VAPID_PRIVATE_KEY": c.VAPIDPrivateKey,
	}
	for _, key := range []string{"MONGO_URI", "JWT_SECRET", "VAPID_PUBLIC_KEY", "VAPID_PRIVATE_KEY"} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("missing required environment variable %s", key)
		}
	}
	if c.PushConcurrency < 1 {
		return fmt.Errorf("PUSH_CONCURRENCY must be positive, got %d", c.PushConcurrency)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid integer %q, using default %d", v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid boolean %q, using default %t", v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using default %s", v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
