// config.go
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI               string
	MongoDBName            string
	Port                   string
	JWTSecret              string
	JWTExpiresIn           time.Duration
	AllowPasswordlessLogin bool
	RabbitURL              string
}

func Load() *Config {
	// Local development reads a .env file; missing is fine.
	_ = godotenv.Load()

	return &Config{
		MongoURI:               getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017")),
		MongoDBName:            getEnv("MONGO_DB_NAME", "RouteManagementDB"),
		Port:                   getEnv("PORT", "3001"),
		JWTSecret:              getEnv("JWT_SECRET", "change-me-mobile-backend-min-32-chars"),
		JWTExpiresIn:           getDuration("JWT_EXPIRES_IN", time.Hour),
		AllowPasswordlessLogin: getBool("ALLOW_PASSWORDLESS_LOGIN", true),
		RabbitURL:              getEnv("RABBIT_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}
