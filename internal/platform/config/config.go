package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// ImportSecretHash is the bcrypt hash of the shared secret provider sync
	// jobs present on the import endpoint. Empty disables the check.
	ImportSecretHash string

	PostgresURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	PublicCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("WARDEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "warden.profile.events"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	ttl := 5 * time.Minute
	if raw := os.Getenv("PUBLIC_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		ImportSecretHash: os.Getenv("IMPORT_SECRET_HASH"),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     brokers,
		KafkaTopic:       topic,
		PublicCacheTTL:   ttl,
	}
}
