package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresDSN is the disclaimer rule/template database. Empty means
	// run on the in-memory store (local development only).
	PostgresDSN string

	// RedisURL enables the rule-set cache when non-empty.
	RedisURL     string
	RuleCacheTTL time.Duration

	// KafkaBrokers enables the compliance audit trail when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:         envOr("SIGCLAUSE_ADDR", ":8080"),
		PostgresDSN:  os.Getenv("SIGCLAUSE_POSTGRES_DSN"),
		RedisURL:     os.Getenv("SIGCLAUSE_REDIS_URL"),
		RuleCacheTTL: 5 * time.Minute,
		AuditTopic:   envOr("SIGCLAUSE_AUDIT_TOPIC", "sigclause.audit"),
	}
	if brokers := os.Getenv("SIGCLAUSE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("SIGCLAUSE_RULE_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.RuleCacheTTL = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
