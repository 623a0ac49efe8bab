package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// TerminalSecrets maps a terminal id to the bcrypt hash of its secret.
	TerminalSecrets map[string]string

	// GatewayAuthTimeout bounds every external authorization call.
	GatewayAuthTimeout time.Duration
	MobileGatewayURL   string
	MobileGatewayKey   string

	KafkaBrokers []string
	KafkaTopic   string

	// PaymentRateLimit is a ulule/limiter formatted rate, e.g. "60-M".
	PaymentRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "12h")
	viper.SetDefault("JWT_ISSUER", "pos-payments-backend")
	viper.SetDefault("TERMINAL_CREDENTIALS", "")
	viper.SetDefault("GATEWAY_AUTH_TIMEOUT", "5s")
	viper.SetDefault("MOBILE_GATEWAY_URL", "")
	viper.SetDefault("MOBILE_GATEWAY_KEY", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "payment_completed")
	viper.SetDefault("PAYMENT_RATE_LIMIT", "120-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Falling back to the in-memory ledger.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_DURATION %q: %w", jwtExpiryStr, err)
	}
	cfg.JWTExpiryDuration = jwtExpiry

	cfg.TerminalSecrets, err = parseTerminalCredentials(viper.GetString("TERMINAL_CREDENTIALS"))
	if err != nil {
		return nil, err
	}
	if len(cfg.TerminalSecrets) == 0 {
		log.Println("Warning: TERMINAL_CREDENTIALS not set. No terminal will be able to log in.")
	}

	timeoutStr := viper.GetString("GATEWAY_AUTH_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_AUTH_TIMEOUT %q: %w", timeoutStr, err)
	}
	cfg.GatewayAuthTimeout = timeout

	cfg.MobileGatewayURL = viper.GetString("MOBILE_GATEWAY_URL")
	cfg.MobileGatewayKey = viper.GetString("MOBILE_GATEWAY_KEY")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")

	cfg.PaymentRateLimit = viper.GetString("PAYMENT_RATE_LIMIT")

	return cfg, nil
}

// parseTerminalCredentials parses "till-001:$2a$10$...,till-002:$2a$10$..."
// into an id -> bcrypt hash map. Bcrypt hashes contain no commas or colons
// beyond the ones split on here.
func parseTerminalCredentials(raw string) (map[string]string, error) {
	creds := make(map[string]string)
	if raw == "" {
		return creds, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		id, hash, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || id == "" || hash == "" {
			return nil, fmt.Errorf("invalid TERMINAL_CREDENTIALS entry %q, want id:bcrypt-hash", pair)
		}
		creds[id] = hash
	}
	return creds, nil
}
