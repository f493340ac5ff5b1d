package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"netsuite-gateway/netsuite"
)

// Config is the immutable process configuration, built once at startup.
// Credential values are never logged.
type Config struct {
	Credentials netsuite.Credentials

	Port     string
	LogLevel string

	CacheTTL             time.Duration
	MaxConcurrentQueries int64

	// RetainedEarningsPattern is the account-name substring identifying
	// manual retained-earnings journals; fragile across tenants, so it is
	// a configuration point.
	RetainedEarningsPattern string
}

// credentialsFile mirrors the on-disk JSON credential shape. The file must
// never be checked into source control.
type credentialsFile struct {
	AccountID      string `json:"account_id"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	TokenID        string `json:"token_id"`
	TokenSecret    string `json:"token_secret"`
}

// Load reads configuration with environment variables taking precedence over
// the credentials file named by NETSUITE_CREDENTIALS_FILE.
func Load() (*Config, error) {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Credentials: netsuite.Credentials{
			AccountID:      os.Getenv("NETSUITE_ACCOUNT_ID"),
			ConsumerKey:    os.Getenv("NETSUITE_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("NETSUITE_CONSUMER_SECRET"),
			TokenID:        os.Getenv("NETSUITE_TOKEN_ID"),
			TokenSecret:    os.Getenv("NETSUITE_TOKEN_SECRET"),
		},
		Port:                    envOr("PORT", "8080"),
		LogLevel:                envOr("LOG_LEVEL", "info"),
		CacheTTL:                5 * time.Minute,
		MaxConcurrentQueries:    3,
		RetainedEarningsPattern: envOr("RETAINED_EARNINGS_NAME_PATTERN", "retained earnings"),
	}

	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}
	if mc := os.Getenv("MAX_CONCURRENT_QUERIES"); mc != "" {
		if n, err := strconv.ParseInt(mc, 10, 64); err == nil && n > 0 {
			cfg.MaxConcurrentQueries = n
		}
	}

	if !cfg.credentialsComplete() {
		path := envOr("NETSUITE_CREDENTIALS_FILE", "netsuite_credentials.json")
		if err := cfg.fillFromFile(path); err != nil {
			return nil, err
		}
	}
	if !cfg.credentialsComplete() {
		return nil, fmt.Errorf("incomplete NetSuite credentials: set NETSUITE_ACCOUNT_ID, NETSUITE_CONSUMER_KEY, NETSUITE_CONSUMER_SECRET, NETSUITE_TOKEN_ID, NETSUITE_TOKEN_SECRET or provide a credentials file")
	}
	return cfg, nil
}

func (c *Config) credentialsComplete() bool {
	cr := c.Credentials
	return cr.AccountID != "" && cr.ConsumerKey != "" && cr.ConsumerSecret != "" && cr.TokenID != "" && cr.TokenSecret != ""
}

// fillFromFile supplies only the credential fields the environment left empty
func (c *Config) fillFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read credentials file: %w", err)
	}
	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}
	if c.Credentials.AccountID == "" {
		c.Credentials.AccountID = file.AccountID
	}
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = file.ConsumerKey
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = file.ConsumerSecret
	}
	if c.Credentials.TokenID == "" {
		c.Credentials.TokenID = file.TokenID
	}
	if c.Credentials.TokenSecret == "" {
		c.Credentials.TokenSecret = file.TokenSecret
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
