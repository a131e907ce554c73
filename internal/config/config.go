package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl            string
	RequestsPerSecond float64

	// Aggregator protocol
	ProtocolAddress   string
	ProtocolProgramID string
	HostFeeAccount    string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// API server
	ServerAddr      string
	APIKey          string
	DevMode         bool
	RateLimitRPS    float64
	DefaultSlippage float64

	// Wallet
	WalletPrivateKey string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:            getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RequestsPerSecond: getFloatEnv("RPC_REQUESTS_PER_SECOND", 10),

		// Protocol
		ProtocolAddress:   getEnv("PROTOCOL_ADDRESS", ""),
		ProtocolProgramID: getEnv("PROTOCOL_PROGRAM_ID", ""),
		HostFeeAccount:    getEnv("HOST_FEE_ACCOUNT", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "swaps"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Server
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		APIKey:          getEnv("API_KEY", ""),
		DevMode:         getEnv("DEV_MODE", "") == "true",
		RateLimitRPS:    getFloatEnv("RATE_LIMIT_RPS", 20),
		DefaultSlippage: getFloatEnv("DEFAULT_SLIPPAGE", 0.005),

		// Wallet
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.RPCUrl == "" {
		return errors.New("SOLANA_RPC_URL is required")
	}
	if c.ProtocolAddress == "" {
		return errors.New("PROTOCOL_ADDRESS is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
