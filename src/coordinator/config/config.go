package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/torchfund/voteexec/src/coordinator/data"
	"gorm.io/gorm"
)

type Config struct {
	Port           string
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	AllowedOrigins []string

	RPCURL           string
	ExecutorAddress  string
	VoteTokenAddress string
	ChainID          int64
	ProtocolKey      string
	ValidatorKeys    []string
	SignMessage      string
	ConfirmTimeout   time.Duration

	BatchSize         int
	CycleInterval     time.Duration
	RegistrationDelay time.Duration
	VotingWindow      time.Duration
	QuorumThreshold   int
}

func Load(db *gorm.DB) Config {
	// Load settings from database
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	return Config{
		Port:           getSetting("port", "PORT", "4000"),
		MySQLDSN:       getenv("MYSQL_DSN", ""),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getSetting("jwt_secret", "JWT_SECRET", ""),
		AllowedOrigins: splitList(getSetting("allowed_origins", "ALLOWED_ORIGINS", "http://localhost:3000")),

		RPCURL:           getSetting("rpc_url", "RPC_URL", "http://127.0.0.1:8545"),
		ExecutorAddress:  getSetting("vote_executor_address", "VOTE_EXECUTOR_ADDRESS", ""),
		VoteTokenAddress: getSetting("vote_token_address", "VOTE_TOKEN_ADDRESS", ""),
		ChainID:          getInt64("chain_id", "CHAIN_ID", 1),
		ProtocolKey:      getSetting("protocol_key", "PRIVATE_KEY", ""),
		ValidatorKeys:    splitList(getSetting("validator_keys", "VALIDATOR_KEYS", "")),
		SignMessage:      getSetting("sign_message", "SIGN_MESSAGE", ""),
		ConfirmTimeout:   getDuration("confirm_timeout", "CONFIRM_TIMEOUT", 2*time.Minute),

		BatchSize:         int(getInt64("batch_size", "BATCH_SIZE", 10)),
		CycleInterval:     getDuration("cycle_interval", "CYCLE_INTERVAL", 24*time.Hour),
		RegistrationDelay: getDuration("registration_delay", "REGISTRATION_DELAY", 5*time.Minute),
		VotingWindow:      getDuration("voting_window", "VOTING_WINDOW", 24*time.Hour),
		QuorumThreshold:   int(getInt64("quorum_threshold", "QUORUM_THRESHOLD", 0)),
	}
}

// getSetting retrieves a setting with env fallback
func getSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(name, envKey string, def int64) int64 {
	raw := getSetting(name, envKey, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("config: bad value %q for %s, using default", raw, name)
		return def
	}
	return v
}

func getDuration(name, envKey string, def time.Duration) time.Duration {
	raw := getSetting(name, envKey, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: bad value %q for %s, using default", raw, name)
		return def
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
