package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings keeps all configuration options. Every key can be given in
// UPPER_CASE or lower_case.
type Settings struct {
	RPCURL       string
	ChainID      string // empty means ask the node
	TokenAddress string // optional ERC-20 shown next to the native balance

	PollInterval time.Duration
	GasMarginPct uint64
	RPCRateLimit float64
	RPCTimeout   time.Duration

	LogLevel         string
	SignerPrivateKey string

	ProviderAppID        string
	ProviderAppSecret    string
	ProviderAPIURL       string
	ProviderCrossAppID   string
	ProviderLoginMethods []string

	KafkaBroker string
	KafkaTopic  string
	MetricsAddr string
}

const (
	DefaultPollInterval = 10 * time.Second
	// DefaultGasMarginPct inflates gas estimates by 20%.
	DefaultGasMarginPct = 120
)

// LoadDotenv reads .env and then lets .env.local override it. Missing files
// are not an error since variables may be set externally.
func LoadDotenv() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// Load reads settings from the environment.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getFloat := func(keys []string, def float64) float64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
		return def
	}
	splitCSV := func(s string) []string {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	st := Settings{}
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "https://sepolia.base.org")
	st.ChainID = get([]string{"chain_id", "CHAIN_ID"}, "")
	st.TokenAddress = get([]string{"token_address", "TOKEN_ADDRESS"}, "")

	st.PollInterval = time.Duration(getInt64([]string{"poll_interval_ms", "POLL_INTERVAL_MS"}, DefaultPollInterval.Milliseconds())) * time.Millisecond
	margin := getInt64([]string{"gas_margin_pct", "GAS_MARGIN_PCT"}, DefaultGasMarginPct)
	if margin < 0 {
		margin = 0
	}
	st.GasMarginPct = uint64(margin)
	st.RPCRateLimit = getFloat([]string{"rpc_rate_limit", "RPC_RATE_LIMIT"}, 10)
	st.RPCTimeout = time.Duration(getInt64([]string{"rpc_timeout_sec", "RPC_TIMEOUT_SEC"}, 30)) * time.Second

	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.SignerPrivateKey = get([]string{"signer_private_key", "SIGNER_PRIVATE_KEY"}, "")

	st.ProviderAppID = get([]string{"provider_app_id", "PROVIDER_APP_ID"}, "")
	st.ProviderAppSecret = get([]string{"provider_app_secret", "PROVIDER_APP_SECRET"}, "")
	st.ProviderAPIURL = get([]string{"provider_api_url", "PROVIDER_API_URL"}, "https://auth.privy.io/api/v1")
	st.ProviderCrossAppID = get([]string{"provider_cross_app_id", "PROVIDER_CROSS_APP_ID"}, "")
	st.ProviderLoginMethods = splitCSV(get([]string{"provider_login_methods", "PROVIDER_LOGIN_METHODS"}, "email"))

	st.KafkaBroker = get([]string{"kafka_broker", "KAFKA_BROKER"}, "")
	st.KafkaTopic = get([]string{"kafka_topic", "KAFKA_TOPIC"}, "wallet-balances")
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")

	return st
}

// Validate checks the settings every command depends on.
func (s Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.RPCURL) == "" {
		errs = append(errs, errors.New("RPC_URL is empty"))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL_MS must be positive, got %s", s.PollInterval))
	}
	if s.GasMarginPct < 100 {
		errs = append(errs, fmt.Errorf("GAS_MARGIN_PCT must be at least 100, got %d", s.GasMarginPct))
	}
	if s.RPCRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("RPC_RATE_LIMIT must be positive, got %v", s.RPCRateLimit))
	}
	return errors.Join(errs...)
}
