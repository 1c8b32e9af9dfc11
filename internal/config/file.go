package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the optional TOML file. Secrets (signer key, provider app
// secret) are read from the environment only.
type FileConfig struct {
	RPCURL       string  `toml:"rpc_url"`
	ChainID      string  `toml:"chain_id"`
	TokenAddress string  `toml:"token_address"`
	PollInterval string  `toml:"poll_interval"`
	GasMarginPct uint64  `toml:"gas_margin_pct"`
	RPCRateLimit float64 `toml:"rpc_rate_limit"`
	RPCTimeout   string  `toml:"rpc_timeout"`
	LogLevel     string  `toml:"log_level"`
	MetricsAddr  string  `toml:"metrics_addr"`

	Provider struct {
		AppID        string   `toml:"app_id"`
		APIURL       string   `toml:"api_url"`
		CrossAppID   string   `toml:"cross_app_id"`
		LoginMethods []string `toml:"login_methods"`
	} `toml:"provider"`

	Kafka struct {
		Broker string `toml:"broker"`
		Topic  string `toml:"topic"`
	} `toml:"kafka"`
}

// LoadFile reads and parses a TOML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultFilePath returns ~/.crossapp-wallet/config.toml, or "" without a
// home directory.
func DefaultFilePath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".crossapp-wallet", "config.toml")
	}
	return ""
}

func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// envSetter writes a file value only when neither spelling of the
// environment key is set, so the environment keeps precedence.
type envSetter struct{}

func (envSetter) inEnv(key string) bool {
	return strings.TrimSpace(os.Getenv(key)) != "" || strings.TrimSpace(os.Getenv(strings.ToLower(key))) != ""
}

func (s envSetter) setString(key, value string, dst *string) {
	if value != "" && !s.inEnv(key) {
		*dst = value
	}
}

func (s envSetter) setDuration(key, value string, dst *time.Duration) error {
	if value == "" || s.inEnv(key) {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	*dst = d
	return nil
}

// ApplyFile layers fc under the environment: a key set in the environment
// wins over the file.
func ApplyFile(st *Settings, fc FileConfig) error {
	s := envSetter{}

	s.setString("RPC_URL", fc.RPCURL, &st.RPCURL)
	s.setString("CHAIN_ID", fc.ChainID, &st.ChainID)
	s.setString("TOKEN_ADDRESS", fc.TokenAddress, &st.TokenAddress)
	s.setString("LOG_LEVEL", fc.LogLevel, &st.LogLevel)
	s.setString("METRICS_ADDR", fc.MetricsAddr, &st.MetricsAddr)
	s.setString("PROVIDER_APP_ID", fc.Provider.AppID, &st.ProviderAppID)
	s.setString("PROVIDER_API_URL", fc.Provider.APIURL, &st.ProviderAPIURL)
	s.setString("PROVIDER_CROSS_APP_ID", fc.Provider.CrossAppID, &st.ProviderCrossAppID)
	s.setString("KAFKA_BROKER", fc.Kafka.Broker, &st.KafkaBroker)
	s.setString("KAFKA_TOPIC", fc.Kafka.Topic, &st.KafkaTopic)

	if err := s.setDuration("POLL_INTERVAL_MS", fc.PollInterval, &st.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("RPC_TIMEOUT_SEC", fc.RPCTimeout, &st.RPCTimeout); err != nil {
		return err
	}
	if fc.GasMarginPct != 0 && !s.inEnv("GAS_MARGIN_PCT") {
		st.GasMarginPct = fc.GasMarginPct
	}
	if fc.RPCRateLimit != 0 && !s.inEnv("RPC_RATE_LIMIT") {
		st.RPCRateLimit = fc.RPCRateLimit
	}
	if len(fc.Provider.LoginMethods) > 0 && !s.inEnv("PROVIDER_LOGIN_METHODS") {
		st.ProviderLoginMethods = append([]string(nil), fc.Provider.LoginMethods...)
	}
	return nil
}
