package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
rpc_url = "http://file:8545"
token_address = "0x0000000000000000000000000000000000000002"
poll_interval = "5s"
gas_margin_pct = 130
log_level = "debug"

[provider]
app_id = "file-app"
login_methods = ["email", "wallet"]

[kafka]
broker = "kafka:9092"
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		t.Setenv(k, "")
		t.Setenv(strings.ToLower(k), "")
	}
}

func TestLoadFileAndApply(t *testing.T) {
	clearEnv(t, "RPC_URL", "TOKEN_ADDRESS", "POLL_INTERVAL_MS", "GAS_MARGIN_PCT", "LOG_LEVEL", "PROVIDER_APP_ID", "PROVIDER_LOGIN_METHODS", "KAFKA_BROKER")

	fc, err := LoadFile(writeFile(t, sampleTOML))
	require.NoError(t, err)

	st := Load()
	require.NoError(t, ApplyFile(&st, fc))
	assert.Equal(t, "http://file:8545", st.RPCURL)
	assert.Equal(t, "0x0000000000000000000000000000000000000002", st.TokenAddress)
	assert.Equal(t, 5*time.Second, st.PollInterval)
	assert.Equal(t, uint64(130), st.GasMarginPct)
	assert.Equal(t, "debug", st.LogLevel)
	assert.Equal(t, "file-app", st.ProviderAppID)
	assert.Equal(t, []string{"email", "wallet"}, st.ProviderLoginMethods)
	assert.Equal(t, "kafka:9092", st.KafkaBroker)
	require.NoError(t, st.Validate())
}

func TestEnvWinsOverFile(t *testing.T) {
	clearEnv(t, "RPC_URL", "GAS_MARGIN_PCT", "POLL_INTERVAL_MS")
	t.Setenv("RPC_URL", "http://env:8545")
	t.Setenv("gas_margin_pct", "125")

	fc, err := LoadFile(writeFile(t, sampleTOML))
	require.NoError(t, err)

	st := Load()
	require.NoError(t, ApplyFile(&st, fc))
	assert.Equal(t, "http://env:8545", st.RPCURL)
	assert.Equal(t, uint64(125), st.GasMarginPct)
	assert.Equal(t, 5*time.Second, st.PollInterval)
}

func TestApplyFileBadDuration(t *testing.T) {
	clearEnv(t, "POLL_INTERVAL_MS")
	st := Load()
	err := ApplyFile(&st, FileConfig{PollInterval: "soon"})
	require.ErrorContains(t, err, "POLL_INTERVAL_MS")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "rpc_url = "))
	require.Error(t, err)

	assert.False(t, FileExists(filepath.Join(t.TempDir(), "nope")))
}
