package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"RPC_URL", "rpc_url", "POLL_INTERVAL_MS", "poll_interval_ms", "GAS_MARGIN_PCT", "gas_margin_pct", "PROVIDER_LOGIN_METHODS", "provider_login_methods"} {
		t.Setenv(k, "")
	}

	st := Load()
	assert.Equal(t, DefaultPollInterval, st.PollInterval)
	assert.Equal(t, uint64(DefaultGasMarginPct), st.GasMarginPct)
	assert.Equal(t, []string{"email"}, st.ProviderLoginMethods)
	assert.NotEmpty(t, st.RPCURL)
	require.NoError(t, st.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("rpc_url", "http://localhost:8545")
	t.Setenv("POLL_INTERVAL_MS", "2500")
	t.Setenv("GAS_MARGIN_PCT", "150")
	t.Setenv("TOKEN_ADDRESS", "0x0000000000000000000000000000000000000001")
	t.Setenv("PROVIDER_LOGIN_METHODS", "email, wallet ,")

	st := Load()
	assert.Equal(t, "http://localhost:8545", st.RPCURL)
	assert.Equal(t, 2500*time.Millisecond, st.PollInterval)
	assert.Equal(t, uint64(150), st.GasMarginPct)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", st.TokenAddress)
	assert.Equal(t, []string{"email", "wallet"}, st.ProviderLoginMethods)
}

func TestLoadIgnoresBadNumbers(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "soon")
	t.Setenv("poll_interval_ms", "")
	st := Load()
	assert.Equal(t, DefaultPollInterval, st.PollInterval)
}

func TestValidate(t *testing.T) {
	ok := Settings{RPCURL: "http://x", PollInterval: time.Second, GasMarginPct: 120, RPCRateLimit: 1}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.RPCURL = " "
	bad.PollInterval = 0
	bad.GasMarginPct = 90
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC_URL")
	assert.Contains(t, err.Error(), "POLL_INTERVAL_MS")
	assert.Contains(t, err.Error(), "GAS_MARGIN_PCT")
}
