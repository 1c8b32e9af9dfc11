package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crossapp-wallet/internal/identity"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

func newTestRoot(a *app) *cobra.Command {
	root := &cobra.Command{Use: "walletcli", RunE: func(*cobra.Command, []string) error { return nil }}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "")
	pf.StringVar(&a.flagRPC, "rpc", "", "")
	pf.StringVar(&a.flagChainID, "chain-id", "", "")
	pf.StringVar(&a.flagToken, "token", "", "")
	pf.Uint64Var(&a.flagMargin, "margin", 120, "")
	pf.DurationVar(&a.flagInterval, "poll-interval", 10*time.Second, "")
	pf.StringVar(&a.flagLogLevel, "log-level", "info", "")
	return root
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("RPC_URL", "http://env:8545")
	t.Setenv("GAS_MARGIN_PCT", "150")
	t.Setenv("POLL_INTERVAL_MS", "2000")

	a := &app{}
	root := newTestRoot(a)
	require.NoError(t, root.ParseFlags([]string{"--rpc", "http://flag:8545"}))
	require.NoError(t, a.loadConfig(root))

	assert.Equal(t, "http://flag:8545", a.cfg.RPCURL)
	assert.Equal(t, uint64(150), a.cfg.GasMarginPct)
	assert.Equal(t, 2*time.Second, a.cfg.PollInterval)
}

func TestLoadConfigReadsFile(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("rpc_url", "")
	p := filepath.Join(t.TempDir(), "wallet.toml")
	require.NoError(t, os.WriteFile(p, []byte(`rpc_url = "http://file:8545"`), 0o600))

	a := &app{}
	root := newTestRoot(a)
	require.NoError(t, root.ParseFlags([]string{"--config", p}))
	require.NoError(t, a.loadConfig(root))
	assert.Equal(t, "http://file:8545", a.cfg.RPCURL)

	a = &app{}
	root = newTestRoot(a)
	require.NoError(t, root.ParseFlags([]string{"--config", p + ".missing"}))
	require.ErrorContains(t, a.loadConfig(root), "load config")
}

func TestLoadConfigRejectsLowMargin(t *testing.T) {
	a := &app{}
	root := newTestRoot(a)
	require.NoError(t, root.ParseFlags([]string{"--margin", "90"}))
	require.ErrorContains(t, a.loadConfig(root), "GAS_MARGIN_PCT")
}

func TestAccountValidatesArgument(t *testing.T) {
	a := &app{}
	got, err := a.account([]string{"0x1111111111111111111111111111111111111111"})
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", got)

	_, err = a.account([]string{"bob"})
	require.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestSignerFromConfig(t *testing.T) {
	a := &app{}
	a.cfg.SignerPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	s, err := a.signer()
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", s.Address())

	a.cfg.SignerPrivateKey = "0x1234"
	_, err = a.signer()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "0x1234")
}

func TestSignMessageCmd(t *testing.T) {
	a := &app{}
	a.cfg.SignerPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	const addr = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

	var out bytes.Buffer
	cmd := newSignMessageCmd(a)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Hello world"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), addr)

	var sig string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "Signature:") {
			sig = strings.TrimSpace(strings.TrimPrefix(line, "Signature:"))
		}
	}
	require.Len(t, sig, 2+65*2)

	out.Reset()
	verify := newSignMessageCmd(&app{})
	verify.SetOut(&out)
	verify.SetArgs([]string{"Hello world", "--verify", sig})
	require.NoError(t, verify.Execute())
	assert.Contains(t, out.String(), addr)
}

func TestFriendlyErr(t *testing.T) {
	assert.Equal(t, "", friendlyErr(nil))
	assert.Contains(t, friendlyErr(fmt.Errorf("%w: short", wallet.ErrInsufficientFunds)), "does not cover")
	assert.Contains(t, friendlyErr(fmt.Errorf("%w: no base", wallet.ErrFeeDataUnavailable)), "EIP-1559")
	assert.Contains(t, friendlyErr(fmt.Errorf("%w: x", identity.ErrUserNotFound)), "no such user")
	assert.Contains(t, friendlyErr(errors.New("Post \"http://x\": dial tcp 1.2.3.4:80: refused")), "network/DNS")
	assert.Equal(t, "plain", friendlyErr(errors.New("plain")))
}

func TestCLIHelpers(t *testing.T) {
	assert.True(t, yes(" Y "))
	assert.True(t, yes("yes"))
	assert.False(t, yes(""))
	assert.Equal(t, "***", maskHex("0x1234"))
	assert.Equal(t, "0xabcd…6789", maskHex("0xabcdef0123456789"))
	assert.True(t, confirm("go?", true))

	tok := tokenInfo{Symbol: "USDC", Decimals: 6}
	assert.Equal(t, "1.5 USDC", tok.format(big.NewInt(1_500_000)))
	assert.Equal(t, "(none)", orNone(""))
}
