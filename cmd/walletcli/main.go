package main

import (
	"fmt"
	"math/big"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/ligun0805/crossapp-wallet/internal/chain"
	"github.com/ligun0805/crossapp-wallet/internal/config"
	"github.com/ligun0805/crossapp-wallet/internal/logger"
)

var exampleUsage = strings.TrimSpace(`
  walletcli balance 0xYourAddress
  walletcli watch --poll-interval 5s
  walletcli max 0xRecipient
  walletcli send 0xRecipient --max
  walletcli send-token 0xRecipient 12.5 --token 0xTokenAddress
  walletcli whoami did:privy:abc123
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app is shared by every subcommand. Settings come from the TOML file, then
// .env and the environment, then flags the user actually set.
type app struct {
	cfg config.Settings
	log zerolog.Logger

	flagConfig   string
	flagRPC      string
	flagChainID  string
	flagToken    string
	flagMargin   uint64
	flagInterval time.Duration
	flagLogLevel string
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "walletcli",
		Short:         "Fee-aware transfers and balance polling for cross-app wallets",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "TOML config file, default ~/.crossapp-wallet/config.toml")
	pf.StringVar(&a.flagRPC, "rpc", "", "JSON-RPC endpoint (RPC_URL)")
	pf.StringVar(&a.flagChainID, "chain-id", "", "chain id, empty asks the node (CHAIN_ID)")
	pf.StringVar(&a.flagToken, "token", "", "ERC-20 contract to track next to the native balance (TOKEN_ADDRESS)")
	pf.Uint64Var(&a.flagMargin, "margin", config.DefaultGasMarginPct, "gas safety margin in percent of the estimate (GAS_MARGIN_PCT)")
	pf.DurationVar(&a.flagInterval, "poll-interval", config.DefaultPollInterval, "balance poll interval (POLL_INTERVAL_MS)")
	pf.StringVar(&a.flagLogLevel, "log-level", "info", "debug, info, warn or error (LOG_LEVEL)")

	root.AddCommand(
		newBalanceCmd(a),
		newWatchCmd(a),
		newMaxCmd(a),
		newSendCmd(a),
		newSendTokenCmd(a),
		newFeesCmd(a),
		newWhoamiCmd(a),
		newSignMessageCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", friendlyErr(err))
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	config.LoadDotenv()
	cfg := config.Load()

	cfgFile := a.flagConfig
	if cfgFile == "" {
		cfgFile = config.DefaultFilePath()
	}
	if cfgFile != "" && (a.flagConfig != "" || config.FileExists(cfgFile)) {
		fc, err := config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFile(&cfg, fc); err != nil {
			return err
		}
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	if changed["rpc"] {
		cfg.RPCURL = a.flagRPC
	}
	if changed["chain-id"] {
		cfg.ChainID = a.flagChainID
	}
	if changed["token"] {
		cfg.TokenAddress = a.flagToken
	}
	if changed["margin"] {
		cfg.GasMarginPct = a.flagMargin
	}
	if changed["poll-interval"] {
		cfg.PollInterval = a.flagInterval
	}
	if changed["log-level"] {
		cfg.LogLevel = a.flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	a.cfg = cfg
	a.log = logger.For("walletcli")
	return nil
}

func (a *app) dial() (*chain.Client, error) {
	var chainID *big.Int
	if a.cfg.ChainID != "" {
		id, ok := new(big.Int).SetString(a.cfg.ChainID, 10)
		if !ok {
			return nil, fmt.Errorf("bad CHAIN_ID %q", a.cfg.ChainID)
		}
		chainID = id
	}
	l := logger.For("chain")
	c, err := chain.Dial(a.cfg.RPCURL, chain.Options{
		RateLimit: a.cfg.RPCRateLimit,
		Timeout:   a.cfg.RPCTimeout,
		ChainID:   chainID,
		Logger:    &l,
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("rpc", a.cfg.RPCURL).Msg("connected")
	return c, nil
}

// signer uses SIGNER_PRIVATE_KEY or asks for the key on the terminal.
func (a *app) signer() (*chain.KeySigner, error) {
	pk := a.cfg.SignerPrivateKey
	if pk == "" {
		var err error
		if pk, err = readPassword("Private key (hex): "); err != nil {
			return nil, err
		}
	}
	s, err := chain.NewKeySignerFromHex(pk)
	if err != nil {
		return nil, fmt.Errorf("signer key %s: %w", maskHex(pk), err)
	}
	return s, nil
}

// account returns the first argument or the signer's address.
func (a *app) account(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		if _, err := chain.ParseAddress(args[0]); err != nil {
			return "", err
		}
		return args[0], nil
	}
	s, err := a.signer()
	if err != nil {
		return "", err
	}
	return s.Address(), nil
}
