package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/identity"
	"github.com/ligun0805/crossapp-wallet/internal/logger"
	"github.com/ligun0805/crossapp-wallet/internal/units"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

func (a *app) providerConfig() identity.ProviderConfig {
	return identity.ProviderConfig{
		AppID:         a.cfg.ProviderAppID,
		AppSecret:     a.cfg.ProviderAppSecret,
		APIURL:        a.cfg.ProviderAPIURL,
		LoginMethods:  a.cfg.ProviderLoginMethods,
		CreateOnLogin: identity.CreateUsersWithoutWallets,
		CrossAppID:    a.cfg.ProviderCrossAppID,
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var withBalances bool
	cmd := &cobra.Command{
		Use:   "whoami <user-id>",
		Short: "Show a provider user's wallet and cross-app wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ic, err := identity.NewClient(a.providerConfig(), a.cfg.RPCTimeout, logger.For("identity"))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			user, err := (<-ic.UserAsync(ctx, args[0])).Unwrap()
			if err != nil {
				return err
			}

			pc := a.providerConfig()
			methods := "(all)"
			if len(pc.LoginMethods) > 0 {
				methods = strings.Join(pc.LoginMethods, ", ")
			}
			fmt.Printf("Login methods: %s\n", methods)
			fmt.Printf("Wallet policy: %s\n", pc.WalletPolicy())
			fmt.Printf("User:          %s\n", user.ID)
			for _, acc := range user.LinkedAccounts {
				switch acc.Kind {
				case wallet.KindEmail:
					note := ""
					if !pc.LoginAllowed("email") {
						note = " (login disabled)"
					}
					fmt.Printf("Email:         %s%s\n", acc.Email.Address, note)
				case wallet.KindUnknown:
					a.log.Debug().Str("type", acc.RawType).Msg("skipping linked account")
				}
			}
			fmt.Printf("Wallet:        %s\n", orNone(user.Wallet()))

			cross := user.CrossAppWallet()
			if id := a.cfg.ProviderCrossAppID; id != "" {
				cross = ""
				if accs := user.CrossAppAccounts(id); len(accs) > 0 && len(accs[0].EmbeddedWallets) > 0 {
					cross = accs[0].EmbeddedWallets[0].Address
				}
			}
			fmt.Printf("Cross Account: %s\n", orNone(cross))

			if !withBalances {
				return nil
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			for _, addr := range []string{user.Wallet(), cross} {
				if addr == "" {
					continue
				}
				bal, err := c.Balance(ctx, addr)
				if err != nil {
					return err
				}
				fmt.Printf("  %s: %s ETH\n", addr, units.FormatEther(bal))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withBalances, "balances", false, "also read native balances of both wallets")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
